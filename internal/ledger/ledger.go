package ledger

import (
	"fmt"
	"iter"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
	"go.uber.org/zap"
)

// PaymentResult reports how one applied installment was split.
type PaymentResult struct {
	Period        int
	InterestPaid  float64
	PrincipalPaid float64
	NewBalance    float64
}

// Summary is a read-only snapshot of a ledger.
type Summary struct {
	Principal         float64
	AnnualRatePercent float64
	TenureMonths      int
	EMI               float64
	TotalInterest     float64
	TotalPayable      float64
	PaymentsMade      int
	TotalPaid         float64
	BalanceRemaining  float64
	// ProgressPercent is not clamped and exceeds 100 once payments run past
	// the nominal tenure.
	ProgressPercent float64
	Cleared         bool
}

// ScheduleRow is one modeled period of an amortization schedule.
type ScheduleRow struct {
	Period       int
	EMI          float64
	Interest     float64
	Principal    float64
	BalanceAfter float64
}

// Ledger holds the mutable repayment state of one loan. A Ledger is not safe
// for concurrent use; see Tracker.
type Ledger struct {
	logger           *zap.Logger
	terms            Terms
	emi              float64
	balanceRemaining float64
	paymentsMade     int
	totalPaid        float64
}

// Option customizes ledger construction.
type Option func(*options)

type options struct {
	tenurePolicy TenurePolicy
}

// WithTenurePolicy selects how NewLedger converts years into months.
func WithTenurePolicy(policy TenurePolicy) Option {
	return func(o *options) {
		o.tenurePolicy = policy
	}
}

// NewLedger validates the loan parameters, computes the installment and
// returns a fresh ledger. Nothing is constructed on error.
func NewLedger(logger *zap.Logger, principal, annualRatePercent, tenureYears float64, opts ...Option) (*Ledger, error) {
	o := options{tenurePolicy: TenureRound}
	for _, opt := range opts {
		opt(&o)
	}

	// Validate the amounts before the tenure so the error names the first bad field.
	if err := loans.ValidateTerms(principal, annualRatePercent, 1); err != nil {
		return nil, err
	}
	months, err := TenureMonths(tenureYears, o.tenurePolicy)
	if err != nil {
		return nil, err
	}

	return NewLedgerFromTerms(logger, Terms{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      months,
	})
}

// NewLedgerFromTerms creates a ledger for terms already expressed in months.
func NewLedgerFromTerms(logger *zap.Logger, terms Terms) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	emi, err := loans.CalculateEMI(terms.Principal, terms.AnnualRatePercent, terms.TenureMonths)
	if err != nil {
		return nil, err
	}

	logger.Debug(fmt.Sprintf("created loan of %.2f at %.4f%% over %d months with installment %.2f",
		terms.Principal, terms.AnnualRatePercent, terms.TenureMonths, emi),
		zap.String("op", "ledger.NewLedger"),
	)

	return &Ledger{
		logger:           logger,
		terms:            terms,
		emi:              emi,
		balanceRemaining: terms.Principal,
	}, nil
}

// Terms returns the loan terms.
func (l *Ledger) Terms() Terms {
	return l.terms
}

// EMI returns the fixed monthly installment.
func (l *Ledger) EMI() float64 {
	return l.emi
}

// Cleared reports whether the remaining balance is within the payoff epsilon.
func (l *Ledger) Cleared() bool {
	return l.balanceRemaining <= constants.ClearedBalanceEpsilon
}

// ApplyPayment applies one installment. The tenure count is informational:
// only a cleared balance stops further payments.
func (l *Ledger) ApplyPayment() (PaymentResult, error) {
	if l.Cleared() {
		return PaymentResult{}, fmt.Errorf("%w: remaining balance %.2f after %d payments",
			loans.ErrLoanAlreadyCleared, l.balanceRemaining, l.paymentsMade)
	}

	period := loans.Step(l.balanceRemaining, l.terms.MonthlyRate(), l.emi)
	balance := period.BalanceAfter
	if balance < 0 {
		// Rounding residue on the final installment.
		balance = 0
	}

	l.balanceRemaining = balance
	l.paymentsMade++
	l.totalPaid += l.emi

	l.logger.Debug(fmt.Sprintf("payment %d: interest %.2f, principal %.2f, balance %.2f",
		l.paymentsMade, period.Interest, period.Principal, balance),
		zap.String("op", "ledger.ApplyPayment"),
	)
	if l.paymentsMade > l.terms.TenureMonths {
		l.logger.Warn("payments exceed the nominal tenure",
			zap.String("op", "ledger.ApplyPayment"),
			zap.Int("payments_made", l.paymentsMade),
			zap.Int("tenure_months", l.terms.TenureMonths),
		)
	}

	return PaymentResult{
		Period:        l.paymentsMade,
		InterestPaid:  period.Interest,
		PrincipalPaid: period.Principal,
		NewBalance:    balance,
	}, nil
}

// Summarize returns a snapshot of the loan and its progress.
func (l *Ledger) Summarize() Summary {
	totalPayable := l.emi * float64(l.terms.TenureMonths)
	return Summary{
		Principal:         l.terms.Principal,
		AnnualRatePercent: l.terms.AnnualRatePercent,
		TenureMonths:      l.terms.TenureMonths,
		EMI:               l.emi,
		TotalInterest:     totalPayable - l.terms.Principal,
		TotalPayable:      totalPayable,
		PaymentsMade:      l.paymentsMade,
		TotalPaid:         l.totalPaid,
		BalanceRemaining:  l.balanceRemaining,
		ProgressPercent:   mathutil.CalculatePercentage(float64(l.paymentsMade), float64(l.terms.TenureMonths)),
		Cleared:           l.Cleared(),
	}
}

// Schedule models the first numPeriods installments starting from the
// original principal. It never reads or mutates the live balance, and the
// modeled balance is not clamped. Each iteration recomputes from the terms.
func (l *Ledger) Schedule(numPeriods int) iter.Seq[ScheduleRow] {
	terms, emi := l.terms, l.emi
	return func(yield func(ScheduleRow) bool) {
		balance := terms.Principal
		monthlyRate := terms.MonthlyRate()
		for period := 1; period <= numPeriods; period++ {
			step := loans.Step(balance, monthlyRate, emi)
			balance = step.BalanceAfter
			if !yield(ScheduleRow{
				Period:       period,
				EMI:          emi,
				Interest:     step.Interest,
				Principal:    step.Principal,
				BalanceAfter: step.BalanceAfter,
			}) {
				return
			}
		}
	}
}

// GenerateSchedule collects the first numPeriods rows of Schedule.
func (l *Ledger) GenerateSchedule(numPeriods int) []ScheduleRow {
	if numPeriods <= 0 {
		return []ScheduleRow{}
	}
	rows := make([]ScheduleRow, 0, numPeriods)
	for row := range l.Schedule(numPeriods) {
		rows = append(rows, row)
	}
	return rows
}
