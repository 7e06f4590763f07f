package ledger

import (
	"fmt"
	"sync"

	"github.com/iwvelando/loan-tracker/pkg/loans"
	"go.uber.org/zap"
)

// Tracker holds at most one active loan. Before the first successful Setup
// there is no ledger and every loan operation fails with
// loans.ErrNoActiveLoan. All methods are serialized so a payment's split and
// balance update are never interleaved with another call.
type Tracker struct {
	mu           sync.Mutex
	logger       *zap.Logger
	tenurePolicy TenurePolicy
	ledger       *Ledger
}

// NewTracker creates a tracker with no active loan.
func NewTracker(logger *zap.Logger, tenurePolicy TenurePolicy) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tenurePolicy == "" {
		tenurePolicy = TenureRound
	}
	return &Tracker{logger: logger, tenurePolicy: tenurePolicy}
}

// Active reports whether a loan has been set up.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger != nil
}

// Setup creates a new loan. An active loan is only replaced when overwrite is
// true. Invalid input leaves any existing loan untouched.
func (t *Tracker) Setup(principal, annualRatePercent, tenureYears float64, overwrite bool) (Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger != nil && !overwrite {
		return Summary{}, fmt.Errorf("%w: confirm overwrite to replace it", loans.ErrLoanExists)
	}

	l, err := NewLedger(t.logger, principal, annualRatePercent, tenureYears, WithTenurePolicy(t.tenurePolicy))
	if err != nil {
		t.logger.Debug("rejected loan setup",
			zap.String("op", "ledger.Setup"),
			zap.Error(err),
		)
		return Summary{}, err
	}

	if t.ledger != nil {
		t.logger.Info("replacing active loan",
			zap.String("op", "ledger.Setup"),
			zap.Int("previous_payments_made", t.ledger.paymentsMade),
		)
	}
	t.ledger = l

	t.logger.Info("loan activated",
		zap.String("op", "ledger.Setup"),
		zap.Float64("principal", principal),
		zap.Float64("annual_rate_percent", annualRatePercent),
		zap.Int("tenure_months", l.terms.TenureMonths),
		zap.Float64("emi", l.emi),
	)
	return l.Summarize(), nil
}

// ApplyPayment applies one installment to the active loan.
func (t *Tracker) ApplyPayment() (PaymentResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger == nil {
		return PaymentResult{}, loans.ErrNoActiveLoan
	}
	return t.ledger.ApplyPayment()
}

// Summarize returns a snapshot of the active loan.
func (t *Tracker) Summarize() (Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger == nil {
		return Summary{}, loans.ErrNoActiveLoan
	}
	return t.ledger.Summarize(), nil
}

// GenerateSchedule previews the first numPeriods installments of the active loan.
func (t *Tracker) GenerateSchedule(numPeriods int) ([]ScheduleRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger == nil {
		return nil, loans.ErrNoActiveLoan
	}
	return t.ledger.GenerateSchedule(numPeriods), nil
}
