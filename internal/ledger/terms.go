// Package ledger tracks the repayment progress of a single amortizing loan.
package ledger

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// TenurePolicy selects how fractional years convert into whole months.
type TenurePolicy string

const (
	// TenureRound rounds tenureYears*12 to the nearest month.
	TenureRound TenurePolicy = constants.TenurePolicyRound

	// TenureTruncate drops the fractional month of tenureYears*12.
	TenureTruncate TenurePolicy = constants.TenurePolicyTruncate
)

// Terms are the immutable parameters of a loan.
type Terms struct {
	Principal         float64
	AnnualRatePercent float64
	TenureMonths      int
}

// Validate checks the terms against the engine preconditions.
func (t Terms) Validate() error {
	return loans.ValidateTerms(t.Principal, t.AnnualRatePercent, t.TenureMonths)
}

// MonthlyRate returns the monthly decimal rate of the terms.
func (t Terms) MonthlyRate() float64 {
	return loans.MonthlyRate(t.AnnualRatePercent)
}

// TenureMonths converts a tenure in years into months under the given policy.
// An empty policy rounds.
func TenureMonths(tenureYears float64, policy TenurePolicy) (int, error) {
	if !mathutil.IsFinite(tenureYears) || tenureYears <= 0 {
		return 0, fmt.Errorf("%w: tenure must be positive, got %g years", loans.ErrInvalidInput, tenureYears)
	}

	months := tenureYears * constants.MonthsPerYear
	var converted float64
	switch policy {
	case TenureRound, "":
		converted = math.Round(months)
	case TenureTruncate:
		converted = math.Trunc(months)
	default:
		return 0, fmt.Errorf("%w: unknown tenure policy %q", loans.ErrInvalidInput, policy)
	}

	if converted < 1 {
		return 0, fmt.Errorf("%w: tenure of %g years is shorter than one month", loans.ErrInvalidInput, tenureYears)
	}
	if converted > math.MaxInt32 {
		return 0, fmt.Errorf("%w: tenure of %g years is too long", loans.ErrInvalidInput, tenureYears)
	}
	return int(converted), nil
}
