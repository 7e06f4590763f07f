// Package loans provides the amortization math for a fixed-installment loan.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// Period holds the split of one installment and the balance it leaves.
type Period struct {
	Interest     float64
	Principal    float64
	BalanceAfter float64
}

// MonthlyRate converts an annual percentage rate into a monthly decimal rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / constants.MonthsPerYear / constants.PercentageMultiplier
}

// CalculateEMI calculates the equal monthly installment using the standard
// amortization formula. A zero rate amortizes linearly.
func CalculateEMI(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if err := ValidateTerms(principal, annualRatePercent, tenureMonths); err != nil {
		return 0, err
	}

	var emi float64
	if annualRatePercent == 0 {
		emi = principal / float64(tenureMonths)
	} else {
		monthlyRate := MonthlyRate(annualRatePercent)
		power := math.Pow(1.00+monthlyRate, float64(tenureMonths))
		if power == 1.00 {
			// The rate is below float64 resolution; amortize linearly.
			emi = principal / float64(tenureMonths)
		} else {
			emi = principal * monthlyRate * power / (power - 1.00)
		}
	}

	// Extreme rates can overflow the power term; never hand NaN or Inf upward.
	if !mathutil.IsFinite(emi) || emi <= 0 {
		return 0, fmt.Errorf("%w: installment is not computable for principal %g, rate %g%%, tenure %d months",
			ErrInvalidInput, principal, annualRatePercent, tenureMonths)
	}
	return emi, nil
}

// ValidateTerms checks the preconditions shared by every engine entry point.
func ValidateTerms(principal, annualRatePercent float64, tenureMonths int) error {
	if !mathutil.IsFinite(principal) || principal <= 0 {
		return fmt.Errorf("%w: principal must be positive, got %g", ErrInvalidInput, principal)
	}
	if !mathutil.IsFinite(annualRatePercent) || annualRatePercent < 0 {
		return fmt.Errorf("%w: annual rate must not be negative, got %g", ErrInvalidInput, annualRatePercent)
	}
	if tenureMonths <= 0 {
		return fmt.Errorf("%w: tenure must be at least one month, got %d", ErrInvalidInput, tenureMonths)
	}
	return nil
}

// SplitPayment splits an installment into its interest and principal parts
// for the given outstanding balance. It does not clamp against the balance.
func SplitPayment(balance, monthlyRate, emi float64) (interest, principal float64) {
	interest = balance * monthlyRate
	principal = emi - interest
	return interest, principal
}

// Step advances an amortization by one period. The resulting balance is not
// clamped; callers that track real money floor it at zero.
func Step(balance, monthlyRate, emi float64) Period {
	interest, principal := SplitPayment(balance, monthlyRate, emi)
	return Period{
		Interest:     interest,
		Principal:    principal,
		BalanceAfter: balance - principal,
	}
}
