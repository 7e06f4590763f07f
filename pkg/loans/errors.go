package loans

import "errors"

// Error kinds reported by the amortization engine. Callers match them with
// errors.Is; engine functions wrap them with the offending detail.
var (
	// ErrInvalidInput reports non-positive principal or tenure, a negative
	// rate, or a non-finite value.
	ErrInvalidInput = errors.New("invalid loan input")

	// ErrNoActiveLoan reports a ledger operation invoked before setup.
	ErrNoActiveLoan = errors.New("no active loan")

	// ErrLoanAlreadyCleared reports a payment against a paid-off loan.
	ErrLoanAlreadyCleared = errors.New("loan already cleared")

	// ErrLoanExists reports a setup that would replace an active loan
	// without the caller confirming the overwrite.
	ErrLoanExists = errors.New("loan already active")
)
