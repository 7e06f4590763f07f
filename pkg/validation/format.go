// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-tracker/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateTenurePolicy checks if the tenure conversion policy is supported.
func ValidateTenurePolicy(policy string) error {
	if policy != constants.TenurePolicyRound && policy != constants.TenurePolicyTruncate {
		return fmt.Errorf("expected tenure policy of %s or %s, got %s",
			constants.TenurePolicyRound, constants.TenurePolicyTruncate, policy)
	}
	return nil
}

// ValidatePreviewPeriods checks that a preview length is within the supported range.
func ValidatePreviewPeriods(periods int) error {
	if periods < 1 || periods > constants.MaxPreviewPeriods {
		return fmt.Errorf("expected preview periods between 1 and %d, got %d",
			constants.MaxPreviewPeriods, periods)
	}
	return nil
}
