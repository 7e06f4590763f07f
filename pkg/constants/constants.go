// Package constants provides shared constants for the loan-tracker application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places used when rendering amounts
	DecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// ClearedBalanceEpsilon is the remaining balance at or below which a loan
	// counts as paid off. It absorbs floating-point residue from the final
	// installment.
	ClearedBalanceEpsilon = 1.0
)

// Amortization preview constants
const (
	// DefaultPreviewPeriods is the number of months shown by the amortization preview
	DefaultPreviewPeriods = 5

	// MaxPreviewPeriods bounds preview requests coming from outer surfaces
	MaxPreviewPeriods = 1200
)

// Tenure conversion policies
const (
	// TenurePolicyRound rounds tenureYears*12 to the nearest month
	TenurePolicyRound = "round"

	// TenurePolicyTruncate drops any fractional month of tenureYears*12
	TenurePolicyTruncate = "truncate"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the JSON API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024
)
