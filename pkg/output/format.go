// Package output provides utilities for formatting and displaying loan records.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/iwvelando/loan-tracker/internal/ledger"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProgressBarWidth is the number of cells in the summary progress bar.
const ProgressBarWidth = 20

const rule = "------------------------------------------------------------"

// Amount renders a value rounded half away from zero to two decimal places.
func Amount(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(constants.DecimalPlaces)
}

// ProgressBar renders percent as a fixed-width bar. Values outside 0-100
// render as an empty or full bar.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Floor(float64(width) * percent / constants.PercentageMultiplier))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// PrettySummary outputs a human-readable loan summary.
func PrettySummary(w io.Writer, summary ledger.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Principal Amount", p.Sprintf("%.2f", summary.Principal))
	_, _ = fmt.Fprintf(w, "%-25s : %s%%\n", "Interest Rate", p.Sprintf("%.2f", summary.AnnualRatePercent))
	_, _ = fmt.Fprintf(w, "%-25s : %d Months\n", "Tenure", summary.TenureMonths)
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Monthly EMI", p.Sprintf("%.2f", summary.EMI))
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Total Interest Payable", p.Sprintf("%.2f", summary.TotalInterest))
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Total Cost of Loan", p.Sprintf("%.2f", summary.TotalPayable))
	_, _ = fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	_, _ = fmt.Fprintf(w, "%-25s : %d / %d\n", "Payments Made", summary.PaymentsMade, summary.TenureMonths)
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Total Paid", p.Sprintf("%.2f", summary.TotalPaid))
	_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Balance Remaining", p.Sprintf("%.2f", summary.BalanceRemaining))
	_, _ = fmt.Fprintf(w, "%-25s : |%s| %.1f%%\n", "Progress",
		ProgressBar(summary.ProgressPercent, ProgressBarWidth), summary.ProgressPercent)
	if summary.Cleared {
		_, _ = fmt.Fprintf(w, "%-25s : %s\n", "Status", "cleared")
	}
}

// PrettyPayment outputs the split of one applied installment.
func PrettyPayment(w io.Writer, result ledger.PaymentResult) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "Payment %d applied\n", result.Period)
	_, _ = fmt.Fprintf(w, "   %-15s: %s\n", "Interest Paid", p.Sprintf("%.2f", result.InterestPaid))
	_, _ = fmt.Fprintf(w, "   %-15s: %s\n", "Principal Paid", p.Sprintf("%.2f", result.PrincipalPaid))
	_, _ = fmt.Fprintf(w, "   %-15s: %s\n", "New Balance", p.Sprintf("%.2f", result.NewBalance))
}

// PrettySchedule outputs a human-readable amortization table.
func PrettySchedule(w io.Writer, rows []ledger.ScheduleRow) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "%-6s | %14s | %14s | %14s | %14s\n", "Month", "EMI", "Interest", "Principal", "Balance")
	_, _ = fmt.Fprintln(w, rule+strings.Repeat("-", 15))
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%-6d | %14s | %14s | %14s | %14s\n", row.Period,
			p.Sprintf("%.2f", row.EMI),
			p.Sprintf("%.2f", row.Interest),
			p.Sprintf("%.2f", row.Principal),
			p.Sprintf("%.2f", row.BalanceAfter))
	}
}

// CsvSchedule outputs an amortization table in comma-separated value format.
func CsvSchedule(w io.Writer, rows []ledger.ScheduleRow) {
	_, _ = fmt.Fprintf(w, `"month","emi","interest","principal","balance"`+"\n")
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, `"%d","%s","%s","%s","%s"`+"\n", row.Period,
			Amount(row.EMI), Amount(row.Interest), Amount(row.Principal), Amount(row.BalanceAfter))
	}
}
