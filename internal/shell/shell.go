// Package shell implements the interactive menu around a loan tracker. It
// parses and prompts; all loan arithmetic lives in the ledger.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-tracker/internal/ledger"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/output"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errInvalidNumber = errors.New("not a number")

// Options configures a Shell.
type Options struct {
	PreviewPeriods int
	OutputFormat   string
}

// Shell runs the menu loop against one tracker.
type Shell struct {
	logger  *zap.Logger
	tracker *ledger.Tracker
	in      *bufio.Reader
	out     io.Writer
	opts    Options
	printer *message.Printer
}

// New creates a shell reading from in and writing to out.
func New(logger *zap.Logger, tracker *ledger.Tracker, in io.Reader, out io.Writer, opts Options) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PreviewPeriods <= 0 {
		opts.PreviewPeriods = constants.DefaultPreviewPeriods
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = constants.OutputFormatPretty
	}
	return &Shell{
		logger:  logger,
		tracker: tracker,
		in:      bufio.NewReader(in),
		out:     out,
		opts:    opts,
		printer: message.NewPrinter(language.English),
	}
}

// Run shows the menu until the user exits or input ends.
func (s *Shell) Run() error {
	for {
		s.printMenu()
		choice, err := s.prompt("Enter Choice (1-5): ")
		if err != nil {
			return s.endOfInput(err)
		}

		switch choice {
		case "1":
			err = s.setup()
		case "2":
			s.summary()
		case "3":
			err = s.payment()
		case "4":
			s.preview()
		case "5":
			s.println("\nGoodbye! Exiting...")
			return nil
		default:
			s.println("Invalid Choice!")
		}
		if err != nil {
			return s.endOfInput(err)
		}
	}
}

func (s *Shell) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		s.logger.Debug("input closed, leaving menu", zap.String("op", "shell.Run"))
		return nil
	}
	return err
}

func (s *Shell) printMenu() {
	s.println("\n" + strings.Repeat("=", 50))
	s.println("LOAN EMI CALCULATOR & TRACKER")
	s.println(strings.Repeat("=", 50))
	s.println("1. Setup New Loan")
	s.println("2. View Loan Summary")
	s.println("3. Make EMI Payment")
	s.println(fmt.Sprintf("4. Amortization Preview (first %d months)", s.opts.PreviewPeriods))
	s.println("5. Exit")
	s.println(strings.Repeat("=", 50))
}

func (s *Shell) setup() error {
	s.println("\n--- NEW LOAN SETUP ---")

	overwrite := false
	if s.tracker.Active() {
		s.println("You already have an active loan!")
		confirmed, err := s.confirm("Overwrite current loan? (yes/no): ")
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		overwrite = true
	}

	principal, err := s.promptNumber("Enter Principal Amount: ")
	if err != nil {
		return s.numberError(err)
	}
	rate, err := s.promptNumber("Enter Annual Interest Rate (%): ")
	if err != nil {
		return s.numberError(err)
	}
	years, err := s.promptNumber("Enter Tenure (Years): ")
	if err != nil {
		return s.numberError(err)
	}

	summary, err := s.tracker.Setup(principal, rate, years, overwrite)
	if err != nil {
		if errors.Is(err, loans.ErrInvalidInput) {
			s.println("Invalid input! Values must be positive.")
			s.logger.Debug("setup rejected", zap.String("op", "shell.setup"), zap.Error(err))
			return nil
		}
		return err
	}

	s.println("\nLOAN ACTIVATED SUCCESSFULLY!")
	s.println(s.printer.Sprintf("   Calculated EMI: %.2f / month over %d months", summary.EMI, summary.TenureMonths))
	return nil
}

func (s *Shell) numberError(err error) error {
	if errors.Is(err, errInvalidNumber) {
		s.println("Invalid input! Please enter numbers only.")
		return nil
	}
	return err
}

func (s *Shell) summary() {
	summary, err := s.tracker.Summarize()
	if err != nil {
		s.println("No active loan found. Please setup a loan first.")
		return
	}
	s.println("")
	output.PrettySummary(s.out, summary)
}

func (s *Shell) payment() error {
	s.println("\n--- MAKE PAYMENT ---")

	summary, err := s.tracker.Summarize()
	if err != nil {
		s.println("No active loan to pay for.")
		return nil
	}
	if summary.Cleared {
		s.println("Loan is already fully paid off!")
		return nil
	}

	s.println(s.printer.Sprintf("EMI Due: %.2f", summary.EMI))
	confirmed, err := s.confirm("Confirm payment? (yes/no): ")
	if err != nil {
		return err
	}
	if !confirmed {
		s.println("Payment cancelled.")
		return nil
	}

	result, err := s.tracker.ApplyPayment()
	switch {
	case errors.Is(err, loans.ErrLoanAlreadyCleared):
		s.println("Loan is already fully paid off!")
		return nil
	case err != nil:
		return err
	}

	s.println("\nPayment Successful!")
	output.PrettyPayment(s.out, result)
	if result.NewBalance <= constants.ClearedBalanceEpsilon {
		s.println("Loan fully paid off!")
	}
	return nil
}

func (s *Shell) preview() {
	rows, err := s.tracker.GenerateSchedule(s.opts.PreviewPeriods)
	if err != nil {
		s.println("No active loan.")
		return
	}

	s.println(fmt.Sprintf("\n--- AMORTIZATION PREVIEW (First %d Months) ---", s.opts.PreviewPeriods))
	if s.opts.OutputFormat == constants.OutputFormatCSV {
		output.CsvSchedule(s.out, rows)
		return
	}
	output.PrettySchedule(s.out, rows)
	s.println("NOTE: Interest decreases and principal increases each month.")
}

func (s *Shell) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Shell) promptNumber(label string) (float64, error) {
	text, err := s.prompt(label)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumber, text)
	}
	return value, nil
}

func (s *Shell) confirm(label string) (bool, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "yes"), nil
}

func (s *Shell) println(text string) {
	_, _ = fmt.Fprintln(s.out, text)
}
