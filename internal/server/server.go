// Package server exposes a loan tracker over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/loan-tracker/internal/ledger"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	logger         *zap.Logger
	tracker        *ledger.Tracker
	maxBodySize    int64
	previewPeriods int
	version        string
	metrics        *metrics
}

// Options tunes the handler.
type Options struct {
	MaxBodySize    int64
	PreviewPeriods int
	Version        string
	// Registry receives the handler's metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// NewHandler constructs the HTTP handler that serves the loan API.
func NewHandler(logger *zap.Logger, tracker *ledger.Tracker, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.PreviewPeriods <= 0 {
		opts.PreviewPeriods = constants.DefaultPreviewPeriods
	}
	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	h := &handler{
		logger:         logger,
		tracker:        tracker,
		maxBodySize:    opts.MaxBodySize,
		previewPeriods: opts.PreviewPeriods,
		version:        trimmedVersion,
		metrics:        newMetrics(opts.Registry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/loan", h.handleLoan)
	mux.HandleFunc("/api/loan/payments", h.handlePayment)
	mux.HandleFunc("/api/loan/schedule", h.handleSchedule)
	mux.HandleFunc("/api/version", h.handleVersion)
	mux.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	return mux
}

type setupRequest struct {
	Principal         *float64 `json:"principal"`
	AnnualRatePercent *float64 `json:"annualRatePercent"`
	TenureYears       *float64 `json:"tenureYears"`
	Overwrite         bool     `json:"overwrite"`
}

type summaryResponse struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TenureMonths      int     `json:"tenureMonths"`
	EMI               float64 `json:"emi"`
	TotalInterest     float64 `json:"totalInterest"`
	TotalPayable      float64 `json:"totalPayable"`
	PaymentsMade      int     `json:"paymentsMade"`
	TotalPaid         float64 `json:"totalPaid"`
	BalanceRemaining  float64 `json:"balanceRemaining"`
	ProgressPercent   float64 `json:"progressPercent"`
	Cleared           bool    `json:"cleared"`
}

type paymentResponse struct {
	Period        int     `json:"period"`
	InterestPaid  float64 `json:"interestPaid"`
	PrincipalPaid float64 `json:"principalPaid"`
	NewBalance    float64 `json:"newBalance"`
}

type scheduleResponse struct {
	Periods int           `json:"periods"`
	Rows    []scheduleRow `json:"rows"`
}

type scheduleRow struct {
	Period       int     `json:"period"`
	EMI          float64 `json:"emi"`
	Interest     float64 `json:"interest"`
	Principal    float64 `json:"principal"`
	BalanceAfter float64 `json:"balanceAfter"`
}

func (h *handler) handleLoan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		summary, err := h.tracker.Summarize()
		if err != nil {
			h.respondEngineError(w, err, "server.handleLoan")
			return
		}
		h.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
	case http.MethodPost:
		h.handleSetup(w, r)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), "server.handleSetup")
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode loan: %v", err), "server.handleSetup")
		return
	}
	if req.Principal == nil || req.AnnualRatePercent == nil || req.TenureYears == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			"principal, annualRatePercent and tenureYears are required", "server.handleSetup")
		return
	}

	summary, err := h.tracker.Setup(*req.Principal, *req.AnnualRatePercent, *req.TenureYears, req.Overwrite)
	if err != nil {
		h.respondEngineError(w, err, "server.handleSetup")
		return
	}

	h.metrics.setups.Inc()
	h.metrics.balanceRemaining.Set(summary.BalanceRemaining)
	h.writeJSON(w, http.StatusCreated, toSummaryResponse(summary))
}

func (h *handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	result, err := h.tracker.ApplyPayment()
	if err != nil {
		h.respondEngineError(w, err, "server.handlePayment")
		return
	}

	h.metrics.payments.Inc()
	h.metrics.balanceRemaining.Set(result.NewBalance)
	h.writeJSON(w, http.StatusOK, paymentResponse{
		Period:        result.Period,
		InterestPaid:  result.InterestPaid,
		PrincipalPaid: result.PrincipalPaid,
		NewBalance:    result.NewBalance,
	})
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	periods := h.previewPeriods
	if raw := strings.TrimSpace(r.URL.Query().Get("periods")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid periods %q", raw), "server.handleSchedule")
			return
		}
		if err := validation.ValidatePreviewPeriods(parsed); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleSchedule")
			return
		}
		periods = parsed
	}

	rows, err := h.tracker.GenerateSchedule(periods)
	if err != nil {
		h.respondEngineError(w, err, "server.handleSchedule")
		return
	}

	resp := scheduleResponse{Periods: periods, Rows: make([]scheduleRow, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, scheduleRow(row))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func toSummaryResponse(s ledger.Summary) summaryResponse {
	return summaryResponse{
		Principal:         s.Principal,
		AnnualRatePercent: s.AnnualRatePercent,
		TenureMonths:      s.TenureMonths,
		EMI:               s.EMI,
		TotalInterest:     s.TotalInterest,
		TotalPayable:      s.TotalPayable,
		PaymentsMade:      s.PaymentsMade,
		TotalPaid:         s.TotalPaid,
		BalanceRemaining:  s.BalanceRemaining,
		ProgressPercent:   s.ProgressPercent,
		Cleared:           s.Cleared,
	}
}

func (h *handler) respondEngineError(w http.ResponseWriter, err error, op string) {
	h.metrics.recordError(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, loans.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, loans.ErrNoActiveLoan):
		status = http.StatusNotFound
	case errors.Is(err, loans.ErrLoanExists), errors.Is(err, loans.ErrLoanAlreadyCleared):
		status = http.StatusConflict
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, message, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.String("op", op))
	} else {
		h.logger.Debug(message, zap.String("op", op), zap.Int("status", status))
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
