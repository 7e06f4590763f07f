package server

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/loan-tracker/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (http.Handler, *ledger.Tracker) {
	t.Helper()
	tracker := ledger.NewTracker(zap.NewNop(), ledger.TenureRound)
	return NewHandler(zap.NewNop(), tracker, Options{Version: "test"}), tracker
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleSetupSuccess(t *testing.T) {
	h, tracker := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/loan", `{"principal":100000,"annualRatePercent":10,"tenureYears":1}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(resp.EMI-8791.59) > 0.01 {
		t.Errorf("expected EMI ~8791.59, got %v", resp.EMI)
	}
	if resp.TenureMonths != 12 || resp.BalanceRemaining != 100000 {
		t.Errorf("unexpected summary %+v", resp)
	}
	if !tracker.Active() {
		t.Error("expected tracker to hold the loan")
	}
}

func TestHandleSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Malformed JSON", `{"principal":`, http.StatusBadRequest},
		{"Missing field", `{"principal":1000,"annualRatePercent":5}`, http.StatusBadRequest},
		{"Negative principal", `{"principal":-1,"annualRatePercent":5,"tenureYears":1}`, http.StatusBadRequest},
		{"Negative rate", `{"principal":1000,"annualRatePercent":-5,"tenureYears":1}`, http.StatusBadRequest},
		{"Zero tenure", `{"principal":1000,"annualRatePercent":5,"tenureYears":0}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tracker := newTestHandler(t)
			rr := do(t, h, http.MethodPost, "/api/loan", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tracker.Active() {
				t.Error("expected no loan after rejected setup")
			}
			if !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("expected error payload, got %s", rr.Body.String())
			}
		})
	}
}

func TestHandleSetupBodyTooLarge(t *testing.T) {
	tracker := ledger.NewTracker(zap.NewNop(), ledger.TenureRound)
	h := NewHandler(zap.NewNop(), tracker, Options{MaxBodySize: 16})

	rr := do(t, h, http.MethodPost, "/api/loan", `{"principal":100000,"annualRatePercent":10,"tenureYears":1}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleSetupOverwrite(t *testing.T) {
	h, _ := newTestHandler(t)
	setup := `{"principal":100000,"annualRatePercent":10,"tenureYears":1}`

	if rr := do(t, h, http.MethodPost, "/api/loan", setup); rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/loan", setup); rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409 without overwrite, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/api/loan", `{"principal":120000,"annualRatePercent":0,"tenureYears":2,"overwrite":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201 with overwrite, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp summaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.EMI != 5000 {
		t.Errorf("expected EMI 5000, got %v", resp.EMI)
	}
}

func TestHandleNoActiveLoan(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/loan"},
		{http.MethodPost, "/api/loan/payments"},
		{http.MethodGet, "/api/loan/schedule"},
	} {
		rr := do(t, h, tc.method, tc.target, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected status 404, got %d", tc.method, tc.target, rr.Code)
		}
	}
}

func TestHandlePaymentsUntilCleared(t *testing.T) {
	h, _ := newTestHandler(t)
	if rr := do(t, h, http.MethodPost, "/api/loan", `{"principal":1200,"annualRatePercent":0,"tenureYears":0.25}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	for i := 1; i <= 3; i++ {
		rr := do(t, h, http.MethodPost, "/api/loan/payments", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("payment %d: expected status 200, got %d", i, rr.Code)
		}
		var resp paymentResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Period != i || resp.PrincipalPaid != 400 {
			t.Errorf("payment %d: unexpected result %+v", i, resp)
		}
	}

	rr := do(t, h, http.MethodPost, "/api/loan/payments", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for cleared loan, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/loan", "")
	var summary summaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !summary.Cleared || summary.PaymentsMade != 3 || summary.TotalPaid != 1200 {
		t.Errorf("unexpected summary after payoff %+v", summary)
	}
}

func TestHandleSchedule(t *testing.T) {
	h, _ := newTestHandler(t)
	if rr := do(t, h, http.MethodPost, "/api/loan", `{"principal":100000,"annualRatePercent":10,"tenureYears":1}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodGet, "/api/loan/schedule", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp scheduleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Periods != 5 || len(resp.Rows) != 5 {
		t.Fatalf("expected 5 default rows, got %d", len(resp.Rows))
	}
	if math.Abs(resp.Rows[0].Interest-833.33) > 0.01 {
		t.Errorf("expected first interest ~833.33, got %v", resp.Rows[0].Interest)
	}

	rr = do(t, h, http.MethodGet, "/api/loan/schedule?periods=12", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Rows) != 12 {
		t.Errorf("expected 12 rows, got %d", len(resp.Rows))
	}

	for _, bad := range []string{"abc", "0", "-4", "100000"} {
		if rr := do(t, h, http.MethodGet, "/api/loan/schedule?periods="+bad, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("periods=%s: expected status 400, got %d", bad, rr.Code)
		}
	}

	rr = do(t, h, http.MethodGet, "/api/loan", "")
	var summary summaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.PaymentsMade != 0 || summary.BalanceRemaining != 100000 {
		t.Errorf("schedule mutated loan: %+v", summary)
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodDelete, "/api/loan"},
		{http.MethodGet, "/api/loan/payments"},
		{http.MethodPost, "/api/loan/schedule"},
		{http.MethodPost, "/api/version"},
	} {
		if rr := do(t, h, tc.method, tc.target, ""); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status 405, got %d", tc.method, tc.target, rr.Code)
		}
	}
}

func TestHandleVersion(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, http.MethodGet, "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"version":"test"`) {
		t.Errorf("unexpected version payload %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	tracker := ledger.NewTracker(zap.NewNop(), ledger.TenureRound)
	h := NewHandler(zap.NewNop(), tracker, Options{Registry: registry})

	do(t, h, http.MethodPost, "/api/loan/payments", "")
	do(t, h, http.MethodPost, "/api/loan", `{"principal":100000,"annualRatePercent":10,"tenureYears":1}`)
	do(t, h, http.MethodPost, "/api/loan/payments", "")

	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"loan_tracker_setups_total 1",
		"loan_tracker_payments_total 1",
		`loan_tracker_engine_errors_total{kind="no_active_loan"} 1`,
		"loan_tracker_balance_remaining",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %q\n%s", want, body)
		}
	}
}
