package server

import (
	"errors"

	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	setups           prometheus.Counter
	payments         prometheus.Counter
	engineErrors     *prometheus.CounterVec
	balanceRemaining prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		setups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loan_tracker_setups_total",
			Help: "Loans activated through the API.",
		}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loan_tracker_payments_total",
			Help: "Installments applied to the active loan.",
		}),
		engineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_tracker_engine_errors_total",
			Help: "Rejected loan operations by error kind.",
		}, []string{"kind"}),
		balanceRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loan_tracker_balance_remaining",
			Help: "Outstanding balance of the active loan.",
		}),
	}
	reg.MustRegister(m.setups, m.payments, m.engineErrors, m.balanceRemaining)
	return m
}

func (m *metrics) recordError(err error) {
	m.engineErrors.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, loans.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, loans.ErrNoActiveLoan):
		return "no_active_loan"
	case errors.Is(err, loans.ErrLoanAlreadyCleared):
		return "already_cleared"
	case errors.Is(err, loans.ErrLoanExists):
		return "loan_exists"
	default:
		return "internal"
	}
}
