package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PoliciesPurchased prometheus.Counter
	InsuredAmount     prometheus.Counter
	Settlements       prometheus.Counter
	CreditedAmount    prometheus.Counter
	Withdrawals       *prometheus.CounterVec
	WithdrawnAmount   prometheus.Counter
	TransferDuration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PoliciesPurchased: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_policies_purchased_total",
			Help: "Insurance policies appended to a policy key",
		}),
		InsuredAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_policies_insured_amount_total",
			Help: "Sum of insured amounts across purchased policies",
		}),
		Settlements: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_settlements_total",
			Help: "CreditInsurees calls that settled at least one policy",
		}),
		CreditedAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_credited_amount_total",
			Help: "Total payout credited to insuree balances",
		}),
		Withdrawals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_withdrawals_total",
			Help: "Withdrawal attempts by outcome",
		}, []string{"outcome"}),
		WithdrawnAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_withdrawn_amount_total",
			Help: "Amount transferred out through completed withdrawals",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flightsurety_settlement_transfer_duration_seconds",
			Help:    "Duration of settlement channel transfers",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementPoliciesPurchased(amount uint64) {
	m.PoliciesPurchased.Inc()
	m.InsuredAmount.Add(float64(amount))
}

func (m *Metrics) IncrementSettlements(total uint64) {
	m.Settlements.Inc()
	m.CreditedAmount.Add(float64(total))
}

// IncrementWithdrawal records one withdrawal outcome: completed, failed or
// no_credits.
func (m *Metrics) IncrementWithdrawal(outcome string, amount uint64) {
	m.Withdrawals.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		m.WithdrawnAmount.Add(float64(amount))
	}
}

func (m *Metrics) ObserveTransfer(d time.Duration) {
	m.TransferDuration.Observe(d.Seconds())
}
