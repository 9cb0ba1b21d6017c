// Package metrics exposes prometheus instruments for the wager service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Wager groups the wager service instruments. A nil *Wager records nothing.
type Wager struct {
	betsPlaced     prometheus.Counter
	amountStaked   prometheus.Counter
	rejections     *prometheus.CounterVec
	settlements    *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	amountCredited prometheus.Counter
	settleDuration prometheus.Histogram
}

// NewRegistry returns a registry preloaded with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewWager creates and registers the wager instruments
func NewWager(reg prometheus.Registerer) *Wager {
	m := &Wager{
		betsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "bets_placed_total",
			Help:      "Wagers accepted into the round ledger.",
		}),
		amountStaked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "amount_staked_total",
			Help:      "Currency debited for accepted wagers.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "bets_rejected_total",
			Help:      "Refused bets by reason.",
		}, []string{"reason"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "rounds_settled_total",
			Help:      "Round end notifications by winner.",
		}, []string{"winner"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "wager_outcomes_total",
			Help:      "Settled wagers by result (win, loss, skipped, failed).",
		}, []string{"result"}),
		amountCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "players_bet",
			Name:      "amount_credited_total",
			Help:      "Currency paid back to winning bettors.",
		}),
		settleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "players_bet",
			Name:      "settlement_duration_seconds",
			Help:      "Time spent settling a round.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(
		m.betsPlaced,
		m.amountStaked,
		m.rejections,
		m.settlements,
		m.outcomes,
		m.amountCredited,
		m.settleDuration,
	)
	return m
}

func (m *Wager) BetPlaced(stake int64) {
	if m == nil {
		return
	}
	m.betsPlaced.Inc()
	m.amountStaked.Add(float64(stake))
}

func (m *Wager) BetRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Wager) Outcome(result string, credited int64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(result).Inc()
	if credited > 0 {
		m.amountCredited.Add(float64(credited))
	}
}

func (m *Wager) RoundSettled(winner string, took time.Duration) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(winner).Inc()
	m.settleDuration.Observe(took.Seconds())
}

// Handler serves the registry in the prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
