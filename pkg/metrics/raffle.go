package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RaffleMetrics records purchase and draw outcomes.
type RaffleMetrics struct {
	purchases    *prometheus.CounterVec
	ticketsSold  prometheus.Counter
	drawDuration prometheus.Histogram
	drawsTotal   *prometheus.CounterVec
}

// NewRaffleMetrics registers the raffle metrics on the provided registerer.
func NewRaffleMetrics(reg prometheus.Registerer) *RaffleMetrics {
	if reg == nil {
		return &RaffleMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_purchases_total",
		Help: "Ticket purchase attempts by outcome.",
	}, []string{"outcome"})
	ticketsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "raffle_tickets_sold_total",
		Help: "Tickets successfully purchased.",
	})
	drawDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raffle_draw_duration_seconds",
		Help:    "Duration of winner draws in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	drawsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_draws_total",
		Help: "Winner draws by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(purchases, ticketsSold, drawDuration, drawsTotal)
	return &RaffleMetrics{
		purchases:    purchases,
		ticketsSold:  ticketsSold,
		drawDuration: drawDuration,
		drawsTotal:   drawsTotal,
	}
}

// ObservePurchase records one purchase attempt and, on success, the tickets sold.
func (m *RaffleMetrics) ObservePurchase(outcome string, tickets int) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.WithLabelValues(normalizeLabel(outcome)).Inc()
	if outcome == OutcomeSuccess && tickets > 0 {
		m.ticketsSold.Add(float64(tickets))
	}
}

// ObserveDraw records one draw attempt with its duration.
func (m *RaffleMetrics) ObserveDraw(outcome string, duration time.Duration) {
	if m == nil || m.drawsTotal == nil {
		return
	}
	m.drawsTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
	if outcome == OutcomeSuccess {
		m.drawDuration.Observe(duration.Seconds())
	}
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
