package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets minted per event",
		},
		[]string{"event_id"},
	)

	oversoldRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oversold_rejections_total",
			Help: "Purchase attempts rejected for insufficient inventory",
		},
		[]string{"event_id", "stage"},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions opened per provider",
		},
		[]string{"provider", "status"},
	)

	broadcastMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Broadcast delivery outcomes",
		},
		[]string{"outcome"},
	)

	deliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_delivery_failures_total",
			Help: "Ticket artifact deliveries that failed after issuance",
		},
		[]string{"kind"},
	)

	fulfillmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fulfillment_duration_seconds",
			Help:    "Time from payment confirmation to tickets delivered",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	redisUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_up",
			Help: "Whether the session store answers PING",
		},
	)
)

func IncTicketsIssued(eventID string, n int) {
	ticketsIssued.WithLabelValues(eventID).Add(float64(n))
}

func IncOversoldRejection(eventID, stage string) {
	oversoldRejections.WithLabelValues(eventID, stage).Inc()
}

func IncCheckoutSession(provider, status string) {
	checkoutSessions.WithLabelValues(provider, status).Inc()
}

func IncBroadcast(outcome string) {
	broadcastMessages.WithLabelValues(outcome).Inc()
}

func IncDeliveryFailure(kind string) {
	deliveryFailures.WithLabelValues(kind).Inc()
}

func ObserveFulfillment(d time.Duration) {
	fulfillmentDuration.Observe(d.Seconds())
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// Start samples runtime and dependency health until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			goroutineCount.Set(float64(runtime.NumGoroutine()))

			if m.redis == nil {
				continue
			}
			if err := m.redis.Ping(ctx).Err(); err != nil {
				redisUp.Set(0)
			} else {
				redisUp.Set(1)
			}
		}
	}
}
