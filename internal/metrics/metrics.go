package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	webhookEventsTotal     *prometheus.CounterVec
	withdrawalsTotal       *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
}

// New registers collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		webhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vendor_invoicing",
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Webhook events partitioned by event kind and reconciliation outcome.",
			},
			[]string{"event", "outcome"},
		),
		withdrawalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vendor_invoicing",
				Subsystem: "wallet",
				Name:      "withdrawals_total",
				Help:      "Withdrawal requests partitioned by result.",
			},
			[]string{"result"},
		),
		gatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vendor_invoicing",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency of payment gateway calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vendor_invoicing",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests partitioned by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vendor_invoicing",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) ObserveWebhookEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.webhookEventsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveWithdrawal(result string) {
	if m == nil {
		return
	}
	m.withdrawalsTotal.WithLabelValues(result).Inc()
}

// ObserveGatewayRequest records the time elapsed since start for op.
func (m *Metrics) ObserveGatewayRequest(op string, start time.Time) {
	if m == nil {
		return
	}
	m.gatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveHTTPRequest records one served request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
