package engine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smashsend/smashsend-go/internal/core"
)

// Metrics holds the Prometheus collectors of an engine. A nil *Metrics records nothing.
type Metrics struct {
	Attempts *prometheus.CounterVec
	Retries  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "smashsend"
	}
	factory := promauto.With(reg)

	return &Metrics{
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP attempts by method and status",
			},
			[]string{"method", "status"},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retries by reason",
			},
			[]string{"reason"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP attempt latency histogram",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~41s
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) observeAttempt(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(method, status).Inc()
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeRetry(kind core.ErrorKind) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(kind.String()).Inc()
}

func statusLabel(code int) string {
	return strconv.Itoa(code)
}
