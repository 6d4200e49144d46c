package app

import (
	"errors"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "poker"

// Metrics holds the orchestrator collectors. A nil *Metrics records nothing.
type Metrics struct {
	sessions      prometheus.Gauge
	connections   prometheus.Gauge
	operations    *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
	framesSent    prometheus.Counter
	framesDropped prometheus.Counter
	kicks         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Number of live sessions",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Number of attached client connections",
		}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Session operations by name and result",
		}, []string{"op", "result"}),
		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent inside the event loop per operation",
			Buckets:   []float64{.00001, .0001, .001, .01, .1},
		}, []string{"op"}),
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_sent_total",
			Help:      "Frames enqueued to subscribers",
		}),
		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_dropped_total",
			Help:      "Frames refused by a full subscriber buffer",
		}),
		kicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "kicks_total",
			Help:      "Connections closed by the backpressure policy",
		}),
	}
}

func (m *Metrics) observeOp(op string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
	m.opDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) observePublish(res core.PublishResult) {
	if m == nil {
		return
	}
	m.framesSent.Add(float64(res.SendTo))
	m.framesDropped.Add(float64(len(res.Dropped)))
}

func (m *Metrics) setGauges(sessions, connections int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(sessions))
	m.connections.Set(float64(connections))
}

func (m *Metrics) kicked() {
	if m == nil {
		return
	}
	m.kicks.Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errIgnored):
		return "ignored"
	case errors.Is(err, errRejected):
		return "rejected"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
