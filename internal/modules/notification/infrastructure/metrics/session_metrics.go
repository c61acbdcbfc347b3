package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// SessionMetrics exports session events as prometheus collectors. It
// implements application.Metrics.
type SessionMetrics struct {
	connected      prometheus.Gauge
	transitions    *prometheus.CounterVec
	reconnectDelay prometheus.Histogram
	dropped        *prometheus.CounterVec
	applied        *prometheus.CounterVec
	history        *prometheus.CounterVec
}

// NewSessionMetrics registers the collectors on reg. Registering twice on the
// same registerer panics, so build one per registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	factory := promauto.With(reg)
	return &SessionMetrics{
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notification_live_connections",
			Help: "Number of sessions whose live channel is connected.",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_connection_transitions_total",
			Help: "Live channel state transitions.",
		}, []string{"from", "to"}),
		reconnectDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_reconnect_delay_seconds",
			Help:    "Backoff delays scheduled before reconnecting.",
			Buckets: []float64{1, 2, 4, 8, 16, 30},
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_frames_dropped_total",
			Help: "Incoming records discarded, by reason.",
		}, []string{"reason"}),
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_records_applied_total",
			Help: "Records added to a feed, by source.",
		}, []string{"source"}),
		history: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_history_fetches_total",
			Help: "History fetches, by result.",
		}, []string{"result"}),
	}
}

func (m *SessionMetrics) ObserveState(from, to domain.ConnectionState) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
	switch {
	case to == domain.StateConnected:
		m.connected.Inc()
	case from == domain.StateConnected:
		m.connected.Dec()
	}
}

func (m *SessionMetrics) ObserveReconnectDelay(d time.Duration) {
	m.reconnectDelay.Observe(d.Seconds())
}

func (m *SessionMetrics) ObserveDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *SessionMetrics) ObserveApplied(source string, n int) {
	m.applied.WithLabelValues(source).Add(float64(n))
}

func (m *SessionMetrics) ObserveHistory(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.history.WithLabelValues(result).Inc()
}
