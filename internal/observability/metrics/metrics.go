package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "aurora"
	subsystem = "relay"
)

// RelayMetrics exposes counters/histograms for the webhook relay.
type RelayMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	completionTotal   *prometheus.CounterVec
	completionLatency prometheus.Histogram
	sweptTotal        prometheus.Counter
	reg               prometheus.Registerer
}

// NewRelayMetrics registers the relay collectors on reg, or on the default
// registerer when reg is nil.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Evolution webhooks by event and outcome",
		}, []string{"event", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		completionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_total",
			Help:      "Total model completions by outcome",
		}, []string{"status"}),
		completionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_latency_seconds",
			Help:      "Latency of model completions",
			Buckets:   prometheus.DefBuckets,
		}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversations_swept_total",
			Help:      "Idle conversations removed by the sweeper",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m.reg = reg
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.completionTotal, m.completionLatency, m.sweptTotal)
	return m
}

// RegisterConversationGauge exposes the live conversation count read from fn.
func (m *RelayMetrics) RegisterConversationGauge(fn func() int) {
	if m == nil || fn == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "conversations",
		Help:      "Conversations currently held in memory",
	}, func() float64 { return float64(fn()) }))
}

func (m *RelayMetrics) ObserveInbound(event, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(event, status).Inc()
}

func (m *RelayMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveCompletion(status string, seconds float64) {
	if m == nil {
		return
	}
	m.completionTotal.WithLabelValues(status).Inc()
	m.completionLatency.Observe(seconds)
}

func (m *RelayMetrics) ObserveSweep(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.sweptTotal.Add(float64(removed))
}
