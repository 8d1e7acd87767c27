package capture

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the capture loop's Prometheus counters/gauges, pure
// observability side effects that never influence dispatch order or
// control flow. The loop updates FramesDecoded and FramesDropped;
// SubscriberGauge is registered but the loop does not set it, so it
// reports 0.
type Metrics struct {
	FramesDecoded   prometheus.Counter
	FramesDropped   *prometheus.CounterVec
	SubscriberGauge prometheus.Gauge
}

// NewMetrics registers the capture loop's metrics against reg. Passing a
// fresh prometheus.NewRegistry() in tests avoids the global default
// registry's duplicate-registration panics across test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dofuscap_frames_decoded_total",
			Help: "Total number of application frames successfully decoded.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dofuscap_frames_dropped_total",
			Help: "Total number of frames dropped, labeled by reason.",
		}, []string{"reason"}),
		SubscriberGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dofuscap_subscribers_gauge",
			Help: "Current number of distinct subscribed message ids.",
		}),
	}
	reg.MustRegister(m.FramesDecoded, m.FramesDropped, m.SubscriberGauge)
	return m
}
