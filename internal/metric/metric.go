// Package metric defines the Prometheus instrumentation shared by the
// pipeline components. The registry is owned by the caller; no exposition
// endpoint lives in this module.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the pipeline counters.
type Metrics struct {
	Published     *prometheus.CounterVec
	Consumed      *prometheus.CounterVec
	Enriched      prometheus.Counter
	EnrichFailed  prometheus.Counter
	Notifications prometheus.Counter
}

// New registers the pipeline counters on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendstream_messages_published_total",
			Help: "Messages published to the bus, by source.",
		}, []string{"source"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendstream_messages_consumed_total",
			Help: "Messages handled by a consumer group.",
		}, []string{"group"}),
		Enriched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendstream_records_enriched_total",
			Help: "Records that received a terminal enrichment result.",
		}),
		EnrichFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendstream_enrichment_failed_total",
			Help: "Records whose enrichment degraded to the failure sentinel.",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendstream_notifications_sent_total",
			Help: "Keyword notifications delivered.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Published, m.Consumed, m.Enriched, m.EnrichFailed, m.Notifications)
	}

	return m
}
