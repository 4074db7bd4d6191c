package images

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts directory traffic. A nil *Metrics records nothing.
type Metrics struct {
	fetches   prometheus.Counter
	failures  prometheus.Counter
	cacheHits prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "equicenter",
			Name:      "image_fetches_total",
			Help:      "Image directory fetches issued.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "equicenter",
			Name:      "image_fetch_failures_total",
			Help:      "Image directory fetches that failed.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "equicenter",
			Name:      "image_cache_hits_total",
			Help:      "Lookups served from the cached snapshot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.failures, m.cacheHits)
	}
	return m
}

func (m *Metrics) fetch() {
	if m != nil {
		m.fetches.Inc()
	}
}

func (m *Metrics) failure() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}
