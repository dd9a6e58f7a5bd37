package taxonomy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// External request outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds Prometheus metrics for the engine. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	resolutions      prometheus.Counter
	expandedGroups   prometheus.Counter
	externalRequests *prometheus.CounterVec
	externalDuration prometheus.Histogram
}

// NewMetrics creates the engine metrics and registers them on reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taxon",
			Name:      "resolutions_total",
			Help:      "Schema resolutions served.",
		}),
		expandedGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taxon",
			Name:      "expanded_groups_total",
			Help:      "Child groups discovered by selection expansion.",
		}),
		externalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taxon",
			Name:      "external_requests_total",
			Help:      "External API option requests by outcome.",
		}, []string{"outcome"}),
		externalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taxon",
			Name:      "external_request_duration_seconds",
			Help:      "External API option request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.resolutions, m.expandedGroups, m.externalRequests, m.externalDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeResolution(expanded int) {
	if m == nil {
		return
	}
	m.resolutions.Inc()
	if expanded > 0 {
		m.expandedGroups.Add(float64(expanded))
	}
}

func (m *Metrics) observeExternal(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.externalRequests.WithLabelValues(outcome).Inc()
	m.externalDuration.Observe(elapsed.Seconds())
}
