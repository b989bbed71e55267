package site

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run metrics written to a node_exporter textfile.
// A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	tournaments *prometheus.CounterVec
	broadcasts  *prometheus.CounterVec
	pruned      prometheus.Counter
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tournaments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meleemajors",
			Name:      "tournaments_total",
			Help:      "Tournaments processed, by result.",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meleemajors",
			Name:      "broadcasts_total",
			Help:      "Email broadcasts scheduled, by kind and action.",
		}, []string{"kind", "action"}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meleemajors",
			Name:      "images_pruned_total",
			Help:      "Cached card images removed because no tournament uses them.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "meleemajors",
			Name:      "build_duration_seconds",
			Help:      "Duration of the last build.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "meleemajors",
			Name:      "build_last_success_timestamp_seconds",
			Help:      "Unix time of the last build that wrote the site.",
		}),
	}
	m.registry.MustRegister(m.tournaments, m.broadcasts, m.pruned, m.duration, m.lastSuccess)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func (m *Metrics) tournament(result string) {
	if m == nil {
		return
	}
	m.tournaments.WithLabelValues(result).Inc()
}

func (m *Metrics) broadcast(kind, action string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) finish(result *Result, elapsed time.Duration, now time.Time) {
	if m == nil {
		return
	}
	m.pruned.Add(float64(len(result.Pruned)))
	m.duration.Set(elapsed.Seconds())
	m.lastSuccess.Set(float64(now.Unix()))
}
