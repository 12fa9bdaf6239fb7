//go:build !solution

package queuedsync

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeExclusive = "exclusive"
	modeShared    = "shared"

	pathFast   = "fast"
	pathQueued = "queued"

	reasonTimeout = "timeout"
	reasonContext = "context"
	reasonPanic   = "panic"
)

// Metrics counts synchronizer activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	acquires *prometheus.CounterVec
	parks    *prometheus.CounterVec
	cancels  *prometheus.CounterVec
	releases *prometheus.CounterVec
}

// NewMetrics creates counters labelled with the given synchronizer name and
// registers them in reg.
func NewMetrics(reg prometheus.Registerer, name string) (*Metrics, error) {
	labels := prometheus.Labels{"synchronizer": name}
	m := &Metrics{
		acquires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "qsync",
			Subsystem:   "synchronizer",
			Name:        "acquires_total",
			Help:        "Successful acquisitions by mode and path (fast or queued).",
			ConstLabels: labels,
		}, []string{"mode", "path"}),
		parks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "qsync",
			Subsystem:   "synchronizer",
			Name:        "parks_total",
			Help:        "Times a waiting goroutine was parked.",
			ConstLabels: labels,
		}, []string{"mode"}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "qsync",
			Subsystem:   "synchronizer",
			Name:        "cancellations_total",
			Help:        "Queued acquisitions abandoned by timeout, context or panic.",
			ConstLabels: labels,
		}, []string{"mode", "reason"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "qsync",
			Subsystem:   "synchronizer",
			Name:        "releases_total",
			Help:        "Releases that made the synchronizer available to waiters.",
			ConstLabels: labels,
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{m.acquires, m.parks, m.cancels, m.releases} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) acquired(mode, path string) {
	if m != nil {
		m.acquires.WithLabelValues(mode, path).Inc()
	}
}

func (m *Metrics) parked(mode string) {
	if m != nil {
		m.parks.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) cancelled(mode, reason string) {
	if m != nil {
		m.cancels.WithLabelValues(mode, reason).Inc()
	}
}

func (m *Metrics) released(mode string) {
	if m != nil {
		m.releases.WithLabelValues(mode).Inc()
	}
}
