//go:build linux

package inotify

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	events    prometheus.Counter
	discarded *prometheus.CounterVec
	watches   prometheus.Gauge
	errors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inotify",
			Name:      "events_total",
			Help:      "Events delivered to the caller.",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inotify",
			Name:      "events_discarded_total",
			Help:      "Events read from the kernel that didn't belong to an active watch.",
		}, []string{"reason"}),
		watches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inotify",
			Name:      "watches",
			Help:      "Watches currently registered with the kernel.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inotify",
			Name:      "watch_errors_total",
			Help:      "Failed inotify_add_watch and inotify_rm_watch calls.",
		}, []string{"op"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.events, m.discarded, m.watches, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) discard(mask Flags) {
	reason := "removed"
	if mask.Has(QOverflow) {
		reason = "overflow"
	}
	m.discarded.WithLabelValues(reason).Inc()
}
