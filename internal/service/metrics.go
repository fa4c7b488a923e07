package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors of the services
type Metrics struct {
	ObjectsSaved    *prometheus.CounterVec
	ObjectsDeleted  *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	RenderDuration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg, if given
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ObjectsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentnode",
			Name:      "objects_saved_total",
			Help:      "Number of saved objects by type.",
		}, []string{"type"}),
		ObjectsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentnode",
			Name:      "objects_deleted_total",
			Help:      "Number of deleted objects by type.",
		}, []string{"type"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentnode",
			Name:      "events_published_total",
			Help:      "Number of published object events by type and action.",
		}, []string{"type", "action"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "contentnode",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering pages.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ObjectsSaved, m.ObjectsDeleted, m.EventsPublished, m.RenderDuration)
	}
	return m
}
