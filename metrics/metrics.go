// Package metrics exposes Prometheus instrumentation for the worker host.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the host's collectors. A nil Recorder is valid and records
// nothing, so callers never need to guard instrumentation sites.
type Recorder struct {
	workersCreated   prometheus.Counter
	workersReclaimed prometheus.Counter
	workersLive      prometheus.Gauge
	eventsDelivered  *prometheus.CounterVec
	messageBytes     prometheus.Counter
}

// NewRecorder registers the host collectors on reg and returns a Recorder.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		workersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workerhost",
			Name:      "workers_created_total",
			Help:      "Workers successfully created.",
		}),
		workersReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workerhost",
			Name:      "workers_reclaimed_total",
			Help:      "Workers whose table entry was removed and thread joined.",
		}),
		workersLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workerhost",
			Name:      "workers_live",
			Help:      "Workers currently present in the host table.",
		}),
		eventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workerhost",
			Name:      "events_delivered_total",
			Help:      "Worker events delivered to the host, by outward type.",
		}, []string{"type"}),
		messageBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workerhost",
			Name:      "message_bytes_total",
			Help:      "Payload bytes posted from the host to workers.",
		}),
	}
}

// Live returns the live-workers gauge for status surfaces.
func (r *Recorder) Live() prometheus.Gauge {
	return r.workersLive
}

// WorkerCreated records a successful creation.
func (r *Recorder) WorkerCreated() {
	if r == nil {
		return
	}
	r.workersCreated.Inc()
	r.workersLive.Inc()
}

// WorkerReclaimed records a table removal with joined thread.
func (r *Recorder) WorkerReclaimed() {
	if r == nil {
		return
	}
	r.workersReclaimed.Inc()
	r.workersLive.Dec()
}

// EventDelivered records one delivered event by outward type.
func (r *Recorder) EventDelivered(eventType string) {
	if r == nil {
		return
	}
	r.eventsDelivered.WithLabelValues(eventType).Inc()
}

// MessagePosted records an outbound host-to-worker payload.
func (r *Recorder) MessagePosted(bytes int) {
	if r == nil {
		return
	}
	r.messageBytes.Add(float64(bytes))
}
