package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.WorkerCreated()
	r.WorkerCreated()
	r.WorkerReclaimed()
	r.EventDelivered("msg")
	r.EventDelivered("msg")
	r.EventDelivered("terminalError")
	r.MessagePosted(10)
	r.MessagePosted(5)

	if got := testutil.ToFloat64(r.workersCreated); got != 2 {
		t.Errorf("workers_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.workersLive); got != 1 {
		t.Errorf("workers_live = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.eventsDelivered.WithLabelValues("msg")); got != 2 {
		t.Errorf("events_delivered_total{type=msg} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.messageBytes); got != 15 {
		t.Errorf("message_bytes_total = %v, want 15", got)
	}
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	r.WorkerCreated()
	r.WorkerReclaimed()
	r.EventDelivered("close")
	r.MessagePosted(1)
}
