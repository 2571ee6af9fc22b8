package worker

import (
	"context"
	"sync"

	"github.com/wippyai/worker-host/errors"
)

const (
	messageBuffer = 64
	eventBuffer   = 64
)

// Handle is the thread-safe capability object bound to one worker. It is
// shared between the host (which keeps it in the worker table) and the
// worker's own thread (which holds the counterpart channel ends).
//
// Handle is safe for concurrent use for PostMessage and Terminate. GetEvent
// has exactly one consumer per worker: the host operation currently polling
// that worker's events.
type Handle struct {
	label    string
	messages chan []byte
	events   chan Event
	term     chan struct{}
	done     chan struct{}
	termOnce sync.Once
	sendMu   sync.RWMutex
	sendShut bool
}

func newHandle(label string) *Handle {
	return &Handle{
		label:    label,
		messages: make(chan []byte, messageBuffer),
		events:   make(chan Event, eventBuffer),
		term:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Label returns the worker's diagnostic label ("worker-<id>").
func (h *Handle) Label() string {
	return h.label
}

// PostMessage delivers an opaque payload into the worker's inbound queue.
// It fails with a channel_closed error once the worker has terminated or
// exited; the failure is reported to the caller, never silently dropped.
func (h *Handle) PostMessage(data []byte) error {
	h.sendMu.RLock()
	defer h.sendMu.RUnlock()

	if h.sendShut {
		return errors.ChannelClosed(h.label)
	}

	// A dead worker must be reported even when the inbound buffer still has
	// room, so check for death before attempting the send.
	select {
	case <-h.term:
		return errors.ChannelClosed(h.label)
	case <-h.done:
		return errors.ChannelClosed(h.label)
	default:
	}

	select {
	case h.messages <- data:
		return nil
	case <-h.term:
		return errors.ChannelClosed(h.label)
	case <-h.done:
		return errors.ChannelClosed(h.label)
	}
}

// GetEvent suspends until the worker produces its next event or its event
// channel closes. Events arrive in the order the worker produced them. A
// (nil, nil) return means the channel closed cleanly: the worker completed
// and the host must reclaim it.
func (h *Handle) GetEvent(ctx context.Context) (*Event, error) {
	select {
	case ev, ok := <-h.events:
		if !ok {
			return nil, nil
		}
		return &ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Terminate signals the worker's run loop to stop at its next step
// boundary. It is idempotent and does not interrupt an in-flight step.
func (h *Handle) Terminate() {
	h.termOnce.Do(func() {
		close(h.term)
	})
}

// CloseMessages shuts the inbound send side. Only the worker table's
// removal path calls this; subsequent PostMessage calls fail with a
// channel_closed error.
func (h *Handle) CloseMessages() {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	if !h.sendShut {
		h.sendShut = true
		close(h.messages)
	}
}

// Outbox is the worker-side sending end of a handle. The execution
// environment posts guest messages and recoverable errors through it.
type Outbox struct {
	events chan<- Event
	term   <-chan struct{}
}

// PostMessage queues a Message event for the host. It reports false if the
// worker was terminated before the event could be queued.
func (o *Outbox) PostMessage(data []byte) bool {
	return o.post(Message(data))
}

// PostError queues a recoverable Error event for the host.
func (o *Outbox) PostError(err error) bool {
	return o.post(ErrorEvent(err))
}

func (o *Outbox) post(ev Event) bool {
	select {
	case o.events <- ev:
		return true
	case <-o.term:
		return false
	}
}
