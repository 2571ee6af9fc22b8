package worker

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventMessage is an opaque payload sent by the worker.
	EventMessage EventKind = iota
	// EventError is a recoverable script error the worker chose to surface.
	// The worker keeps running.
	EventError
	// EventTerminalError is a fatal error; the worker is dead and must be
	// reclaimed by the host.
	EventTerminalError
)

// Event is a tagged value reported by a worker to its host. It carries no
// worker identifier; the id is supplied by the table entry it came from.
type Event struct {
	Err  error
	Data []byte
	Kind EventKind
}

// Message creates a Message event with an opaque payload.
func Message(data []byte) Event {
	return Event{Kind: EventMessage, Data: data}
}

// ErrorEvent creates a non-fatal Error event.
func ErrorEvent(err error) Event {
	return Event{Kind: EventError, Err: err}
}

// TerminalError creates a fatal error event after which the worker is dead.
func TerminalError(err error) Event {
	return Event{Kind: EventTerminalError, Err: err}
}
