package worker

import "context"

// Bootstrap carries everything an execution environment needs to come up:
// the worker's identity, its permission tier, and its initial source.
type Bootstrap struct {
	// ID is the host-allocated worker identifier.
	ID uint32
	// Label is the diagnostic name "worker-<id>". The declared Name may be
	// empty, so logs and engine-level naming use Label instead.
	Label string
	// Name is the caller-declared worker name, possibly "".
	Name string
	// Privileged grants the worker the privileged namespace: stdio access
	// and whatever else the environment reserves for trusted workers.
	Privileged bool
	// Specifier locates the worker's module when Source is nil.
	Specifier string
	// Source is inline module source. When non-nil it is evaluated directly
	// and Specifier is used only for diagnostics.
	Source []byte
	// Resolver optionally remaps Specifier before loading (import maps).
	Resolver Resolver
}

// Resolver remaps a module specifier. Implemented by importmap.Map.
type Resolver interface {
	Resolve(specifier string) string
}

// Environment is one worker's private execution environment. All methods
// are called from the worker's own thread only.
type Environment interface {
	// Evaluate performs the initial source/module evaluation. Failure is
	// terminal: the worker reports it and dies without entering the run
	// loop.
	Evaluate(ctx context.Context) error
	// HasMessageHandler reports whether the evaluated module accepts
	// inbound messages. A worker without a handler completes naturally
	// once evaluation ends.
	HasMessageHandler() bool
	// DeliverMessage hands one inbound payload to the guest. A returned
	// error is terminal.
	DeliverMessage(ctx context.Context, payload []byte) error
	// Close releases the environment's resources.
	Close(ctx context.Context) error
}

// EnvironmentFactory constructs execution environments. The construction
// happens inside the worker's thread; a returned error is surfaced
// synchronously to the creating caller through the launch handshake.
type EnvironmentFactory interface {
	NewEnvironment(ctx context.Context, boot Bootstrap, out *Outbox) (Environment, error)
}
