package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/worker-host/errors"
	"github.com/wippyai/worker-host/importmap"
	"github.com/wippyai/worker-host/metrics"
	"github.com/wippyai/worker-host/worker"
)

// UnstableWorkerFeature is the opt-in required for the privileged
// namespace.
const UnstableWorkerFeature = "Worker.privileged"

// Options configures a Host.
type Options struct {
	// Factory constructs worker execution environments. Required.
	Factory worker.EnvironmentFactory
	// Permissions gates creation-time capabilities. Defaults to denying
	// everything.
	Permissions Permissions
	// Metrics receives lifecycle counters. Optional; nil disables.
	Metrics *metrics.Recorder
}

// Host manages one session's workers: it creates them, relays messages and
// events, and reclaims them when they die or are terminated.
type Host struct {
	table   *Table
	factory worker.EnvironmentFactory
	perms   Permissions
	metrics *metrics.Recorder
}

// New creates a Host. It panics if no factory is configured, since a host
// without an execution environment cannot create anything.
func New(opts Options) *Host {
	if opts.Factory == nil {
		panic("host: Options.Factory is required")
	}
	perms := opts.Permissions
	if perms == nil {
		perms = StaticPermissions{}
	}
	return &Host{
		table:   NewTable(),
		factory: opts.Factory,
		perms:   perms,
		metrics: opts.Metrics,
	}
}

// Table exposes the worker table for read-only inspection (monitoring).
func (h *Host) Table() *Table {
	return h.table
}

// CreateWorkerArgs are the caller-supplied creation parameters.
type CreateWorkerArgs struct {
	// Name is the worker's declared name; may be empty.
	Name string
	// Specifier locates the worker module when HasSourceCode is false.
	Specifier string
	// HasSourceCode selects inline evaluation of SourceCode over loading
	// Specifier.
	HasSourceCode bool
	SourceCode    []byte
	// UsePrivilegedNamespace wires stdio into the worker and marks it
	// trusted. Requires the unstable opt-in.
	UsePrivilegedNamespace bool
	// ImportMap is an optional path to an import map, read under the
	// caller's permission.
	ImportMap string
}

// CreateWorker launches a worker and registers it in the table. Creation
// failures are synchronous: on error no worker is observable and no id was
// consumed by a live entry.
func (h *Host) CreateWorker(ctx context.Context, args CreateWorkerArgs) (uint32, error) {
	if args.UsePrivilegedNamespace {
		if err := h.perms.CheckUnstable(UnstableWorkerFeature); err != nil {
			return 0, err
		}
	}

	var resolver worker.Resolver
	if args.ImportMap != "" {
		if err := h.perms.CheckRead(args.ImportMap); err != nil {
			return 0, err
		}
		m, err := importmap.Load(args.ImportMap)
		if err != nil {
			return 0, err
		}
		resolver = m
	}

	var source []byte
	if args.HasSourceCode {
		source = args.SourceCode
		if source == nil {
			source = []byte{}
		}
	}

	id := h.table.AllocateID()
	boot := worker.Bootstrap{
		ID:         id,
		Label:      fmt.Sprintf("worker-%d", id),
		Name:       args.Name,
		Privileged: args.UsePrivilegedNamespace,
		Specifier:  args.Specifier,
		Source:     source,
		Resolver:   resolver,
	}

	thread, handle, err := worker.Launch(ctx, h.factory, boot)
	if err != nil {
		return 0, err
	}

	// From here on all interaction with the worker goes through the
	// thread-safe handle stored in the table.
	h.table.Insert(id, Entry{Thread: thread, Handle: handle})
	h.metrics.WorkerCreated()

	worker.Logger().Info("worker created",
		zap.Uint32("id", id),
		zap.String("name", args.Name),
		zap.String("specifier", args.Specifier),
		zap.Bool("privileged", args.UsePrivilegedNamespace))

	return id, nil
}

// TerminateWorker signals the worker to stop, removes its table entry, and
// joins its thread before returning. Calling it for an id that has already
// been reclaimed is a no-op: when termination races event-driven teardown,
// exactly one side performs the reclaim.
func (h *Host) TerminateWorker(id uint32) {
	handle, ok := h.table.Get(id)
	if ok {
		handle.Terminate()
	}
	h.reclaim(id)
}

// PostMessage delivers an opaque payload to the worker. It fails with
// unknown_worker for an id absent from the table and with channel_closed
// once the worker is no longer reachable.
func (h *Host) PostMessage(id uint32, data []byte) error {
	handle, ok := h.table.Get(id)
	if !ok {
		return errors.UnknownWorker(id)
	}
	if err := handle.PostMessage(data); err != nil {
		return err
	}
	h.metrics.MessagePosted(len(data))
	return nil
}

// GetMessage suspends until the worker produces its next event or ends.
// Observing a terminal error or a clean closure triggers the reclaim of the
// worker's entry; if an explicit termination already removed it, the
// teardown here is a no-op.
func (h *Host) GetMessage(ctx context.Context, id uint32) (Message, error) {
	handle, ok := h.table.Get(id)
	if !ok {
		return Message{}, errors.UnknownWorker(id)
	}

	ev, err := handle.GetEvent(ctx)
	if err != nil {
		return Message{}, err
	}
	if ev == nil {
		// Worker shut down cleanly.
		h.reclaim(id)
		h.metrics.EventDelivered(TypeClose)
		return Message{Type: TypeClose}, nil
	}

	if ev.Kind == worker.EventTerminalError {
		h.reclaim(id)
	}

	msg := SerializeEvent(*ev)
	h.metrics.EventDelivered(msg.Type)
	return msg, nil
}

// reclaim removes the table entry and joins the worker thread. Safe to call
// when the entry is already gone.
func (h *Host) reclaim(id uint32) {
	if _, ok := h.table.RemoveAndJoin(id); ok {
		h.metrics.WorkerReclaimed()
		worker.Logger().Debug("worker reclaimed", zap.Uint32("id", id))
	}
}
