package worker

import (
	"context"
	stderrors "errors"
	stdruntime "runtime"

	"go.uber.org/zap"

	"github.com/wippyai/worker-host/errors"
)

// Thread is the join capability for a worker's dedicated thread. Joining is
// a blocking wait performed only by the worker table's removal path.
type Thread struct {
	done     chan struct{}
	panicked any
}

// Join blocks until the worker thread has fully exited. If the run loop
// panicked, Join returns a thread_panic error; that indicates a bug in the
// worker's run loop, not a recoverable user condition.
func (t *Thread) Join() error {
	<-t.done
	if t.panicked != nil {
		return errors.New(errors.PhaseRuntime, errors.KindThreadPanic).
			Detail("worker thread panicked: %v", t.panicked).
			Build()
	}
	return nil
}

type handshake struct {
	handle *Handle
	err    error
}

// Launch spawns a worker on its own OS-locked goroutine and performs the
// bootstrap handshake. It blocks until the spawned thread either fails to
// construct its execution environment (the error is returned and no worker
// is observable) or hands back a usable Handle. After the handshake the
// spawned thread communicates only through the handle's channels.
func Launch(ctx context.Context, factory EnvironmentFactory, boot Bootstrap) (*Thread, *Handle, error) {
	hs := make(chan handshake, 1)
	th := &Thread{done: make(chan struct{})}

	go func() {
		// One native thread per worker: the environment's runtime is
		// single-threaded and must not migrate.
		stdruntime.LockOSThread()
		defer stdruntime.UnlockOSThread()
		defer close(th.done)
		defer func() {
			if r := recover(); r != nil {
				th.panicked = r
			}
		}()
		runWorker(ctx, factory, boot, hs)
	}()

	res := <-hs
	if res.err != nil {
		// The thread exits on its own; no table entry is ever created.
		return nil, nil, res.err
	}
	return th, res.handle, nil
}

// runWorker is the worker thread's body: construct the environment, send
// the handle through the handshake, evaluate the initial source, then drive
// the run loop until termination, inbound closure, or a terminal failure.
func runWorker(parent context.Context, factory EnvironmentFactory, boot Bootstrap, hs chan<- handshake) {
	// The worker outlives the creating call; only construction may observe
	// the caller's cancellation.
	ctx := context.WithoutCancel(parent)

	h := newHandle(boot.Label)
	out := &Outbox{events: h.events, term: h.term}

	env, err := factory.NewEnvironment(parent, boot, out)
	if err != nil {
		var structured *errors.Error
		if !stderrors.As(err, &structured) {
			err = errors.Wrap(errors.PhaseCreate, errors.KindInvalidInput, err, "construct execution environment")
		}
		hs <- handshake{err: err}
		return
	}

	hs <- handshake{handle: h}

	// From here on the host may already be posting messages and polling
	// events.
	defer close(h.done)
	defer close(h.events)
	defer func() {
		if cerr := env.Close(ctx); cerr != nil {
			Logger().Warn("close worker environment",
				zap.String("label", boot.Label), zap.Error(cerr))
		}
	}()

	if err := env.Evaluate(ctx); err != nil {
		// Failure to evaluate the initial source is terminal. The event
		// must reach the host; out.post only gives up if the host already
		// terminated this worker.
		out.post(TerminalError(err))
		Logger().Debug("worker evaluation failed",
			zap.String("label", boot.Label), zap.Error(err))
		return
	}

	if !env.HasMessageHandler() {
		// Nothing left to schedule: natural completion.
		Logger().Debug("worker completed", zap.String("label", boot.Label))
		return
	}

	for {
		select {
		case <-h.term:
			Logger().Debug("worker terminated", zap.String("label", boot.Label))
			return
		case payload, ok := <-h.messages:
			if !ok {
				return
			}
			if err := env.DeliverMessage(ctx, payload); err != nil {
				out.post(TerminalError(err))
				Logger().Debug("worker run loop failed",
					zap.String("label", boot.Label), zap.Error(err))
				return
			}
		}
	}
}
