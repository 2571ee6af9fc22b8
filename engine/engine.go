package engine

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/worker-host/errors"
	"github.com/wippyai/worker-host/worker"
)

// Compile-time check that the factory satisfies the worker collaborator
// boundary.
var _ worker.EnvironmentFactory = (*Factory)(nil)
var _ worker.Environment = (*Env)(nil)

// Stdio carries the host streams wired into privileged workers.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Factory constructs wazero execution environments. It implements
// worker.EnvironmentFactory. The zero value is not usable; use NewFactory.
type Factory struct {
	// Loader fetches module bytes for resolved specifiers.
	Loader Loader
	// Stdio is attached to the guest's WASI config only when the worker
	// runs under the privileged namespace.
	Stdio Stdio
}

// NewFactory creates a factory with the default file loader and process
// stdio.
func NewFactory() *Factory {
	return &Factory{
		Loader: FileLoader{},
		Stdio:  Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
	}
}

// NewEnvironment builds a worker's private runtime: a fresh wazero
// instance, WASI, and the "host" bridge module wired to the worker's
// outbox. It runs on the worker's own thread; a returned error aborts the
// launch handshake.
func (f *Factory) NewEnvironment(ctx context.Context, boot worker.Bootstrap, out *worker.Outbox) (worker.Environment, error) {
	rt := wazero.NewRuntime(ctx)

	env := &Env{
		rt:     rt,
		boot:   boot,
		loader: f.Loader,
		out:    out,
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseCreate, errors.KindInstantiation, err, "instantiate WASI")
	}

	_, err := rt.NewHostModuleBuilder("host").
		NewFunctionBuilder().
		WithFunc(env.hostPostMessage).
		Export("post_message").
		NewFunctionBuilder().
		WithFunc(env.hostReportError).
		Export("report_error").
		Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseCreate, errors.KindInstantiation, err, "instantiate host module")
	}

	cfg := wazero.NewModuleConfig().
		WithName(boot.Label).
		WithEnv("WORKER_LABEL", boot.Label).
		WithEnv("WORKER_NAME", boot.Name).
		WithEnv("WORKER_PRIVILEGED", strconv.FormatBool(boot.Privileged))

	// Stdio reaches the guest only on the privileged tier; everyone else
	// gets wazero's defaults (empty stdin, discarded output).
	if boot.Privileged {
		if f.Stdio.Stdin != nil {
			cfg = cfg.WithStdin(f.Stdio.Stdin)
		}
		if f.Stdio.Stdout != nil {
			cfg = cfg.WithStdout(f.Stdio.Stdout)
		}
		if f.Stdio.Stderr != nil {
			cfg = cfg.WithStderr(f.Stdio.Stderr)
		}
	}
	env.cfg = cfg

	return env, nil
}

// Env is one worker's execution environment. All methods run on the
// worker's thread; the embedded runtime is single-threaded by construction.
type Env struct {
	rt        wazero.Runtime
	cfg       wazero.ModuleConfig
	boot      worker.Bootstrap
	loader    Loader
	out       *worker.Outbox
	mod       api.Module
	onMessage api.Function
	alloc     api.Function
}

// sourceName is the file name attached to script errors originating in
// this worker.
func (e *Env) sourceName() string {
	if e.boot.Source != nil {
		return "<inline>"
	}
	return e.boot.Specifier
}

// Evaluate loads and instantiates the worker's module. Instantiation runs
// the module's start function, so a trap here is the analog of a throw
// during initial script evaluation: terminal.
func (e *Env) Evaluate(ctx context.Context) error {
	source := e.boot.Source
	if source == nil {
		specifier := e.boot.Specifier
		if e.boot.Resolver != nil {
			specifier = e.boot.Resolver.Resolve(specifier)
		}
		loaded, err := e.loader.Load(specifier)
		if err != nil {
			return err
		}
		source = loaded
	}

	mod, err := e.rt.InstantiateWithConfig(ctx, source, e.cfg)
	if err != nil {
		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
			// The guest ran to completion and exited cleanly via
			// proc_exit(0); there is nothing left to schedule.
			e.mod = nil
			return nil
		}
		return errors.Instantiation(e.boot.Label, e.sourceName(), err)
	}

	e.mod = mod
	e.onMessage = mod.ExportedFunction("on_message")
	e.alloc = mod.ExportedFunction("alloc")
	return nil
}

// HasMessageHandler reports whether the guest accepts inbound messages.
func (e *Env) HasMessageHandler() bool {
	return e.mod != nil && e.onMessage != nil
}

// DeliverMessage copies the payload into guest memory and invokes
// on_message. A guest trap is terminal for the worker.
func (e *Env) DeliverMessage(ctx context.Context, payload []byte) error {
	var ptr uint64
	if len(payload) > 0 {
		if e.alloc == nil {
			return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Worker(e.boot.Label).
				Detail("guest exports on_message but no alloc").
				Build()
		}
		results, err := e.alloc.Call(ctx, uint64(len(payload)))
		if err != nil {
			return errors.Wrap(errors.PhaseRuntime, errors.KindTrap, err, "guest alloc")
		}
		ptr = results[0]
		if !e.mod.Memory().Write(uint32(ptr), payload) {
			return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Worker(e.boot.Label).
				Detail("guest alloc returned out-of-bounds pointer %d", ptr).
				Build()
		}
	}

	if _, err := e.onMessage.Call(ctx, ptr, uint64(len(payload))); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindTrap, err, "deliver message")
	}
	return nil
}

// Close tears down the worker's runtime and everything instantiated in it.
func (e *Env) Close(ctx context.Context) error {
	return e.rt.Close(ctx)
}

// hostPostMessage is the guest's "host.post_message" import: it forwards an
// opaque payload from guest memory to the host as a Message event.
func (e *Env) hostPostMessage(_ context.Context, m api.Module, ptr, length uint32) {
	data, ok := m.Memory().Read(ptr, length)
	if !ok {
		e.out.PostError(errors.NewScriptError("post_message out of bounds", e.sourceName(), 0, 0))
		return
	}
	// The view aliases guest memory; the event must own its bytes.
	e.out.PostMessage(append([]byte(nil), data...))
}

// hostReportError is the guest's "host.report_error" import: a recoverable
// script error with optional source location. The structured error is built
// here, at the point of origin.
func (e *Env) hostReportError(_ context.Context, m api.Module, ptr, length, line, col uint32) {
	msg, ok := m.Memory().Read(ptr, length)
	if !ok {
		e.out.PostError(errors.NewScriptError("report_error out of bounds", e.sourceName(), 0, 0))
		return
	}
	e.out.PostError(errors.NewScriptError(string(msg), e.sourceName(), line, col))
}
