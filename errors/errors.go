package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in a worker's lifecycle the error occurred
type Phase string

const (
	PhaseCreate   Phase = "create"   // execution environment construction
	PhaseResolve  Phase = "resolve"  // specifier / import map resolution
	PhaseEvaluate Phase = "evaluate" // initial module evaluation
	PhaseRuntime  Phase = "runtime"  // worker run loop
	PhaseHost     Phase = "host"     // host-side operations
)

// Kind categorizes the error
type Kind string

const (
	KindPermissionDenied Kind = "permission_denied"
	KindUnstableRequired Kind = "unstable_required"
	KindChannelClosed    Kind = "channel_closed"
	KindUnknownWorker    Kind = "unknown_worker"
	KindInstantiation    Kind = "instantiation"
	KindTrap             Kind = "trap"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindThreadPanic      Kind = "thread_panic"
)

// Error is the structured error type used throughout the worker host
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Worker    string
	Specifier string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Worker != "" {
		b.WriteString(" in ")
		b.WriteString(e.Worker)
	}

	if e.Specifier != "" {
		b.WriteString(" (")
		b.WriteString(e.Specifier)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Worker sets the worker's diagnostic label
func (b *Builder) Worker(label string) *Builder {
	b.err.Worker = label
	return b
}

// Specifier sets the module specifier
func (b *Builder) Specifier(s string) *Builder {
	b.err.Specifier = s
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// PermissionDenied creates a permission error for an access that was refused
func PermissionDenied(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPermissionDenied,
		Detail: what,
	}
}

// UnstableRequired creates an error for a feature gated behind the unstable flag
func UnstableRequired(feature string) *Error {
	return &Error{
		Phase:  PhaseCreate,
		Kind:   KindUnstableRequired,
		Detail: fmt.Sprintf("feature %q requires the unstable flag", feature),
	}
}

// ChannelClosed creates an error for an operation against a dead worker channel
func ChannelClosed(worker string) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindChannelClosed,
		Worker: worker,
		Detail: "worker channel is closed",
	}
}

// UnknownWorker creates an error for an id absent from the host table
func UnknownWorker(id uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindUnknownWorker,
		Detail: fmt.Sprintf("no worker with id %d", id),
	}
}

// Instantiation creates an evaluation error from a failed module instantiation
func Instantiation(worker, specifier string, cause error) *Error {
	return &Error{
		Phase:     PhaseEvaluate,
		Kind:      KindInstantiation,
		Worker:    worker,
		Specifier: specifier,
		Detail:    "instantiate module",
		Cause:     cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ScriptError is an error raised by guest code that carries source-location
// metadata. It is constructed where the error originates (a guest report or
// a failed evaluation), so serialization never needs to inspect foreign
// error values for structure.
type ScriptError struct {
	Message      string
	FileName     string
	LineNumber   uint32
	ColumnNumber uint32
}

// NewScriptError creates a script error with a known source location.
// Zero line/column mean the location is unknown.
func NewScriptError(message, fileName string, line, column uint32) *ScriptError {
	return &ScriptError{
		Message:      message,
		FileName:     fileName,
		LineNumber:   line,
		ColumnNumber: column,
	}
}

func (e *ScriptError) Error() string {
	if e.FileName == "" {
		return e.Message
	}
	if e.LineNumber == 0 {
		return fmt.Sprintf("%s (%s)", e.Message, e.FileName)
	}
	return fmt.Sprintf("%s (%s:%d:%d)", e.Message, e.FileName, e.LineNumber, e.ColumnNumber)
}
