// Package errors provides structured error types for the worker host.
//
// Errors are categorized by Phase (where in a worker's lifecycle the error
// occurred) and Kind (error category). The Error type carries the worker's
// diagnostic label, the module specifier, and a cause chain.
//
//	err := errors.New(errors.PhaseEvaluate, errors.KindInstantiation).
//		Worker("worker-3").
//		Specifier("file:///job.wasm").
//		Cause(trapErr).
//		Build()
//
// ScriptError is the structured guest-error type: it captures source
// location at the point the error originates so no dynamic inspection is
// needed when events are serialized.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
