package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseEvaluate,
				Kind:      KindInstantiation,
				Worker:    "worker-3",
				Specifier: "file:///job.wasm",
				Detail:    "instantiate module",
			},
			contains: []string{"[evaluate]", "instantiation", "worker-3", "file:///job.wasm", "instantiate module"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseHost,
				Kind:  KindChannelClosed,
			},
			contains: []string{"[host]", "channel_closed"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindThreadPanic,
				Detail: "run loop",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "thread_panic", "run loop", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Instantiation("worker-1", "file:///a.wasm", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	a := ChannelClosed("worker-1")
	b := ChannelClosed("worker-2")
	c := UnknownWorker(7)

	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different kinds should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseCreate, KindInvalidInput).
		Worker("worker-9").
		Specifier("file:///w.wasm").
		Detail("bad argument %d", 2).
		Cause(cause).
		Build()

	if err.Phase != PhaseCreate || err.Kind != KindInvalidInput {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "bad argument 2" {
		t.Errorf("detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

func TestScriptError(t *testing.T) {
	tests := []struct {
		name string
		err  *ScriptError
		want string
	}{
		{
			name: "with location",
			err:  NewScriptError("boom", "file:///w.wasm", 3, 14),
			want: "boom (file:///w.wasm:3:14)",
		},
		{
			name: "file only",
			err:  NewScriptError("boom", "file:///w.wasm", 0, 0),
			want: "boom (file:///w.wasm)",
		},
		{
			name: "message only",
			err:  NewScriptError("boom", "", 0, 0),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScriptError_As(t *testing.T) {
	var wrapped error = Wrap(PhaseRuntime, KindInstantiation,
		NewScriptError("boom", "file:///w.wasm", 1, 2), "deliver message")

	var se *ScriptError
	if !errors.As(wrapped, &se) {
		t.Fatal("errors.As should unwrap to ScriptError")
	}
	if se.LineNumber != 1 || se.ColumnNumber != 2 {
		t.Errorf("unexpected location: %d:%d", se.LineNumber, se.ColumnNumber)
	}
}
