package host

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/wippyai/worker-host/errors"
	"github.com/wippyai/worker-host/worker"
)

func TestSerializeEvent(t *testing.T) {
	script := errors.NewScriptError("undefined is not a function", "file:///app.wasm", 12, 5)

	tests := []struct {
		name string
		ev   worker.Event
		want Message
	}{
		{
			name: "message",
			ev:   worker.Message([]byte("payload")),
			want: Message{Type: TypeMsg, Data: []byte("payload")},
		},
		{
			name: "structured error",
			ev:   worker.ErrorEvent(script),
			want: Message{Type: TypeError, Error: &ErrorDetail{
				Message:      "undefined is not a function",
				FileName:     "file:///app.wasm",
				LineNumber:   12,
				ColumnNumber: 5,
			}},
		},
		{
			name: "wrapped structured error",
			ev:   worker.ErrorEvent(errors.Wrap(errors.PhaseRuntime, errors.KindTrap, script, "deliver message")),
			want: Message{Type: TypeError, Error: &ErrorDetail{
				Message:      "undefined is not a function",
				FileName:     "file:///app.wasm",
				LineNumber:   12,
				ColumnNumber: 5,
			}},
		},
		{
			name: "opaque terminal error",
			ev:   worker.TerminalError(stderrors.New("runtime collapsed")),
			want: Message{Type: TypeTerminalError, Error: &ErrorDetail{
				Message: "runtime collapsed",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerializeEvent(tt.ev)
			if got.Type != tt.want.Type {
				t.Fatalf("Type = %q, want %q", got.Type, tt.want.Type)
			}
			if string(got.Data) != string(tt.want.Data) {
				t.Fatalf("Data = %q, want %q", got.Data, tt.want.Data)
			}
			if (got.Error == nil) != (tt.want.Error == nil) {
				t.Fatalf("Error presence = %v, want %v", got.Error != nil, tt.want.Error != nil)
			}
			if got.Error != nil && *got.Error != *tt.want.Error {
				t.Fatalf("Error = %+v, want %+v", *got.Error, *tt.want.Error)
			}
		})
	}
}

func TestMessage_JSONShape(t *testing.T) {
	msg := SerializeEvent(worker.ErrorEvent(errors.NewScriptError("boom", "<inline>", 7, 3)))
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["type"] != "error" {
		t.Fatalf("type = %v", decoded["type"])
	}
	if _, present := decoded["data"]; present {
		t.Fatal("data must be omitted for error events")
	}
	detail, ok := decoded["error"].(map[string]any)
	if !ok {
		t.Fatalf("error field missing: %v", decoded)
	}
	if detail["message"] != "boom" || detail["fileName"] != "<inline>" {
		t.Fatalf("unexpected detail %v", detail)
	}
	if detail["lineNumber"] != float64(7) || detail["columnNumber"] != float64(3) {
		t.Fatalf("unexpected location %v", detail)
	}
}
