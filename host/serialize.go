package host

import (
	stderrors "errors"

	"github.com/wippyai/worker-host/errors"
	"github.com/wippyai/worker-host/worker"
)

// Outward event types as seen by the dispatch layer.
const (
	TypeMsg           = "msg"
	TypeError         = "error"
	TypeTerminalError = "terminalError"
	TypeClose         = "close"
)

// Message is the outward shape of a worker event. The wire encoding (JSON
// or otherwise) is the outer dispatch layer's concern.
type Message struct {
	Type  string       `json:"type"`
	Data  []byte       `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a serialized worker error. Structured script errors
// include their source location; opaque failures carry only a message.
type ErrorDetail struct {
	Message      string `json:"message"`
	FileName     string `json:"fileName,omitempty"`
	LineNumber   uint32 `json:"lineNumber,omitempty"`
	ColumnNumber uint32 `json:"columnNumber,omitempty"`
}

// SerializeEvent maps a worker event to its outward representation. The
// mapping is pure: classification is a best-effort unwrap to ScriptError,
// falling back to the opaque shape for anything else.
func SerializeEvent(ev worker.Event) Message {
	switch ev.Kind {
	case worker.EventMessage:
		return Message{Type: TypeMsg, Data: ev.Data}
	case worker.EventError:
		return Message{Type: TypeError, Error: serializeError(ev.Err)}
	case worker.EventTerminalError:
		return Message{Type: TypeTerminalError, Error: serializeError(ev.Err)}
	default:
		return Message{Type: TypeError, Error: &ErrorDetail{Message: "unknown event"}}
	}
}

func serializeError(err error) *ErrorDetail {
	if err == nil {
		return &ErrorDetail{}
	}
	var script *errors.ScriptError
	if stderrors.As(err, &script) {
		return &ErrorDetail{
			Message:      script.Message,
			FileName:     script.FileName,
			LineNumber:   script.LineNumber,
			ColumnNumber: script.ColumnNumber,
		}
	}
	return &ErrorDetail{Message: err.Error()}
}
