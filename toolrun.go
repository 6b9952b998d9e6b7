package toolrun

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tool is the contract for an LLM-callable instrument.
// It is provider-agnostic: the registry only needs its name, schema and Execute.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a JSON Schema object describing the arguments.
	Parameters() map[string]any
	// Execute runs the tool with one JSON arguments value and returns one JSON result value.
	Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// ToolMetadata is implemented by tools created with NewTool and NewTypedTool.
// Registry uses Timeout() to override the default execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
}

// Handler is the function behind a tool: JSON arguments in, JSON result or error out.
// Handlers must be safe for concurrent use when batches run in Concurrent mode.
type Handler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// ToolCall is a single invocation request discovered in a model response.
// Name is never empty; Args always holds a valid JSON value.
type ToolCall struct {
	Name string
	Args json.RawMessage
}

func (c ToolCall) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.Args)
}

// Result is the outcome of one ToolCall. Exactly one of Result and Err is set.
type Result struct {
	ToolName string
	Args     json.RawMessage
	Result   json.RawMessage
	Err      error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// ErrorString returns the failure message, or "" on success.
func (r Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type resultJSON struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// MarshalJSON encodes the result as {"tool_name","arguments","result"} or
// {"tool_name","arguments","error"}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{ToolName: r.ToolName, Arguments: r.Args}
	if len(out.Arguments) == 0 {
		out.Arguments = emptyObject
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	} else {
		out.Result = r.Result
		if len(out.Result) == 0 {
			out.Result = json.RawMessage(`null`)
		}
	}
	return json.Marshal(out)
}

// ExecMode selects how a batch of calls is run.
type ExecMode int

const (
	// Sequential runs calls one at a time on the calling goroutine, in order.
	Sequential ExecMode = iota
	// Concurrent starts one goroutine per call and waits for all of them.
	Concurrent
)

func (m ExecMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

var emptyObject = json.RawMessage(`{}`)
