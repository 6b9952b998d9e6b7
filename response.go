package toolrun

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tidwall/gjson"
)

// ExtractCalls returns the tool calls found in one response document, in discovery order.
// It accepts a full chat-completion response ({"choices":[...]}), a bare array of
// choices or messages, or a single message/delta object. Both "tool_calls" and the
// legacy "function_call" field are read. Arguments encoded as a JSON string are
// decoded; undecodable arguments become {}.
func ExtractCalls(doc []byte) ([]ToolCall, error) {
	return extractDocument(doc, slog.New(slog.DiscardHandler))
}

// ProcessResponse extracts every tool call from doc and executes them as one batch.
// The only error is ErrInvalidResponse for a doc that is not JSON; a document
// without tool calls yields an empty slice.
func (r *Registry) ProcessResponse(ctx context.Context, doc []byte, mode ExecMode) ([]Result, error) {
	calls, err := extractDocument(doc, r.opts.logger)
	if err != nil {
		return nil, err
	}
	return r.ExecuteBatch(ctx, calls, mode), nil
}

// HandleToolCallResponse invokes the first tool call found in doc and returns its result.
// It returns ErrNoToolCall when doc has no tool call and propagates ErrToolNotFound
// and handler errors as is.
func (r *Registry) HandleToolCallResponse(ctx context.Context, doc []byte) (json.RawMessage, error) {
	calls, err := extractDocument(doc, r.opts.logger)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, ErrNoToolCall
	}
	return r.Invoke(ctx, calls[0].Name, calls[0].Args)
}

func extractDocument(doc []byte, logger *slog.Logger) ([]ToolCall, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidResponse
	}
	var calls []ToolCall
	for _, node := range messageNodes(gjson.ParseBytes(doc)) {
		calls = appendCalls(calls, node, logger)
	}
	return calls, nil
}

// messageNodes normalizes a response into the nodes that may carry tool calls:
// the entries (or, for an object, the member values) of "choices", the elements of a
// top-level array, or the document itself; each entry is replaced by its "message"
// or "delta" field when present.
func messageNodes(doc gjson.Result) []gjson.Result {
	var entries []gjson.Result
	switch choices := doc.Get("choices"); {
	case doc.IsObject() && choices.Exists():
		entries = containerValues(choices)
	case doc.IsArray():
		entries = doc.Array()
	default:
		entries = []gjson.Result{doc}
	}

	nodes := make([]gjson.Result, 0, len(entries))
	for _, entry := range entries {
		nodes = append(nodes, pickMessage(entry))
	}
	return nodes
}

// containerValues returns the elements of an array or the member values of an object,
// in document order. Scalars have no values.
func containerValues(v gjson.Result) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	var out []gjson.Result
	if v.IsObject() {
		v.ForEach(func(_, value gjson.Result) bool {
			out = append(out, value)
			return true
		})
	}
	return out
}

func pickMessage(entry gjson.Result) gjson.Result {
	if !entry.IsObject() {
		return entry
	}
	if m := entry.Get("message"); m.Exists() {
		return m
	}
	if d := entry.Get("delta"); d.Exists() {
		return d
	}
	return entry
}

// appendCalls reads "tool_calls" first and "function_call" second; both may be present.
func appendCalls(calls []ToolCall, node gjson.Result, logger *slog.Logger) []ToolCall {
	if !node.IsObject() {
		return calls
	}
	if tcs := node.Get("tool_calls"); tcs.IsArray() {
		for _, tc := range tcs.Array() {
			fn := tc
			if f := tc.Get("function"); tc.IsObject() && f.Exists() {
				fn = f
			}
			if call, ok := callFromFunction(fn, logger); ok {
				calls = append(calls, call)
			}
		}
	}
	if fc := node.Get("function_call"); fc.IsObject() {
		if call, ok := callFromFunction(fc, logger); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func callFromFunction(fn gjson.Result, logger *slog.Logger) (ToolCall, bool) {
	if !fn.IsObject() {
		return ToolCall{}, false
	}
	name := fn.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return ToolCall{}, false
	}
	return ToolCall{Name: name.Str, Args: normalizeArgs(name.Str, fn.Get("arguments"), logger)}, true
}

// normalizeArgs turns the raw "arguments" field into a JSON value: a string is decoded
// as JSON, an object or array is kept, anything else (or an undecodable string) is {}.
func normalizeArgs(tool string, args gjson.Result, logger *slog.Logger) json.RawMessage {
	switch {
	case !args.Exists():
		return json.RawMessage(`{}`)
	case args.Type == gjson.String:
		if !gjson.Valid(args.Str) {
			logger.Debug("tool arguments are not valid JSON, using {}", "tool", tool, "arguments", args.Str)
			return json.RawMessage(`{}`)
		}
		return compactJSON(args.Str)
	case args.IsObject(), args.IsArray():
		return compactJSON(args.Raw)
	default:
		return json.RawMessage(`{}`)
	}
}

func compactJSON(s string) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return json.RawMessage(s)
	}
	return buf.Bytes()
}
