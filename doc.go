// Package toolrun maps named tools to JSON Schema descriptions and handlers, exports
// them in the function-calling format of chat-completion APIs, and executes the tool
// calls a model sends back.
//
// # Overview
//
// A response is turned into work in three steps: the document is normalized into
// message-like nodes (choices[].message, choices[].delta, a bare array, or a single
// message), the "tool_calls" and legacy "function_call" fields of every node are read
// into ToolCall values, and the calls are executed as one batch. Results come back in
// discovery order whether the batch runs Sequential or Concurrent.
//
// Streaming responses go through ProcessStream: chunks are appended to a Splitter,
// which cuts complete JSON values off the front of its buffer while ignoring brackets
// inside strings. Each complete document is executed before the next chunk is read.
//
// # Key concepts
//
//   - Partial success: a failing call records its error in its own Result; the rest of
//     the batch still runs.
//   - Lenient parsing: undecodable arguments become {} and malformed stream fragments
//     are skipped. Both are logged at debug level when WithLogger is set.
//   - No globals: tools live in an explicitly constructed Registry.
//
// # Example
//
//	type Args struct { S string `json:"s"` }
//	upper, err := toolrun.NewTypedTool("upper", "Uppercase a string",
//	    func(_ context.Context, a Args) (string, error) { return strings.ToUpper(a.S), nil })
//	if err != nil { ... }
//	reg := toolrun.NewRegistry()
//	reg.MustRegister(upper)
//	results, err := reg.ProcessResponse(ctx, body, toolrun.Concurrent)
package toolrun
