package toolrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func raw(s string) json.RawMessage { return []byte(s) }

// minTool is a minimal Tool used across the package tests.
type minTool struct {
	name, desc string
	params     map[string]any
	execute    func(context.Context, json.RawMessage) (json.RawMessage, error)
}

func (m *minTool) Name() string               { return m.name }
func (m *minTool) Description() string        { return m.desc }
func (m *minTool) Parameters() map[string]any { return m.params }
func (m *minTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	if m.execute != nil {
		return m.execute(ctx, args)
	}
	return raw(`null`), nil
}

// newTestRegistry registers echo (returns its arguments), upper ({"s"} -> {"out"}) and fail.
func newTestRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	echo, err := NewTool("echo", "Echo arguments", NewParams().String("msg", false).Schema(),
		func(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
			return args, nil
		})
	require.NoError(t, err)
	type upperArgs struct {
		S string `json:"s"`
	}
	type upperOut struct {
		Out string `json:"out"`
	}
	upper, err := NewTypedTool("upper", "Uppercase a string", func(_ context.Context, a upperArgs) (upperOut, error) {
		return upperOut{Out: strings.ToUpper(a.S)}, nil
	})
	require.NoError(t, err)
	fail, err := NewTool("fail", "Always fails", nil, func(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("fail")
	})
	require.NoError(t, err)
	reg := NewRegistry(opts...)
	reg.MustRegister(echo, upper, fail)
	return reg
}

func TestResult_MarshalJSON_EmptyResult(t *testing.T) {
	b, err := json.Marshal(Result{ToolName: "nilres"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tool_name":"nilres","arguments":{},"result":null}`, string(b))

	reg := NewRegistry()
	reg.MustRegister(&minTool{name: "nilres", execute: func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, nil
	}})
	results, err := reg.ProcessResponse(context.Background(), []byte(`{"function_call":{"name":"nilres"}}`), Sequential)
	require.NoError(t, err)
	require.Len(t, results, 1)
	b, err = json.Marshal(results[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"tool_name":"nilres","arguments":{},"result":null}`, string(b))
}

func TestResult_MarshalJSON(t *testing.T) {
	ok := Result{ToolName: "echo", Args: raw(`{"msg":"hi"}`), Result: raw(`{"msg":"hi"}`)}
	b, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tool_name":"echo","arguments":{"msg":"hi"},"result":{"msg":"hi"}}`, string(b))
	assert.True(t, ok.OK())
	assert.Empty(t, ok.ErrorString())

	failed := Result{ToolName: "bad", Err: errors.New("boom")}
	b, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tool_name":"bad","arguments":{},"error":"boom"}`, string(b))
	assert.False(t, failed.OK())
	assert.Equal(t, "boom", failed.ErrorString())
}

func TestExecMode_String(t *testing.T) {
	assert.Equal(t, "sequential", Sequential.String())
	assert.Equal(t, "concurrent", Concurrent.String())
	assert.Equal(t, "unknown", ExecMode(7).String())
}

func TestToolCall_String(t *testing.T) {
	assert.Equal(t, `echo({"msg":"hi"})`, ToolCall{Name: "echo", Args: raw(`{"msg":"hi"}`)}.String())
}

func ExampleRegistry_ProcessResponse() {
	type Args struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	add, err := NewTypedTool("add", "Add two integers", func(_ context.Context, a Args) (int, error) {
		return a.A + a.B, nil
	})
	if err != nil {
		panic(err)
	}
	reg := NewRegistry()
	reg.MustRegister(add)
	resp := []byte(`{"choices":[{"message":{"tool_calls":[
		{"function":{"name":"add","arguments":"{\"a\":1,\"b\":2}"}},
		{"function":{"name":"add","arguments":{"a":10,"b":20}}}
	]}}]}`)
	results, err := reg.ProcessResponse(context.Background(), resp, Concurrent)
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		fmt.Println(r.ToolName, string(r.Result))
	}
	// Output:
	// add 3
	// add 30
}

func ExampleRegistry_ProcessStream() {
	upper, err := NewTool("upper", "Uppercase", NewParams().String("s", true).Schema(),
		func(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				S string `json:"s"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{"out": strings.ToUpper(in.S)})
		})
	if err != nil {
		panic(err)
	}
	reg := NewRegistry()
	reg.MustRegister(upper)
	stream := `data: {"choices":[{"delta":{"tool_calls":[{"function":{"name":"upper","arguments":"{\"s\":\"hey\"}"}}]}}]}

data: [DONE]
`
	err = reg.ProcessStream(context.Background(), ReaderSource(strings.NewReader(stream), 7), func(r Result) {
		fmt.Println(r.ToolName, string(r.Result))
	}, Sequential)
	if err != nil {
		panic(err)
	}
	// Output:
	// upper {"out":"HEY"}
}
