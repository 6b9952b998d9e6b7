package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/skosovsky/toolrun"
)

type upperArgs struct {
	Text string `json:"text" jsonschema:"description=Text to uppercase"`
}

type upperResult struct {
	Text string `json:"text"`
}

type addArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type addResult struct {
	Sum float64 `json:"sum"`
}

type sleepArgs struct {
	Millis int `json:"millis" jsonschema:"minimum=0,maximum=60000"`
}

func (a sleepArgs) Validate() error {
	if a.Millis < 0 {
		return &toolrun.ClientError{Reason: "millis must not be negative"}
	}
	return nil
}

// demoTools returns the tools the command registers.
func demoTools() ([]toolrun.Tool, error) {
	echo, err := toolrun.NewTool("echo", "Return the arguments unchanged",
		toolrun.NewParams().Add("message", "string", "Text to return", false).Schema(),
		func(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
			return args, nil
		}, toolrun.WithTags("text"), toolrun.WithVersion("1.0.0"))
	if err != nil {
		return nil, err
	}
	upper, err := toolrun.NewTypedTool("upper", "Uppercase a text", func(_ context.Context, a upperArgs) (upperResult, error) {
		return upperResult{Text: strings.ToUpper(a.Text)}, nil
	}, toolrun.WithStrict(), toolrun.WithTags("text"), toolrun.WithVersion("1.0.0"))
	if err != nil {
		return nil, err
	}
	add, err := toolrun.NewTypedTool("add", "Add two numbers", func(_ context.Context, a addArgs) (addResult, error) {
		return addResult{Sum: a.A + a.B}, nil
	}, toolrun.WithStrict(), toolrun.WithTags("math"), toolrun.WithVersion("1.1.0"))
	if err != nil {
		return nil, err
	}
	sleep, err := toolrun.NewTypedTool("sleep", "Wait for a number of milliseconds", func(ctx context.Context, a sleepArgs) (string, error) {
		select {
		case <-time.After(time.Duration(a.Millis) * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}, toolrun.WithTags("demo"))
	if err != nil {
		return nil, err
	}
	return []toolrun.Tool{echo, upper, add, sleep}, nil
}
