// Package testutil provides test helpers for toolrun (MockTool, chunked sources).
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/skosovsky/toolrun"
)

// MockTool is a configurable Tool implementation for tests. It records the
// arguments of every call.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

	mu    sync.Mutex
	calls []json.RawMessage
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or an empty object schema).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute records args and runs ExecuteFn if set, otherwise returns null.
func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append(json.RawMessage(nil), args...))
	m.mu.Unlock()
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return json.RawMessage(`null`), nil
}

// Calls returns the arguments of every Execute call so far, in call order.
func (m *MockTool) Calls() []json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]json.RawMessage(nil), m.calls...)
}

// ChunkedSource returns a ChunkSource that yields s in pieces of at most n bytes
// (n <= 0 means the whole string at once), then io.EOF.
func ChunkedSource(s string, n int) toolrun.ChunkSource {
	if n <= 0 {
		n = len(s)
	}
	pos := 0
	return func() ([]byte, error) {
		if pos >= len(s) {
			return nil, io.EOF
		}
		end := min(pos+n, len(s))
		chunk := []byte(s[pos:end])
		pos = end
		return chunk, nil
	}
}

// Ensure MockTool implements Tool.
var _ toolrun.Tool = (*MockTool)(nil)
