package toolrunprom

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/toolrun"
	"github.com/skosovsky/toolrun/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCollector_CountsByStatus(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	ok := &testutil.MockTool{NameVal: "ok"}
	bad := &testutil.MockTool{NameVal: "bad", ExecuteFn: func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, &toolrun.ClientError{Reason: "nope"}
	}}
	crash := &testutil.MockTool{NameVal: "crash", ExecuteFn: func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("down")
	}}
	tools := testutil.NewTestRegistry(ok, bad, crash)
	tools.Use(c.Middleware())

	calls := []toolrun.ToolCall{{Name: "ok"}, {Name: "ok"}, {Name: "bad"}, {Name: "crash"}, {Name: "missing"}}
	results := tools.ExecuteBatch(context.Background(), calls, toolrun.Concurrent)
	require.Len(t, results, 5)

	assert.InDelta(t, 2, promtestutil.ToFloat64(c.calls.WithLabelValues("ok", StatusOK)), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(c.calls.WithLabelValues("bad", StatusClientError)), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(c.calls.WithLabelValues("crash", StatusError)), 0)
	// Unknown tools never reach middleware.
	assert.Equal(t, 3, promtestutil.CollectAndCount(c.calls))
	assert.Equal(t, 3, promtestutil.CollectAndCount(c.duration))
}

func TestCollector_Timeout(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	slow := &testutil.MockTool{NameVal: "slow", ExecuteFn: func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	reg := toolrun.NewRegistry(toolrun.WithDefaultTimeout(10 * time.Millisecond))
	require.NoError(t, reg.Register(slow))
	reg.Use(c.Middleware())

	_, err = reg.Invoke(context.Background(), "slow", nil)
	require.ErrorIs(t, err, toolrun.ErrTimeout)
	assert.InDelta(t, 1, promtestutil.ToFloat64(c.calls.WithLabelValues("slow", StatusTimeout)), 0)
}

func TestCollector_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	tools := testutil.NewTestRegistry(&testutil.MockTool{NameVal: "echo"})
	tools.Use(c.Middleware())
	_, err = tools.Invoke(context.Background(), "echo", nil)
	require.NoError(t, err)

	expected := `
# HELP toolrun_tool_calls_total Number of tool executions by tool and outcome.
# TYPE toolrun_tool_calls_total counter
toolrun_tool_calls_total{status="ok",tool="echo"} 1
`
	require.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "toolrun_tool_calls_total"))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	var already prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &already)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusOK, status(nil))
	assert.Equal(t, StatusSystemError, status(&toolrun.SystemError{Err: errors.New("x")}))
	assert.Equal(t, StatusTimeout, status(context.DeadlineExceeded))
	assert.Equal(t, StatusError, status(errors.New("x")))
}
