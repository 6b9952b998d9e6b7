// Package toolrunprom exports tool execution metrics to Prometheus.
package toolrunprom

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skosovsky/toolrun"
)

// Status label values of toolrun_tool_calls_total.
const (
	StatusOK          = "ok"
	StatusClientError = "client_error"
	StatusSystemError = "system_error"
	StatusTimeout     = "timeout"
	StatusError       = "error"
)

// Collector holds the tool metrics. Create it with NewCollector and install
// Collector.Middleware on a Registry.
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolrun",
			Name:      "tool_calls_total",
			Help:      "Number of tool executions by tool and outcome.",
		}, []string{"tool", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toolrun",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	for _, col := range []prometheus.Collector{c.calls, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Middleware returns a toolrun.Middleware that counts and times every execution.
func (c *Collector) Middleware() toolrun.Middleware {
	return func(next toolrun.Tool) toolrun.Tool {
		name := next.Name()
		return toolrun.WrapExecute(next, func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			start := time.Now()
			out, err := next.Execute(ctx, args)
			c.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			c.calls.WithLabelValues(name, status(err)).Inc()
			return out, err
		})
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, toolrun.ErrTimeout):
		return StatusTimeout
	case toolrun.IsClientError(err):
		return StatusClientError
	case toolrun.IsSystemError(err):
		return StatusSystemError
	default:
		return StatusError
	}
}
