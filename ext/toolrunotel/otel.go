// Package toolrunotel traces tool executions with OpenTelemetry.
package toolrunotel

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/toolrun"
)

const tracerName = "github.com/skosovsky/toolrun/ext/toolrunotel"

// Attribute keys set on tool spans.
var (
	AttrToolName  = attribute.Key("tool.name")
	AttrArgsSize  = attribute.Key("tool.args_size")
	AttrResultLen = attribute.Key("tool.result_size")
	AttrErrorKind = attribute.Key("tool.error_kind")
)

// Middleware returns a toolrun.Middleware that wraps every execution in a span
// named "tool <name>". A nil tracer uses the global provider.
func Middleware(tracer trace.Tracer) toolrun.Middleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(next toolrun.Tool) toolrun.Tool {
		name := next.Name()
		return toolrun.WrapExecute(next, func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			ctx, span := tracer.Start(ctx, "tool "+name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(AttrToolName.String(name), AttrArgsSize.Int(len(args))),
			)
			defer span.End()

			out, err := next.Execute(ctx, args)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(AttrErrorKind.String(errorKind(err)))
				return nil, err
			}
			span.SetAttributes(AttrResultLen.Int(len(out)))
			span.SetStatus(codes.Ok, "")
			return out, nil
		})
	}
}

func errorKind(err error) string {
	switch {
	case toolrun.IsClientError(err):
		return "client"
	case toolrun.IsSystemError(err):
		return "system"
	default:
		return "other"
	}
}
