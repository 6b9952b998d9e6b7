package toolrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"time"
)

// tool is the internal implementation of Tool built by NewTool or NewTypedTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	handler     Handler
	opts        toolOptions
}

var errInvalidResult = errors.New("handler returned invalid JSON")

// NewTool creates a Tool from a raw JSON Schema map and a Handler. A nil schema
// becomes an empty object schema. The schema is deep-copied (the caller's map is
// never mutated) and compiled once so malformed schemas fail here rather than at the API.
// Handler errors are returned as SystemError unless they already are a ClientError.
func NewTool(
	name, description string,
	schemaMap map[string]any,
	handler Handler,
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidTool)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler for %q must not be nil", ErrInvalidTool, name)
	}
	if schemaMap == nil {
		schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	schemaCopy, err := cloneSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to copy schema for %q: %w", name, err)
	}
	if o.strict {
		applyStrictMode(schemaCopy)
	}
	stripSchemaIDs(schemaCopy)
	if err := checkSchema(schemaCopy); err != nil {
		return nil, fmt.Errorf("failed to compile schema for %q: %w", name, err)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaCopy,
		handler:     handler,
		opts:        o,
	}, nil
}

// NewTypedTool builds a Tool from a typed function. The parameters schema is reflected
// from T; arguments are decoded into T (decode failure is a ClientError) and, if T
// implements Validatable, checked with Validate. The returned R is marshaled to JSON.
func NewTypedTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: handler for %q must not be nil", ErrInvalidTool, name)
	}
	schema, err := reflectSchema[T](o.strict)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %q: %w", name, err)
	}
	handler := func(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
		args, err := decodeArgs[T](raw)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(res)
		if err != nil {
			return nil, &SystemError{Err: err}
		}
		return b, nil
	}
	// Strict mode is already applied to the reflected schema.
	o.strict = false
	return NewTool(name, description, schema, handler, func(dst *toolOptions) { *dst = o })
}

// decodeArgs unmarshals raw into T and runs Validatable on it.
func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var zero T
	if len(raw) == 0 {
		raw = emptyObject
	}
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if err := runCustomValidation(args); err != nil {
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// runCustomValidation runs Validatable.Validate() on args; if args does not implement Validatable,
// it tries &args for value types (pointer receiver). Never calls Validate twice for the same receiver.
func runCustomValidation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

// Execute runs the handler. An empty result becomes JSON null; a result that is not
// valid JSON is a SystemError.
func (t *tool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	out, err := t.handler(ctx, args)
	if err != nil {
		return nil, wrapHandlerError(err)
	}
	if len(out) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(out) {
		return nil, &SystemError{Err: errInvalidResult}
	}
	return out, nil
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) Version() string        { return t.opts.version }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
