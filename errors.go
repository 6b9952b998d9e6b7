package toolrun

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolrun. Use errors.Is to check.
var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrNoToolCall      = errors.New("no tool call found in response")
	ErrInvalidResponse = errors.New("response is not valid JSON")
	ErrInvalidTool     = errors.New("invalid tool")
	ErrTimeout         = errors.New("tool execution timeout")
	ErrValidation      = errors.New("validation failed")
	ErrShutdown        = errors.New("registry is shutting down")
)

// ClientError is an input problem the model can fix by sending different arguments
// (e.g. arguments that do not decode into the tool's argument type).
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents a failure inside a handler (returned error or panic).
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	if e.Err == nil {
		return "tool execution failed"
	}
	return "tool execution failed: " + e.Err.Error()
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}

// wrapHandlerError passes through ClientError and SystemError; wraps other errors as SystemError.
func wrapHandlerError(err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) || IsSystemError(err) {
		return err
	}
	return &SystemError{Err: err}
}

// panicError wraps a recovered panic value for SystemError; used by Registry and WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
