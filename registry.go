package toolrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Registry holds tools and executes them with optional timeout and panic recovery.
// It is safe for concurrent use; there is no package-level default registry.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Invoke
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		recoverPanics: true,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
		done:     make(chan struct{}),
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool before registration.
// If a tool with the same name already exists, it is replaced.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidTool)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawTools[name] = t
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
	return nil
}

// MustRegister is Register that panics on error. Intended for wiring tools at startup.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic("toolrun: " + err.Error())
		}
	}
}

// GetAllTools returns all registered tools sorted by name for deterministic order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// FindByTag returns the tools tagged with tag (see WithTags), sorted by name.
// Tools that do not implement ToolMetadata have no tags.
func (r *Registry) FindByTag(tag string) []Tool {
	var out []Tool
	for _, t := range r.GetAllTools() {
		if tm, ok := t.(ToolMetadata); ok && slices.Contains(tm.Tags(), tag) {
			out = append(out, t)
		}
	}
	return out
}

// GetTool returns the tool with the given name (after middlewares are applied), or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke runs one tool by name. Unknown names return an error wrapping ErrToolNotFound.
// This is the primitive that batch, response and stream processing build on.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	res := r.execute(ctx, ToolCall{Name: name, Args: args})
	return res.Result, res.Err
}

// execute resolves and runs a single call. Every failure is recorded in the returned Result.
// The after-execution hook (WithOnAfterExecute) is always invoked with the final Result.
func (r *Registry) execute(ctx context.Context, call ToolCall) (res Result) {
	if len(call.Args) == 0 {
		call.Args = json.RawMessage(`{}`)
	}
	res = Result{ToolName: call.Name, Args: call.Args}

	start := time.Now()
	// Registered first so it also sees shutdown, unknown-tool and cancelled-context failures.
	// The recover defer below runs before it on panic and sets res.Err.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, res, time.Since(start))
		}
	}()

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		res.Err = ErrShutdown
		return res
	default:
	}
	tool, ok := r.tools[call.Name]
	if !ok {
		r.mu.Unlock()
		res.Err = fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
		return res
	}
	r.running.Add(1)
	r.mu.Unlock()
	defer r.running.Done()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	timeout := r.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res.Result = nil
				res.Err = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s: %w", call.Name, ErrTimeout)
		}
		res.Err = err
		return res
	}
	res.Result = out
	return res
}

// Shutdown closes the registry for new calls and waits for in-flight executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
