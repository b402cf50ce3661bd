package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Handler executes one job. Args is the raw JSON argument object from the
// envelope; the handler decodes it into its own typed parameters. The broker
// delivers at least once, so handlers must tolerate re-execution.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Registry maps stable job names to handlers. Each worker process owns one
// registry, populated at start-up and fixed afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job name. Binding the same name twice is a
// configuration error and fails with ErrDuplicateRegistration.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("job name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for %q must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrDuplicateRegistration)
	}

	r.handlers[name] = handler
	return nil
}

// Dispatch invokes the handler bound to name synchronously and returns its
// outcome unmodified. An unbound name fails with ErrUnknownJob.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownJob)
	}

	return handler(ctx, args)
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
