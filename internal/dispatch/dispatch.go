// Package dispatch routes named operations to their registered handlers.
//
// A Registry keeps one lookup table per operation category (tools,
// resources, prompts). Handlers are registered exactly once during server
// startup; after that the registry only answers Dispatch calls, so no
// locking is needed. Dispatch is a pure table lookup followed by a direct
// handler call: the registry never wraps results, rewrites errors, caches
// responses, or falls through to another category.
package dispatch

import (
	"context"
	"sort"
)

// Category is the namespace an operation lives in. Names are unique within
// a category but may repeat across categories: a tool named "read_file"
// and a resource named "read_file" are unrelated registrations.
type Category string

// The categories served over MCP.
const (
	CategoryTool     Category = "tool"
	CategoryResource Category = "resource"
	CategoryPrompt   Category = "prompt"
)

// Handler executes a single named operation. It receives the request
// parameters as decoded by the transport and returns a result or an error.
// The registry passes both through to the caller unchanged.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Registry maps (category, name) pairs to handlers.
//
// Create instances with NewRegistry; the zero value has no tables. The
// registry is intentionally unsynchronized: all Register calls happen on
// one goroutine before serving starts, and concurrent Dispatch calls after
// that point only read.
type Registry struct {
	handlers map[Category]map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Category]map[string]Handler),
	}
}

// Register binds handler to the (category, name) pair.
//
// Registering a pair twice fails with a DuplicateRegistrationError and
// leaves the first handler in place. A nil handler fails with
// ErrNilHandler before touching the table.
func (r *Registry) Register(category Category, name string, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	ops := r.handlers[category]
	if ops == nil {
		ops = make(map[string]Handler)
		r.handlers[category] = ops
	}

	if _, exists := ops[name]; exists {
		return &DuplicateRegistrationError{Category: category, Name: name}
	}

	ops[name] = handler
	return nil
}

// Dispatch invokes the handler registered for (category, name) and returns
// its result and error verbatim.
//
// If no handler is registered for the pair, Dispatch returns an
// UnknownOperationError naming it, and no handler runs. Lookups never
// cross categories.
func (r *Registry) Dispatch(ctx context.Context, category Category, name string, params map[string]any) (any, error) {
	handler, ok := r.handlers[category][name]
	if !ok {
		return nil, &UnknownOperationError{Category: category, Name: name}
	}
	return handler(ctx, params)
}

// Has reports whether a handler is registered for (category, name).
func (r *Registry) Has(category Category, name string) bool {
	_, ok := r.handlers[category][name]
	return ok
}

// Names returns the operation names registered under category, sorted for
// stable listings.
func (r *Registry) Names(category Category) []string {
	ops := r.handlers[category]
	if len(ops) == 0 {
		return nil
	}

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of registered handlers across all categories.
func (r *Registry) Len() int {
	total := 0
	for _, ops := range r.handlers {
		total += len(ops)
	}
	return total
}
