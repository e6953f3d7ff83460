// Package runner holds the node runner registry (C3) and the concrete
// runner adapters that plug into it: trigger, source, filter, executor and
// sink capabilities. The registry itself owns no business logic — it
// holds a mapping from a node's kind string to a Runner implementation
// and is consulted once per node per run. Grounded on the mutex-guarded
// id/name registry pattern used for node adapters upstream.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/flowlayer/flowengine/internal/domain"
)

// Runner is the abstract capability a node's kind selects: given the
// node's config and its merged upstream input, produce a NodeOutput or
// fail. Runners receive ctx and must abort external calls when it is
// canceled.
type Runner interface {
	Run(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error)

func (f RunnerFunc) Run(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	return f(ctx, config, input)
}

// Registry maps a node's kind string to the Runner that executes it.
type Registry struct {
	mu     sync.RWMutex
	byKind map[string]Runner
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[string]Runner)}
}

// Register associates kind with r. Registering the same kind twice is an
// error — kinds are meant to be wired once at startup.
func (reg *Registry) Register(kind string, r Runner) error {
	if kind == "" {
		return errors.New("runner kind cannot be empty")
	}
	if r == nil {
		return errors.New("runner cannot be nil")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.byKind[kind]; exists {
		return errors.New("runner kind already registered: " + kind)
	}
	reg.byKind[kind] = r
	return nil
}

// Lookup returns the runner registered for kind, if any.
func (reg *Registry) Lookup(kind string) (Runner, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.byKind[kind]
	return r, ok
}
