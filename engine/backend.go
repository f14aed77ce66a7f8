package engine

import (
	"context"
	"sync"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/mask"
	"github.com/gogpu/lux/pipeline"
)

// Backend names.
const (
	BackendSoftware = "software"
	BackendWGPU     = "wgpu"
)

// Backend executes compiled render passes. Implementations are not
// required to be safe for concurrent Run calls; the engine serializes
// execution per render.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Init prepares the backend for execution.
	Init() error

	// Run executes one pass. in is the upstream frame; cov is the resolved
	// mask coverage for local passes and nil otherwise. The input frame is
	// never mutated.
	Run(ctx context.Context, pass *pipeline.Pass, in *lux.Frame, cov *mask.Coverage) (*lux.Frame, error)

	// Close releases backend resources.
	Close() error
}

// Reiniter is implemented by backends that can recover from device loss.
type Reiniter interface {
	Reinit() error
}

// Factory creates a backend instance.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)

	// First available wins. The software backend is the reference
	// implementation and always the fallback.
	priority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory under a name, typically from an
// init function in the backend package. A same-named factory is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// Open returns a backend instance by name.
func Open(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrNoBackend
	}
	return factory(), nil
}

// Default returns the best available backend by priority, falling back to
// any registered one. Returns nil when the registry is empty.
func Default() Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range priority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				return b
			}
		}
	}
	for _, factory := range backends {
		if b := factory(); b != nil {
			return b
		}
	}
	return nil
}
