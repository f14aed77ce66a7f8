// Package engine executes compiled render plans against a backend and
// caches intermediate results keyed by the plan's chained pass keys.
// Identical (source, prefix) pairs always resolve to the same key, so an
// edit at position k re-renders exactly the passes from k onward.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/cache"
	"github.com/gogpu/lux/mask"
	"github.com/gogpu/lux/pipeline"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCacheBudgetMB sets the render cache budget in megabytes.
func WithCacheBudgetMB(mb int) Option {
	return func(e *Engine) { e.cacheMB = mb }
}

// WithMaskProvider sets the provider used to resolve mask coverage for
// local passes. Without one, AI masks degrade to their procedural delta.
func WithMaskProvider(p *mask.Provider) Option {
	return func(e *Engine) { e.masks = p }
}

// coverageCacheMB bounds the procedural-coverage cache. Coverage is one
// byte per pixel, so this holds dozens of full-frame masks.
const coverageCacheMB = 32

// covKey identifies a rasterized procedural coverage buffer.
type covKey struct {
	fp            uint64
	width, height int
}

// Engine renders plans. Safe for concurrent Render calls; pass execution
// on the backend is serialized.
type Engine struct {
	backend Backend
	masks   *mask.Provider
	cacheMB int

	mu       sync.Mutex
	cache    *cache.LRU[uint64, *lux.Frame]
	coverage *cache.LRU[covKey, *mask.Coverage]

	stats Stats
}

// Stats counts engine activity since creation.
type Stats struct {
	// PassesRun is the number of passes executed on the backend.
	PassesRun uint64
	// PassesCached is the number of passes satisfied from the cache.
	PassesCached uint64
	// Recoveries counts successful retries after device loss or OOM.
	Recoveries uint64
}

// Result is a finished render.
type Result struct {
	// Frame is the rendered output, in linear light.
	Frame *lux.Frame

	// Degraded is true when an AI mask could not be resolved and the
	// render fell back to the mask's procedural components.
	Degraded bool
}

// New creates an engine on the given backend. A nil backend selects the
// registry default.
func New(backend Backend, opts ...Option) (*Engine, error) {
	if backend == nil {
		backend = Default()
	}
	if backend == nil {
		return nil, ErrNoBackend
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("engine: init %s: %w", backend.Name(), err)
	}
	e := &Engine{backend: backend, cacheMB: cache.DefaultBudgetMB}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = cache.New[uint64, *lux.Frame](e.cacheMB)
	e.coverage = cache.New[covKey, *mask.Coverage](coverageCacheMB)
	return e, nil
}

// Close releases the backend.
func (e *Engine) Close() error {
	e.cache.Clear()
	e.coverage.Clear()
	return e.backend.Close()
}

// Backend returns the backend name.
func (e *Engine) Backend() string { return e.backend.Name() }

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// CacheStats returns the render cache counters.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// InvalidateSource drops every cached intermediate. Used when the source
// image itself is replaced.
func (e *Engine) InvalidateSource() { e.cache.Clear() }

// Render executes a plan. src must be the decoded frame whose content
// hash the plan was compiled against. Cached intermediates are reused for
// the longest prefix whose keys still match; cancellation is honored at
// every pass boundary.
func (e *Engine) Render(ctx context.Context, plan *pipeline.Plan, src *lux.Frame) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &Result{}

	// Find the deepest cached intermediate.
	start := 0
	cur := src
	for i := len(plan.Passes) - 1; i >= 0; i-- {
		if f, ok := e.cache.Get(plan.Passes[i].Key); ok {
			start = i + 1
			cur = f
			e.stats.PassesCached += uint64(i + 1)
			break
		}
	}

	for i := start; i < len(plan.Passes); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pass := &plan.Passes[i]

		cov, degraded, err := e.resolveCoverage(ctx, pass, cur, plan.Source)
		if err != nil {
			return nil, err
		}
		res.Degraded = res.Degraded || degraded

		out, err := e.runPass(ctx, pass, cur, cov)
		if err != nil {
			return nil, err
		}
		e.stats.PassesRun++
		// A degraded pass, and everything downstream of it, is not the
		// frame the key promises. Caching it would serve the fallback
		// pixels on every later render and inference would never retry.
		if !res.Degraded {
			e.cache.Put(pass.Key, out, out.SizeBytes())
		}
		cur = out
	}

	// Cached intermediates are shared; callers always get a private copy.
	res.Frame = cur.Clone()
	return res, nil
}

// runPass executes one pass with the recovery policy: evict and retry
// once on OOM, reinit and retry once on device loss.
func (e *Engine) runPass(ctx context.Context, pass *pipeline.Pass, in *lux.Frame, cov *mask.Coverage) (*lux.Frame, error) {
	out, err := e.backend.Run(ctx, pass, in, cov)
	switch {
	case err == nil:
		return out, nil

	case errors.Is(err, ErrOutOfDeviceMemory):
		lux.Logger().Warn("render pass out of device memory, evicting cache",
			slog.String("kernel", string(pass.Kernel)),
			slog.String("backend", e.backend.Name()))
		e.cache.Clear()

	case errors.Is(err, ErrDeviceLost):
		lux.Logger().Warn("device lost, reinitializing backend",
			slog.String("backend", e.backend.Name()))
		e.cache.Clear()
		r, ok := e.backend.(Reiniter)
		if !ok {
			return nil, err
		}
		if rerr := r.Reinit(); rerr != nil {
			return nil, fmt.Errorf("engine: reinit after device loss: %w", rerr)
		}

	default:
		return nil, err
	}

	out, err = e.backend.Run(ctx, pass, in, cov)
	if err != nil {
		return nil, err
	}
	e.stats.Recoveries++
	return out, nil
}

// resolveCoverage produces the mask coverage for a local pass, at the
// dimensions of the frame the pass receives. AI masks that cannot be
// resolved degrade to their procedural parts rather than failing the
// render. The coverage cache key folds the pass dimensions into the
// source hash: tonal upstream edits keep the key stable and never
// re-trigger inference, geometry changes do.
func (e *Engine) resolveCoverage(ctx context.Context, pass *pipeline.Pass, in *lux.Frame, sourceHash uint64) (*mask.Coverage, bool, error) {
	if pass.Kernel != pipeline.KernelLocal || pass.Mask == nil {
		return nil, false, nil
	}
	spec := *pass.Mask

	if spec.Kind.IsAI() && e.masks != nil {
		key := sourceHash ^ uint64(pass.InWidth)<<32 ^ uint64(pass.InHeight)
		cov, err := e.masks.Resolve(ctx, spec, in, key)
		if err == nil {
			return cov, false, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		lux.Logger().Warn("mask inference unavailable, rendering degraded",
			slog.String("mask", spec.ID),
			slog.String("model", spec.Model),
			slog.Any("error", err))
	}

	if spec.Kind.IsAI() {
		// Degraded path: the delta strokes are all that remains.
		cov := mask.NewCoverage(pass.InWidth, pass.InHeight)
		if spec.Delta != nil {
			brush := spec
			brush.Kind = mask.KindBrush
			brush.Brush = spec.Delta
			brush.Invert = false
			cov = mask.Rasterize(brush, pass.InWidth, pass.InHeight)
		}
		if spec.Invert {
			cov.Invert()
		}
		return cov, true, nil
	}

	return e.proceduralCoverage(spec, pass.InWidth, pass.InHeight), false, nil
}

// proceduralCoverage rasterizes a procedural mask, memoized by the
// spec's fingerprint and the target dimensions so that upstream tonal
// edits do not re-rasterize it on every pass. Backends treat coverage
// as read-only, so cached buffers are shared without cloning.
func (e *Engine) proceduralCoverage(spec mask.Spec, w, h int) *mask.Coverage {
	key := covKey{fp: spec.Fingerprint(), width: w, height: h}
	if cov, ok := e.coverage.Get(key); ok {
		return cov
	}
	cov := mask.Rasterize(spec, w, h)
	e.coverage.Put(key, cov, cov.SizeBytes())
	return cov
}
