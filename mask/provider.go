package mask

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/cache"
)

// Inferencer is the external ML collaborator. Given an image and a model
// id it produces a single-channel coverage buffer sized to the input.
type Inferencer interface {
	// Infer runs the model. prompt is nil for full-frame models.
	// Implementations report a missing model as ErrModelUnavailable and
	// runtime failures as ErrInferenceFailed (possibly wrapped).
	Infer(ctx context.Context, frame *lux.Frame, model string, prompt *Box) (*Coverage, error)
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithCacheBudgetMB sets the coverage cache budget in megabytes.
func WithCacheBudgetMB(mb int) ProviderOption {
	return func(p *Provider) { p.cache = cache.New[baseKey, *Coverage](mb) }
}

// baseKey identifies a cached AI base coverage: the image content plus the
// model and prompt. Delta strokes are layered after lookup and never
// invalidate the base entry.
type baseKey struct {
	content uint64
	base    uint64
}

// Provider resolves mask specs into coverage buffers. Procedural masks
// rasterize locally and never fail; AI masks go through the inference
// collaborator with per-key single-flight and a budgeted cache, so two
// concurrent renders requesting the same (image, model) mask trigger
// exactly one inference call.
type Provider struct {
	inf   Inferencer
	cache *cache.LRU[baseKey, *Coverage]
	group singleflight.Group
}

// NewProvider creates a provider around an inference collaborator.
// inf may be nil; AI masks then fail with ErrModelUnavailable.
func NewProvider(inf Inferencer, opts ...ProviderOption) *Provider {
	p := &Provider{
		inf:   inf,
		cache: cache.New[baseKey, *Coverage](cache.DefaultBudgetMB),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve produces the coverage buffer for spec against the given frame.
// contentHash identifies the frame's pixel content for cache keying.
// The returned buffer is owned by the caller (always a private copy).
func (p *Provider) Resolve(ctx context.Context, spec Spec, frame *lux.Frame, contentHash uint64) (*Coverage, error) {
	if !spec.Kind.IsAI() {
		return Rasterize(spec, frame.Width(), frame.Height()), nil
	}

	base, err := p.resolveBase(ctx, spec, frame, contentHash)
	if err != nil {
		return nil, err
	}

	out := base.Clone()
	if spec.Delta != nil {
		switch spec.Combine {
		case CombineReplace:
			delta := NewCoverage(frame.Width(), frame.Height())
			rasterBrush(delta, spec.Delta, spec.Feather)
			out.Replace(delta)
		default:
			// Union: stamp strokes straight onto the base, so add
			// strokes raise coverage and erase strokes cut into it.
			rasterBrush(out, spec.Delta, spec.Feather)
		}
	}
	if spec.Invert {
		out.Invert()
	}
	return out, nil
}

// resolveBase returns the shared AI base coverage, running inference at
// most once per key across concurrent callers.
func (p *Provider) resolveBase(ctx context.Context, spec Spec, frame *lux.Frame, contentHash uint64) (*Coverage, error) {
	key := baseKey{content: contentHash, base: spec.BaseFingerprint()}
	if cov, ok := p.cache.Get(key); ok {
		return cov, nil
	}

	// The flight is shared by every caller with the same key, so it runs
	// detached from the initiator's context. Each caller still honors its
	// own cancellation while waiting; the flight finishes and fills the
	// cache for whoever remains.
	infCtx := context.WithoutCancel(ctx)
	sfKey := fmt.Sprintf("%x:%x", key.content, key.base)
	ch := p.group.DoChan(sfKey, func() (any, error) {
		// Re-check: another flight may have filled the cache between the
		// miss and the singleflight admission.
		if cov, ok := p.cache.Get(key); ok {
			return cov, nil
		}
		if p.inf == nil {
			return nil, fmt.Errorf("%w: no inference collaborator configured", ErrModelUnavailable)
		}
		cov, err := p.inf.Infer(infCtx, frame, spec.Model, spec.Prompt)
		if err != nil {
			return nil, err
		}
		if cov == nil || cov.Width() != frame.Width() || cov.Height() != frame.Height() {
			return nil, fmt.Errorf("%w: coverage size mismatch", ErrInferenceFailed)
		}
		p.cache.Put(key, cov, cov.SizeBytes())
		return cov, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		lux.Logger().Debug("mask: base coverage resolved",
			slog.String("model", spec.Model), slog.Bool("shared", res.Shared))
		return res.Val.(*Coverage), nil
	}
}

// CacheStats returns coverage cache statistics.
func (p *Provider) CacheStats() cache.Stats { return p.cache.Stats() }
