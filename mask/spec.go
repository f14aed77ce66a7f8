// Package mask provides per-pixel coverage masks for local adjustments:
// procedural geometry (radial, linear, brush) rasterized on demand, and
// AI-derived coverage produced by an external inference collaborator and
// cached by image content and model identity.
package mask

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Mask errors.
var (
	// ErrModelUnavailable is returned when the inference collaborator has no
	// model for the requested id.
	ErrModelUnavailable = errors.New("mask: model unavailable")

	// ErrInferenceFailed is returned when inference ran but produced no
	// usable coverage.
	ErrInferenceFailed = errors.New("mask: inference failed")

	// ErrInvalidSpec is returned for malformed mask specs.
	ErrInvalidSpec = errors.New("mask: invalid spec")
)

// Kind tags the mask variant.
type Kind string

// Mask kinds. Radial, linear and brush are procedural and never fail to
// rasterize. The AI kinds require the inference collaborator.
const (
	KindRadial       Kind = "radial"
	KindLinear       Kind = "linear"
	KindBrush        Kind = "brush"
	KindAISubject    Kind = "aiSubject"
	KindAIForeground Kind = "aiForeground"
	KindAISky        Kind = "aiSky"
)

// IsAI reports whether the kind requires model inference.
func (k Kind) IsAI() bool {
	switch k {
	case KindAISubject, KindAIForeground, KindAISky:
		return true
	}
	return false
}

// CombineMode resolves how a procedural refinement combines with an
// AI-derived base when both are present on one spec. This is an explicit
// configuration choice, never an implicit default of the renderer.
type CombineMode string

const (
	// CombineMax takes the per-pixel maximum (union). Default.
	CombineMax CombineMode = "max"

	// CombineReplace discards the base where the refinement has coverage.
	CombineReplace CombineMode = "replace"
)

// RadialGeometry is an elliptical gradient mask.
type RadialGeometry struct {
	// CenterX, CenterY is the ellipse center in frame pixels.
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	// RadiusX, RadiusY are the semi-axes in pixels.
	RadiusX float64 `json:"radiusX"`
	RadiusY float64 `json:"radiusY"`
}

// LinearGeometry is a linear gradient mask: full coverage at Start fading
// to none at End.
type LinearGeometry struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// Stroke is one brush stroke: a polyline stamped with a round tip.
type Stroke struct {
	// Points are the polyline vertices in frame pixels, as x,y pairs.
	Points []float64 `json:"points"`
	// Radius is the tip radius in pixels.
	Radius float64 `json:"radius"`
	// Pressure scales coverage within (0, 1].
	Pressure float64 `json:"pressure"`
	// Erase removes coverage instead of adding it.
	Erase bool `json:"erase,omitempty"`
}

// BrushGeometry is a set of strokes.
type BrushGeometry struct {
	Strokes []Stroke `json:"strokes"`
}

// Spec describes a mask. Exactly one geometry (or an AI model) is set,
// according to Kind. Specs are owned by the edit operation that references
// them; AI coverage buffers resolved from a spec are shared through the
// provider cache.
type Spec struct {
	// ID is the stable mask identity.
	ID string `json:"id"`

	// Kind selects the variant.
	Kind Kind `json:"kind"`

	// Invert flips the final coverage.
	Invert bool `json:"invert,omitempty"`

	// Feather is the soft edge width in pixels (procedural kinds).
	Feather float64 `json:"feather,omitempty"`

	Radial *RadialGeometry `json:"radial,omitempty"`
	Linear *LinearGeometry `json:"linear,omitempty"`
	Brush  *BrushGeometry  `json:"brush,omitempty"`

	// Model is the inference model id for AI kinds.
	Model string `json:"model,omitempty"`

	// Prompt is the box prompt for subject masks, in frame pixels.
	Prompt *Box `json:"prompt,omitempty"`

	// Delta holds user refinement strokes layered on top of the AI base.
	// Editing the delta does not invalidate the cached base coverage.
	Delta *BrushGeometry `json:"delta,omitempty"`

	// Combine resolves delta-vs-base compositing. Empty means CombineMax.
	Combine CombineMode `json:"combine,omitempty"`

	// DependsOn names the edit operation (by id) whose geometry this mask
	// was authored against. The compiler rejects stacks where that
	// operation does not precede the mask's owner.
	DependsOn string `json:"dependsOn,omitempty"`
}

// Box is an axis-aligned prompt rectangle.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRadial creates a radial mask spec.
func NewRadial(cx, cy, rx, ry, feather float64) Spec {
	return Spec{
		ID:      uuid.NewString(),
		Kind:    KindRadial,
		Feather: feather,
		Radial:  &RadialGeometry{CenterX: cx, CenterY: cy, RadiusX: rx, RadiusY: ry},
	}
}

// NewLinear creates a linear gradient mask spec.
func NewLinear(x0, y0, x1, y1 float64) Spec {
	return Spec{
		ID:     uuid.NewString(),
		Kind:   KindLinear,
		Linear: &LinearGeometry{StartX: x0, StartY: y0, EndX: x1, EndY: y1},
	}
}

// NewBrush creates a brush mask spec.
func NewBrush(strokes ...Stroke) Spec {
	return Spec{
		ID:    uuid.NewString(),
		Kind:  KindBrush,
		Brush: &BrushGeometry{Strokes: strokes},
	}
}

// NewAI creates an AI-derived mask spec for the given kind and model id.
func NewAI(kind Kind, model string) Spec {
	return Spec{ID: uuid.NewString(), Kind: kind, Model: model}
}

// Validate checks internal consistency.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindRadial:
		if s.Radial == nil || s.Radial.RadiusX <= 0 || s.Radial.RadiusY <= 0 {
			return fmt.Errorf("%w: radial mask needs positive radii", ErrInvalidSpec)
		}
	case KindLinear:
		if s.Linear == nil {
			return fmt.Errorf("%w: linear mask needs geometry", ErrInvalidSpec)
		}
		if s.Linear.StartX == s.Linear.EndX && s.Linear.StartY == s.Linear.EndY {
			return fmt.Errorf("%w: linear mask start and end coincide", ErrInvalidSpec)
		}
	case KindBrush:
		if s.Brush == nil || len(s.Brush.Strokes) == 0 {
			return fmt.Errorf("%w: brush mask needs at least one stroke", ErrInvalidSpec)
		}
	case KindAISubject, KindAIForeground, KindAISky:
		if s.Model == "" {
			return fmt.Errorf("%w: AI mask needs a model id", ErrInvalidSpec)
		}
		if s.Kind == KindAISubject && s.Prompt == nil {
			return fmt.Errorf("%w: subject mask needs a box prompt", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
	if s.Feather < 0 {
		return fmt.Errorf("%w: negative feather", ErrInvalidSpec)
	}
	switch s.Combine {
	case "", CombineMax, CombineReplace:
	default:
		return fmt.Errorf("%w: unknown combine mode %q", ErrInvalidSpec, s.Combine)
	}
	return nil
}

// Fingerprint is a stable hash of everything that affects the rasterized
// coverage. It feeds the render cache key of the mask pass.
func (s Spec) Fingerprint() uint64 {
	// Identity and dependency bookkeeping do not change pixels.
	c := s
	c.ID = ""
	c.DependsOn = ""
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

// BaseFingerprint hashes only the inputs of the AI base coverage (model and
// prompt), excluding delta strokes and final shaping. It keys the provider
// cache, so refining a delta never invalidates the cached base.
func (s Spec) BaseFingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(s.Kind))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(s.Model)
	if s.Prompt != nil {
		b, _ := json.Marshal(s.Prompt)
		_, _ = d.Write(b)
	}
	return d.Sum64()
}
