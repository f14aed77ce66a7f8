// Package edit models the edit stack: an ordered, named sequence of
// operations with typed parameters. The stack is the canonical persisted
// state of an edit; every mutation produces a new immutable Revision and
// source pixels are never touched.
package edit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gogpu/lux/mask"
)

// OpID is the stable identity of an operation. Reordering or updating an
// operation never changes its ID, so local operations and history entries
// can reference it across revisions.
type OpID string

// NewOpID returns a fresh operation identity.
func NewOpID() OpID {
	return OpID(uuid.NewString())
}

// Kind tags the operation variant.
type Kind string

// Operation kinds. Tonal and color kinds are global (full-frame) pointwise
// operations; geometric kinds change the frame geometry; the local kind
// blends an adjustment through a mask.
const (
	KindExposure     Kind = "exposure"
	KindContrast     Kind = "contrast"
	KindHighlights   Kind = "highlights"
	KindShadows      Kind = "shadows"
	KindWhites       Kind = "whites"
	KindBlacks       Kind = "blacks"
	KindCurve        Kind = "curve"
	KindWhiteBalance Kind = "whiteBalance"
	KindHSL          Kind = "hsl"
	KindCalibration  Kind = "calibration"
	KindCrop         Kind = "crop"
	KindRotate       Kind = "rotate"
	KindPerspective  Kind = "perspective"
	KindLocal        Kind = "local"
)

// IsGeometric reports whether the kind changes frame geometry.
func (k Kind) IsGeometric() bool {
	switch k {
	case KindCrop, KindRotate, KindPerspective:
		return true
	}
	return false
}

// IsLocal reports whether the kind is a mask-bound local adjustment.
func (k Kind) IsLocal() bool { return k == KindLocal }

// Params is the kind-specific parameter record of an operation.
// Implementations are small value types with bounded numeric ranges.
type Params interface {
	// Kind returns the operation kind the parameters belong to.
	Kind() Kind

	// Validate checks the bounded ranges.
	Validate() error
}

// Operation is one entry of the edit stack.
type Operation struct {
	// ID is the stable identity (survives reorder and update).
	ID OpID

	// Enabled toggles the operation without losing its state. Disabled
	// operations are skipped by the compiler but keep their identity.
	Enabled bool

	// Params carries the kind tag and parameter record.
	Params Params
}

// Kind returns the operation's kind tag.
func (op Operation) Kind() Kind {
	if op.Params == nil {
		return ""
	}
	return op.Params.Kind()
}

// Mask returns the mask spec of a local operation, or nil.
func (op Operation) Mask() *mask.Spec {
	if lp, ok := op.Params.(LocalParams); ok {
		return &lp.Mask
	}
	return nil
}

// New creates an enabled operation with a fresh identity.
func New(p Params) Operation {
	return Operation{ID: NewOpID(), Enabled: true, Params: p}
}

// rangeErr reports a parameter outside its bounded range.
func rangeErr(kind Kind, field string, v, lo, hi float64) error {
	return fmt.Errorf("edit: %s.%s = %v outside [%v, %v]: %w", kind, field, v, lo, hi, ErrParamRange)
}
