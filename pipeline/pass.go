// Package pipeline compiles an edit revision into an ordered list of
// render passes. Compilation resolves parameters into kernel uniforms,
// bakes tone curves into lookup tables, fuses adjacent geometric
// operations into a single resampling pass and assigns every pass a
// chained content key, so that identical (source, prefix) pairs always
// produce identical keys and a change at position k perturbs exactly the
// keys from k to the end.
package pipeline

import (
	"github.com/gogpu/lux/edit"
	"github.com/gogpu/lux/mask"
)

// Kernel identifies the compute routine a pass runs. Every backend
// implements the same kernel set.
type Kernel string

const (
	KernelExposure     Kernel = "exposure"
	KernelContrast     Kernel = "contrast"
	KernelHighlights   Kernel = "highlights"
	KernelShadows      Kernel = "shadows"
	KernelWhites       Kernel = "whites"
	KernelBlacks       Kernel = "blacks"
	KernelCurve        Kernel = "curve"
	KernelWhiteBalance Kernel = "whiteBalance"
	KernelHSL          Kernel = "hsl"
	KernelCalibration  Kernel = "calibration"
	KernelGeometry     Kernel = "geometry"
	KernelLocal        Kernel = "local"
)

// GeoStep is one geometric transform inside a fused geometry pass,
// applied in order.
type GeoStep struct {
	Kind edit.Kind
	// Args packs the transform parameters:
	//   crop:        x, y, width, height
	//   rotate:      degrees, flipH (0/1), flipV (0/1)
	//   perspective: horizontal, vertical
	Args []float64
}

// Pass is one compiled render step. Pointwise passes keep the input
// dimensions; geometry passes change them. Key is the chained hash over
// the source content and every pass up to and including this one, so it
// doubles as the render cache key for the pass output.
type Pass struct {
	Kernel Kernel

	// OpIDs are the stack operations this pass realizes. Fused geometry
	// passes carry several.
	OpIDs []edit.OpID

	// Uniforms are the resolved scalar parameters, in kernel order.
	Uniforms []float64

	// LUT is the baked curve table for KernelCurve, 256 entries.
	LUT []float32

	// Geo is the ordered transform list for KernelGeometry.
	Geo []GeoStep

	// Mask is the coverage spec for KernelLocal.
	Mask *mask.Spec

	InWidth, InHeight   int
	OutWidth, OutHeight int

	Key uint64
}

// Plan is a compiled revision: the source identity plus the pass chain.
type Plan struct {
	// Source is the content hash of the decoded image the chain starts from.
	Source uint64

	Passes []Pass

	// Width and Height are the final output dimensions.
	Width, Height int
}

// FinalKey returns the cache key of the fully rendered output. With no
// passes it is the source hash itself.
func (p *Plan) FinalKey() uint64 {
	if len(p.Passes) == 0 {
		return p.Source
	}
	return p.Passes[len(p.Passes)-1].Key
}
