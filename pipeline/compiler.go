package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/lux/edit"
)

// Compilation errors.
var (
	// ErrUnsatisfiableDependency is returned when a mask references an
	// operation that does not precede it in the declared order. The stack
	// must be fixed by the caller; compilation never reorders silently.
	ErrUnsatisfiableDependency = errors.New("pipeline: unsatisfiable mask dependency")

	// ErrEmptyFrame is returned when the source or a crop resolves to a
	// zero-area frame.
	ErrEmptyFrame = errors.New("pipeline: empty frame")
)

// Compile lowers a revision into a pass chain for a source of the given
// dimensions and content hash. Disabled operations contribute nothing and
// leave downstream keys exactly as if they were absent; adjacent enabled
// geometric operations fuse into a single resampling pass. Dimensions are
// resolved front to back so every pass knows its input and output size
// before anything executes.
func Compile(rev *edit.Revision, srcWidth, srcHeight int, contentHash uint64) (*Plan, error) {
	if srcWidth < 1 || srcHeight < 1 {
		return nil, fmt.Errorf("%w: source %dx%d", ErrEmptyFrame, srcWidth, srcHeight)
	}
	ops := rev.Ops()
	if err := edit.CheckDependencies(ops); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsatisfiableDependency, err)
	}

	plan := &Plan{Source: contentHash, Width: srcWidth, Height: srcHeight}
	prev := contentHash
	w, h := srcWidth, srcHeight

	var geo []GeoStep
	var geoIDs []edit.OpID
	geoInW, geoInH := 0, 0

	emit := func(p Pass) {
		p.Key = chainKey(prev, &p)
		prev = p.Key
		plan.Passes = append(plan.Passes, p)
	}
	flushGeo := func() {
		if len(geo) == 0 {
			return
		}
		emit(Pass{
			Kernel:   KernelGeometry,
			OpIDs:    geoIDs,
			Geo:      geo,
			InWidth:  geoInW,
			InHeight: geoInH,
			OutWidth: w, OutHeight: h,
		})
		geo, geoIDs = nil, nil
	}

	for _, op := range ops {
		if !op.Enabled {
			continue
		}
		k := op.Kind()
		if k.IsGeometric() {
			if len(geo) == 0 {
				geoInW, geoInH = w, h
			}
			step, outW, outH, err := resolveGeo(op, w, h)
			if err != nil {
				return nil, err
			}
			geo = append(geo, step)
			geoIDs = append(geoIDs, op.ID)
			w, h = outW, outH
			continue
		}
		flushGeo()

		p := Pass{OpIDs: []edit.OpID{op.ID}, InWidth: w, InHeight: h, OutWidth: w, OutHeight: h}
		switch params := op.Params.(type) {
		case edit.ExposureParams:
			p.Kernel = KernelExposure
			p.Uniforms = []float64{params.Stops}
		case edit.ContrastParams:
			p.Kernel = KernelContrast
			p.Uniforms = []float64{params.Amount}
		case edit.HighlightsParams:
			p.Kernel = KernelHighlights
			p.Uniforms = []float64{params.Amount}
		case edit.ShadowsParams:
			p.Kernel = KernelShadows
			p.Uniforms = []float64{params.Amount}
		case edit.WhitesParams:
			p.Kernel = KernelWhites
			p.Uniforms = []float64{params.Amount}
		case edit.BlacksParams:
			p.Kernel = KernelBlacks
			p.Uniforms = []float64{params.Amount}
		case edit.CurveParams:
			p.Kernel = KernelCurve
			p.LUT = bakeCurve(params.Sorted())
		case edit.WhiteBalanceParams:
			p.Kernel = KernelWhiteBalance
			p.Uniforms = []float64{params.Temperature, params.Tint}
		case edit.HSLParams:
			p.Kernel = KernelHSL
			p.Uniforms = []float64{params.HueShift, params.Saturation, params.Luminance}
		case edit.CalibrationParams:
			p.Kernel = KernelCalibration
			p.Uniforms = params.Matrix[:]
		case edit.LocalParams:
			p.Kernel = KernelLocal
			p.Uniforms = []float64{params.Adjust.Exposure, params.Adjust.Contrast, params.Adjust.Saturation}
			spec := params.Mask
			p.Mask = &spec
		default:
			return nil, fmt.Errorf("pipeline: %w: %s", edit.ErrUnknownOperation, k)
		}
		emit(p)
	}
	flushGeo()

	plan.Width, plan.Height = w, h
	return plan, nil
}

// resolveGeo lowers one geometric operation into a GeoStep and resolves
// the output dimensions it produces from a w x h input.
func resolveGeo(op edit.Operation, w, h int) (GeoStep, int, int, error) {
	switch params := op.Params.(type) {
	case edit.CropParams:
		x := math.Max(0, params.X)
		y := math.Max(0, params.Y)
		cw := math.Min(params.Width, float64(w)-x)
		ch := math.Min(params.Height, float64(h)-y)
		outW, outH := int(math.Round(cw)), int(math.Round(ch))
		if outW < 1 || outH < 1 {
			return GeoStep{}, 0, 0, fmt.Errorf("%w: crop %gx%g at (%g, %g) leaves nothing of %dx%d",
				ErrEmptyFrame, params.Width, params.Height, params.X, params.Y, w, h)
		}
		return GeoStep{Kind: edit.KindCrop, Args: []float64{x, y, cw, ch}}, outW, outH, nil

	case edit.RotateParams:
		rad := params.Degrees * math.Pi / 180
		c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
		outW := int(math.Round(float64(w)*c + float64(h)*s))
		outH := int(math.Round(float64(w)*s + float64(h)*c))
		fh, fv := 0.0, 0.0
		if params.FlipH {
			fh = 1
		}
		if params.FlipV {
			fv = 1
		}
		return GeoStep{Kind: edit.KindRotate, Args: []float64{params.Degrees, fh, fv}}, outW, outH, nil

	case edit.PerspectiveParams:
		return GeoStep{Kind: edit.KindPerspective, Args: []float64{params.Horizontal, params.Vertical}}, w, h, nil
	}
	return GeoStep{}, 0, 0, fmt.Errorf("pipeline: %w: %s is not geometric", edit.ErrUnknownOperation, op.Kind())
}
