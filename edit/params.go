package edit

import (
	"fmt"
	"sort"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/mask"
)

// ExposureParams shifts exposure in stops.
type ExposureParams struct {
	// Stops is the exposure compensation in EV, within [-5, +5].
	Stops float64 `json:"stops"`
}

// Kind implements Params.
func (ExposureParams) Kind() Kind { return KindExposure }

// Validate implements Params.
func (p ExposureParams) Validate() error {
	if p.Stops < -5 || p.Stops > 5 {
		return rangeErr(KindExposure, "stops", p.Stops, -5, 5)
	}
	return nil
}

// AmountParams is the shared record for the single-slider tonal kinds:
// contrast, highlights, shadows, whites and blacks.
type AmountParams struct {
	// Amount is the adjustment strength within [-100, +100].
	Amount float64 `json:"amount"`
}

func (p AmountParams) validateAs(k Kind) error {
	if p.Amount < -100 || p.Amount > 100 {
		return rangeErr(k, "amount", p.Amount, -100, 100)
	}
	return nil
}

// ContrastParams adjusts global contrast.
type ContrastParams struct{ AmountParams }

// Kind implements Params.
func (ContrastParams) Kind() Kind { return KindContrast }

// Validate implements Params.
func (p ContrastParams) Validate() error { return p.validateAs(KindContrast) }

// HighlightsParams compresses or lifts the highlight range.
type HighlightsParams struct{ AmountParams }

// Kind implements Params.
func (HighlightsParams) Kind() Kind { return KindHighlights }

// Validate implements Params.
func (p HighlightsParams) Validate() error { return p.validateAs(KindHighlights) }

// ShadowsParams lifts or deepens the shadow range.
type ShadowsParams struct{ AmountParams }

// Kind implements Params.
func (ShadowsParams) Kind() Kind { return KindShadows }

// Validate implements Params.
func (p ShadowsParams) Validate() error { return p.validateAs(KindShadows) }

// WhitesParams moves the white clipping point.
type WhitesParams struct{ AmountParams }

// Kind implements Params.
func (WhitesParams) Kind() Kind { return KindWhites }

// Validate implements Params.
func (p WhitesParams) Validate() error { return p.validateAs(KindWhites) }

// BlacksParams moves the black clipping point.
type BlacksParams struct{ AmountParams }

// Kind implements Params.
func (BlacksParams) Kind() Kind { return KindBlacks }

// Validate implements Params.
func (p BlacksParams) Validate() error { return p.validateAs(KindBlacks) }

// CurvePoint is one control point of a tone curve, in [0, 1] coordinates.
type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CurveParams is a tone curve over the luminance range. Control points must
// be strictly increasing in X; evaluation is monotone cubic interpolation.
type CurveParams struct {
	Points []CurvePoint `json:"points"`
}

// Kind implements Params.
func (CurveParams) Kind() Kind { return KindCurve }

// Validate implements Params.
func (p CurveParams) Validate() error {
	if len(p.Points) < 2 {
		return fmt.Errorf("edit: curve needs at least 2 points, got %d: %w", len(p.Points), ErrParamRange)
	}
	for i, pt := range p.Points {
		if pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
			return rangeErr(KindCurve, "point", pt.X, 0, 1)
		}
		if i > 0 && pt.X <= p.Points[i-1].X {
			return fmt.Errorf("edit: curve points must be strictly increasing in x: %w", ErrParamRange)
		}
	}
	return nil
}

// Sorted returns the control points ordered by X. The result is a copy.
func (p CurveParams) Sorted() []CurvePoint {
	pts := make([]CurvePoint, len(p.Points))
	copy(pts, p.Points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return pts
}

// WhiteBalanceParams adjusts color temperature and tint relative to the
// as-shot white balance.
type WhiteBalanceParams struct {
	// Temperature shifts blue-yellow within [-100, +100].
	Temperature float64 `json:"temperature"`
	// Tint shifts green-magenta within [-100, +100].
	Tint float64 `json:"tint"`
}

// Kind implements Params.
func (WhiteBalanceParams) Kind() Kind { return KindWhiteBalance }

// Validate implements Params.
func (p WhiteBalanceParams) Validate() error {
	if p.Temperature < -100 || p.Temperature > 100 {
		return rangeErr(KindWhiteBalance, "temperature", p.Temperature, -100, 100)
	}
	if p.Tint < -100 || p.Tint > 100 {
		return rangeErr(KindWhiteBalance, "tint", p.Tint, -100, 100)
	}
	return nil
}

// HSLParams shifts hue, saturation and luminance globally.
type HSLParams struct {
	// HueShift rotates hue in degrees within [-180, +180].
	HueShift float64 `json:"hueShift"`
	// Saturation scales chroma within [-100, +100].
	Saturation float64 `json:"saturation"`
	// Luminance scales brightness within [-100, +100].
	Luminance float64 `json:"luminance"`
}

// Kind implements Params.
func (HSLParams) Kind() Kind { return KindHSL }

// Validate implements Params.
func (p HSLParams) Validate() error {
	if p.HueShift < -180 || p.HueShift > 180 {
		return rangeErr(KindHSL, "hueShift", p.HueShift, -180, 180)
	}
	if p.Saturation < -100 || p.Saturation > 100 {
		return rangeErr(KindHSL, "saturation", p.Saturation, -100, 100)
	}
	if p.Luminance < -100 || p.Luminance > 100 {
		return rangeErr(KindHSL, "luminance", p.Luminance, -100, 100)
	}
	return nil
}

// CalibrationParams applies a 3x3 color matrix in linear space.
type CalibrationParams struct {
	// Matrix is row-major. The zero value is invalid; use Identity.
	Matrix [9]float64 `json:"matrix"`
}

// Identity is the no-op calibration matrix.
var Identity = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Kind implements Params.
func (CalibrationParams) Kind() Kind { return KindCalibration }

// Validate implements Params.
func (p CalibrationParams) Validate() error {
	if p.Matrix == ([9]float64{}) {
		return fmt.Errorf("edit: calibration matrix is all-zero: %w", ErrParamRange)
	}
	return nil
}

// CropParams crops to a rectangle in the coordinates of the frame the
// operation receives (post upstream geometry).
type CropParams struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Kind implements Params.
func (CropParams) Kind() Kind { return KindCrop }

// Validate implements Params.
func (p CropParams) Validate() error {
	if p.Width < 1 || p.Height < 1 {
		return fmt.Errorf("edit: crop %gx%g smaller than one pixel: %w", p.Width, p.Height, ErrParamRange)
	}
	if p.X < 0 || p.Y < 0 {
		return rangeErr(KindCrop, "origin", p.X, 0, float64(int(^uint(0)>>1)))
	}
	return nil
}

// Rect returns the crop rectangle.
func (p CropParams) Rect() lux.Rect {
	return lux.XYWH(p.X, p.Y, p.Width, p.Height)
}

// RotateParams rotates around the frame center and optionally mirrors.
// The output frame is sized to the rotated bounding box.
type RotateParams struct {
	// Degrees is the counter-clockwise rotation within [-180, +180].
	Degrees float64 `json:"degrees"`
	// FlipH mirrors horizontally before rotating.
	FlipH bool `json:"flipH"`
	// FlipV mirrors vertically before rotating.
	FlipV bool `json:"flipV"`
}

// Kind implements Params.
func (RotateParams) Kind() Kind { return KindRotate }

// Validate implements Params.
func (p RotateParams) Validate() error {
	if p.Degrees < -180 || p.Degrees > 180 {
		return rangeErr(KindRotate, "degrees", p.Degrees, -180, 180)
	}
	return nil
}

// PerspectiveParams applies a keystone correction. Horizontal and Vertical
// skew the frame as if tilting the camera; output keeps the input size.
type PerspectiveParams struct {
	// Horizontal keystone within [-1, +1].
	Horizontal float64 `json:"horizontal"`
	// Vertical keystone within [-1, +1].
	Vertical float64 `json:"vertical"`
}

// Kind implements Params.
func (PerspectiveParams) Kind() Kind { return KindPerspective }

// Validate implements Params.
func (p PerspectiveParams) Validate() error {
	if p.Horizontal < -1 || p.Horizontal > 1 {
		return rangeErr(KindPerspective, "horizontal", p.Horizontal, -1, 1)
	}
	if p.Vertical < -1 || p.Vertical > 1 {
		return rangeErr(KindPerspective, "vertical", p.Vertical, -1, 1)
	}
	return nil
}

// Adjustment is the effect record of a local operation: the pointwise
// tweaks blended into the frame through the mask.
type Adjustment struct {
	// Exposure in stops within [-5, +5].
	Exposure float64 `json:"exposure"`
	// Contrast within [-100, +100].
	Contrast float64 `json:"contrast"`
	// Saturation within [-100, +100].
	Saturation float64 `json:"saturation"`
}

// Validate checks the bounded ranges.
func (a Adjustment) Validate() error {
	if a.Exposure < -5 || a.Exposure > 5 {
		return rangeErr(KindLocal, "exposure", a.Exposure, -5, 5)
	}
	if a.Contrast < -100 || a.Contrast > 100 {
		return rangeErr(KindLocal, "contrast", a.Contrast, -100, 100)
	}
	if a.Saturation < -100 || a.Saturation > 100 {
		return rangeErr(KindLocal, "saturation", a.Saturation, -100, 100)
	}
	return nil
}

// LocalParams is a mask-bound local adjustment. The operation owns its
// mask spec; AI coverage buffers behind the spec are shared and
// reference-counted by the mask provider cache.
type LocalParams struct {
	// Adjust is the effect applied where the mask covers.
	Adjust Adjustment `json:"adjust"`
	// Mask selects where the adjustment applies.
	Mask mask.Spec `json:"mask"`
}

// Kind implements Params.
func (LocalParams) Kind() Kind { return KindLocal }

// Validate implements Params.
func (p LocalParams) Validate() error {
	if err := p.Adjust.Validate(); err != nil {
		return err
	}
	return p.Mask.Validate()
}
