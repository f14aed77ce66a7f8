package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/edit"
	"github.com/gogpu/lux/mask"
	"github.com/gogpu/lux/pipeline"
)

func init() {
	Register(BackendSoftware, func() Backend { return NewSoftware() })
}

// Software is the CPU reference backend. It defines the exact arithmetic
// every other backend must reproduce: all kernels run in linear float32
// and identical inputs give byte-identical outputs.
type Software struct{}

// NewSoftware creates the CPU backend.
func NewSoftware() *Software { return &Software{} }

// Name implements Backend.
func (s *Software) Name() string { return BackendSoftware }

// Init implements Backend.
func (s *Software) Init() error { return nil }

// Close implements Backend.
func (s *Software) Close() error { return nil }

// Run implements Backend.
func (s *Software) Run(ctx context.Context, pass *pipeline.Pass, in *lux.Frame, cov *mask.Coverage) (*lux.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch pass.Kernel {
	case pipeline.KernelExposure:
		return mapRGB(in, func(v float32) float32 {
			return v * float32(math.Exp2(pass.Uniforms[0]))
		}), nil
	case pipeline.KernelContrast:
		return mapRGB(in, contrastFn(pass.Uniforms[0])), nil
	case pipeline.KernelHighlights:
		return mapTonal(in, pass.Uniforms[0], 0.5, 1.0), nil
	case pipeline.KernelShadows:
		return mapTonal(in, pass.Uniforms[0], 0.5, 0.0), nil
	case pipeline.KernelWhites:
		return mapRGB(in, func(v float32) float32 {
			return v * float32(1+pass.Uniforms[0]/400)
		}), nil
	case pipeline.KernelBlacks:
		b := float32(pass.Uniforms[0] / 400)
		return mapRGB(in, func(v float32) float32 {
			return v - b*(1-v)
		}), nil
	case pipeline.KernelCurve:
		return applyCurve(in, pass.LUT), nil
	case pipeline.KernelWhiteBalance:
		return applyWhiteBalance(in, pass.Uniforms[0], pass.Uniforms[1]), nil
	case pipeline.KernelHSL:
		return applyHSL(in, pass.Uniforms[0], pass.Uniforms[1], pass.Uniforms[2]), nil
	case pipeline.KernelCalibration:
		return applyMatrix(in, pass.Uniforms), nil
	case pipeline.KernelGeometry:
		return applyGeometry(ctx, in, pass.Geo)
	case pipeline.KernelLocal:
		return applyLocal(in, cov, pass.Uniforms[0], pass.Uniforms[1], pass.Uniforms[2]), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKernelUnsupported, pass.Kernel)
}

// mapRGB applies a pointwise function to the color channels, leaving
// alpha untouched.
func mapRGB(in *lux.Frame, fn func(float32) float32) *lux.Frame {
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	for i := 0; i < len(src); i += 4 {
		dst[i] = fn(src[i])
		dst[i+1] = fn(src[i+1])
		dst[i+2] = fn(src[i+2])
		dst[i+3] = src[i+3]
	}
	return out
}

// contrastFn scales around middle grey. amount is in [-100, 100].
func contrastFn(amount float64) func(float32) float32 {
	const pivot = 0.18
	f := float32(1 + amount/100)
	return func(v float32) float32 {
		return (v-pivot)*f + pivot
	}
}

// mapTonal applies a luminance-weighted lift. target is the luminance at
// full weight (1 for highlights, 0 for shadows); the weight ramps from
// zero at the edge luminance to one at target.
func mapTonal(in *lux.Frame, amount, edge, target float64) *lux.Frame {
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	gain := float32(amount / 200)
	for i := 0; i < len(src); i += 4 {
		r, g, b := src[i], src[i+1], src[i+2]
		l := luminance(r, g, b)
		var w float32
		if target > edge {
			w = smooth((l - float32(edge)) / float32(target-edge))
		} else {
			w = smooth((float32(edge) - l) / float32(edge-target))
		}
		d := gain * w
		dst[i] = r + d*r*(1-r)*4
		dst[i+1] = g + d*g*(1-g)*4
		dst[i+2] = b + d*b*(1-b)*4
		dst[i+3] = src[i+3]
	}
	return out
}

func applyCurve(in *lux.Frame, lut []float32) *lux.Frame {
	n := float32(len(lut) - 1)
	return mapRGB(in, func(v float32) float32 {
		x := v
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		pos := x * n
		i := int(pos)
		if i >= len(lut)-1 {
			return lut[len(lut)-1]
		}
		t := pos - float32(i)
		return lut[i] + (lut[i+1]-lut[i])*t
	})
}

func applyWhiteBalance(in *lux.Frame, temperature, tint float64) *lux.Frame {
	// Temperature tilts red against blue, tint tilts green against
	// magenta, both relative to the as-shot multipliers already applied
	// during develop.
	rGain := float32(1 + temperature/100*0.3)
	bGain := float32(1 - temperature/100*0.3)
	gGain := float32(1 - tint/100*0.3)
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	for i := 0; i < len(src); i += 4 {
		dst[i] = src[i] * rGain
		dst[i+1] = src[i+1] * gGain
		dst[i+2] = src[i+2] * bGain
		dst[i+3] = src[i+3]
	}
	return out
}

func applyHSL(in *lux.Frame, hueShift, saturation, lum float64) *lux.Frame {
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	satScale := float32(1 + saturation/100)
	lumScale := float32(1 + lum/100*0.5)
	for i := 0; i < len(src); i += 4 {
		h, s, l := rgbToHSL(src[i], src[i+1], src[i+2])
		h += float32(hueShift)
		for h < 0 {
			h += 360
		}
		for h >= 360 {
			h -= 360
		}
		s = clamp01f(s * satScale)
		l = clamp01f(l * lumScale)
		r, g, b := hslToRGB(h, s, l)
		dst[i], dst[i+1], dst[i+2], dst[i+3] = r, g, b, src[i+3]
	}
	return out
}

func applyMatrix(in *lux.Frame, m []float64) *lux.Frame {
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	m00, m01, m02 := float32(m[0]), float32(m[1]), float32(m[2])
	m10, m11, m12 := float32(m[3]), float32(m[4]), float32(m[5])
	m20, m21, m22 := float32(m[6]), float32(m[7]), float32(m[8])
	for i := 0; i < len(src); i += 4 {
		r, g, b := src[i], src[i+1], src[i+2]
		dst[i] = m00*r + m01*g + m02*b
		dst[i+1] = m10*r + m11*g + m12*b
		dst[i+2] = m20*r + m21*g + m22*b
		dst[i+3] = src[i+3]
	}
	return out
}

func applyGeometry(ctx context.Context, in *lux.Frame, steps []pipeline.GeoStep) (*lux.Frame, error) {
	cur := in
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch step.Kind {
		case edit.KindCrop:
			cur = cropFrame(cur, step.Args[0], step.Args[1], step.Args[2], step.Args[3])
		case edit.KindRotate:
			cur = rotateFrame(cur, step.Args[0], step.Args[1] != 0, step.Args[2] != 0)
		case edit.KindPerspective:
			cur = perspectiveFrame(cur, step.Args[0], step.Args[1])
		default:
			return nil, fmt.Errorf("%w: geometry step %s", ErrKernelUnsupported, step.Kind)
		}
	}
	if cur == in {
		cur = in.Clone()
	}
	return cur, nil
}

func cropFrame(in *lux.Frame, x, y, w, h float64) *lux.Frame {
	outW, outH := int(math.Round(w)), int(math.Round(h))
	out := lux.NewFrame(outW, outH)
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	for dy := 0; dy < outH; dy++ {
		for dx := 0; dx < outW; dx++ {
			out.Set(dx, dy, in.At(x0+dx, y0+dy))
		}
	}
	return out
}

func rotateFrame(in *lux.Frame, degrees float64, flipH, flipV bool) *lux.Frame {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	inW, inH := float64(in.Width()), float64(in.Height())
	outW := int(math.Round(inW*math.Abs(c) + inH*math.Abs(s)))
	outH := int(math.Round(inW*math.Abs(s) + inH*math.Abs(c)))
	out := lux.NewFrame(outW, outH)

	cx, cy := inW/2, inH/2
	ox, oy := float64(outW)/2, float64(outH)/2
	for dy := 0; dy < outH; dy++ {
		for dx := 0; dx < outW; dx++ {
			// Inverse rotation from output to source coordinates.
			px := float64(dx) + 0.5 - ox
			py := float64(dy) + 0.5 - oy
			sx := px*c + py*s + cx - 0.5
			sy := -px*s + py*c + cy - 0.5
			if flipH {
				sx = inW - 1 - sx
			}
			if flipV {
				sy = inH - 1 - sy
			}
			out.Set(dx, dy, bilinear(in, sx, sy))
		}
	}
	return out
}

func perspectiveFrame(in *lux.Frame, horizontal, vertical float64) *lux.Frame {
	w, h := in.Width(), in.Height()
	out := lux.NewFrame(w, h)
	fw, fh := float64(w), float64(h)
	for dy := 0; dy < h; dy++ {
		ny := float64(dy)/fh - 0.5
		// Vertical keystone widens rows toward one edge, as if tilting the
		// camera up or down; horizontal does the same for columns.
		rowScale := 1 + vertical*ny
		for dx := 0; dx < w; dx++ {
			nx := float64(dx)/fw - 0.5
			colScale := 1 + horizontal*nx
			sx := (nx*rowScale + 0.5) * fw
			sy := (ny*colScale + 0.5) * fh
			out.Set(dx, dy, bilinear(in, sx, sy))
		}
	}
	return out
}

func applyLocal(in *lux.Frame, cov *mask.Coverage, exposure, contrast, saturation float64) *lux.Frame {
	out := lux.NewFrame(in.Width(), in.Height())
	src, dst := in.Pix(), out.Pix()
	gain := float32(math.Exp2(exposure))
	cfn := contrastFn(contrast)
	satScale := float32(1 + saturation/100)
	w := in.Width()
	for i := 0; i < len(src); i += 4 {
		p := i / 4
		x, y := p%w, p/w
		var c float32
		if cov != nil {
			c = float32(cov.At(x, y)) / 255
		}
		r, g, b := src[i], src[i+1], src[i+2]
		if c > 0 {
			ar, ag, ab := cfn(r*gain), cfn(g*gain), cfn(b*gain)
			l := luminance(ar, ag, ab)
			ar = l + (ar-l)*satScale
			ag = l + (ag-l)*satScale
			ab = l + (ab-l)*satScale
			r = r + (ar-r)*c
			g = g + (ag-g)*c
			b = b + (ab-b)*c
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = r, g, b, src[i+3]
	}
	return out
}

// bilinear samples the frame at fractional coordinates, clamping at the
// edges and returning transparent black outside.
func bilinear(f *lux.Frame, x, y float64) lux.Pixel {
	if x < -0.5 || y < -0.5 || x > float64(f.Width())-0.5 || y > float64(f.Height())-0.5 {
		return lux.Pixel{}
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	tx := float32(x - float64(x0))
	ty := float32(y - float64(y0))
	p00 := f.At(clampInt(x0, 0, f.Width()-1), clampInt(y0, 0, f.Height()-1))
	p10 := f.At(clampInt(x0+1, 0, f.Width()-1), clampInt(y0, 0, f.Height()-1))
	p01 := f.At(clampInt(x0, 0, f.Width()-1), clampInt(y0+1, 0, f.Height()-1))
	p11 := f.At(clampInt(x0+1, 0, f.Width()-1), clampInt(y0+1, 0, f.Height()-1))
	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	top := lux.Pixel{
		R: lerp(p00.R, p10.R, tx), G: lerp(p00.G, p10.G, tx),
		B: lerp(p00.B, p10.B, tx), A: lerp(p00.A, p10.A, tx),
	}
	bot := lux.Pixel{
		R: lerp(p01.R, p11.R, tx), G: lerp(p01.G, p11.G, tx),
		B: lerp(p01.B, p11.B, tx), A: lerp(p01.A, p11.A, tx),
	}
	return lux.Pixel{
		R: lerp(top.R, bot.R, ty), G: lerp(top.G, bot.G, ty),
		B: lerp(top.B, bot.B, ty), A: lerp(top.A, bot.A, ty),
	}
}

// luminance is Rec.709 in linear light.
func luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func smooth(t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func clamp01f(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rgbToHSL(r, g, b float32) (h, s, l float32) {
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	l = (max + min) / 2
	if max == min {
		return 0, 0, l
	}
	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func hslToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360
	return hueToRGB(p, q, hk+1.0/3), hueToRGB(p, q, hk), hueToRGB(p, q, hk-1.0/3)
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
