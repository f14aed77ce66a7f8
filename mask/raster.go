package mask

import "math"

// Rasterize renders the procedural part of a spec into a coverage buffer
// sized width x height. Procedural rasterization is pure geometry and never
// fails. For AI kinds only the delta strokes are rasterized; the base
// coverage comes from the provider.
func Rasterize(spec Spec, width, height int) *Coverage {
	cov := NewCoverage(width, height)
	switch spec.Kind {
	case KindRadial:
		rasterRadial(cov, spec.Radial, spec.Feather)
	case KindLinear:
		rasterLinear(cov, spec.Linear)
	case KindBrush:
		rasterBrush(cov, spec.Brush, spec.Feather)
	case KindAISubject, KindAIForeground, KindAISky:
		if spec.Delta != nil {
			rasterBrush(cov, spec.Delta, spec.Feather)
		}
	}
	if spec.Invert {
		cov.Invert()
	}
	return cov
}

// rasterRadial fills an elliptical gradient: full coverage inside the
// ellipse, fading to zero across the feather band.
func rasterRadial(cov *Coverage, g *RadialGeometry, feather float64) {
	if g == nil {
		return
	}
	// Feather widens the normalized radius band [1, 1+f] where f is the
	// feather expressed relative to the smaller semi-axis.
	f := 0.0
	if r := math.Min(g.RadiusX, g.RadiusY); r > 0 && feather > 0 {
		f = feather / r
	}
	for y := 0; y < cov.height; y++ {
		dy := (float64(y) + 0.5 - g.CenterY) / g.RadiusY
		for x := 0; x < cov.width; x++ {
			dx := (float64(x) + 0.5 - g.CenterX) / g.RadiusX
			d := math.Sqrt(dx*dx + dy*dy)
			cov.data[y*cov.width+x] = coverageValue(1-ramp(d, 1, 1+f))
		}
	}
}

// rasterLinear fills a linear gradient from full coverage at Start to zero
// at End, constant along the perpendicular.
func rasterLinear(cov *Coverage, g *LinearGeometry) {
	if g == nil {
		return
	}
	dx := g.EndX - g.StartX
	dy := g.EndY - g.StartY
	lenSq := dx*dx + dy*dy
	for y := 0; y < cov.height; y++ {
		for x := 0; x < cov.width; x++ {
			t := ((float64(x)+0.5-g.StartX)*dx + (float64(y)+0.5-g.StartY)*dy) / lenSq
			cov.data[y*cov.width+x] = coverageValue(1 - clamp01(t))
		}
	}
}

// rasterBrush stamps the strokes into the buffer. Coverage falls off
// across the feather band at each tip edge; erase strokes subtract.
func rasterBrush(cov *Coverage, g *BrushGeometry, feather float64) {
	if g == nil {
		return
	}
	for _, stroke := range g.Strokes {
		pressure := stroke.Pressure
		if pressure <= 0 || pressure > 1 {
			pressure = 1
		}
		pts := stroke.Points
		if len(pts) < 2 {
			continue
		}
		if len(pts) == 2 {
			stampDab(cov, pts[0], pts[1], stroke.Radius, feather, pressure, stroke.Erase)
			continue
		}
		for i := 0; i+3 < len(pts); i += 2 {
			stampSegment(cov, pts[i], pts[i+1], pts[i+2], pts[i+3], stroke.Radius, feather, pressure, stroke.Erase)
		}
	}
}

// stampSegment spaces dabs along a segment at quarter-radius intervals.
func stampSegment(cov *Coverage, x0, y0, x1, y1, radius, feather, pressure float64, erase bool) {
	dist := math.Hypot(x1-x0, y1-y0)
	step := math.Max(radius/4, 0.5)
	n := int(dist/step) + 1
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		stampDab(cov, x0+(x1-x0)*t, y0+(y1-y0)*t, radius, feather, pressure, erase)
	}
}

// stampDab writes one round tip centered at (cx, cy).
func stampDab(cov *Coverage, cx, cy, radius, feather, pressure float64, erase bool) {
	if radius <= 0 {
		return
	}
	reach := radius + feather
	minX := int(math.Floor(cx - reach))
	maxX := int(math.Ceil(cx + reach))
	minY := int(math.Floor(cy - reach))
	maxY := int(math.Ceil(cy + reach))
	for y := max(minY, 0); y <= maxY && y < cov.height; y++ {
		for x := max(minX, 0); x <= maxX && x < cov.width; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			v := (1 - ramp(d, radius, radius+feather)) * pressure
			if v <= 0 {
				continue
			}
			i := y*cov.width + x
			if erase {
				nv := int(cov.data[i]) - int(v*255+0.5)
				if nv < 0 {
					nv = 0
				}
				cov.data[i] = uint8(nv)
			} else if nv := coverageValue(v); nv > cov.data[i] {
				cov.data[i] = nv
			}
		}
	}
}

// ramp returns 0 below lo, 1 above hi, and a smooth Hermite blend between.
func ramp(v, lo, hi float64) float64 {
	if hi <= lo {
		if v < lo {
			return 0
		}
		return 1
	}
	t := clamp01((v - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func coverageValue(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
