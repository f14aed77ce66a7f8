package pipeline

import "github.com/gogpu/lux/edit"

// curveLUTSize is the baked table resolution. Kernels interpolate
// linearly between entries, which is visually exact at 8 bits and stable
// at 16.
const curveLUTSize = 256

// bakeCurve evaluates a monotone cubic spline through the control points
// into a lookup table. Monotone (Fritsch-Carlson) tangents keep the baked
// curve free of overshoot between points, so a rising curve never darkens
// any tone.
func bakeCurve(points []edit.CurvePoint) []float32 {
	n := len(points)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}

	// Secant slopes and Fritsch-Carlson tangents.
	h := make([]float64, n-1)
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		delta[i] = (ys[i+1] - ys[i]) / h[i]
	}
	m := make([]float64, n)
	m[0] = delta[0]
	m[n-1] = delta[n-2]
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			m[i] = 0
			continue
		}
		w1 := 2*h[i] + h[i-1]
		w2 := h[i] + 2*h[i-1]
		m[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
	}

	lut := make([]float32, curveLUTSize)
	seg := 0
	for i := range lut {
		x := float64(i) / float64(curveLUTSize-1)
		switch {
		case x <= xs[0]:
			lut[i] = float32(clamp01(ys[0]))
			continue
		case x >= xs[n-1]:
			lut[i] = float32(clamp01(ys[n-1]))
			continue
		}
		for seg < n-2 && x > xs[seg+1] {
			seg++
		}
		t := (x - xs[seg]) / h[seg]
		t2 := t * t
		t3 := t2 * t
		y := ys[seg]*(2*t3-3*t2+1) +
			m[seg]*h[seg]*(t3-2*t2+t) +
			ys[seg+1]*(-2*t3+3*t2) +
			m[seg+1]*h[seg]*(t3-t2)
		lut[i] = float32(clamp01(y))
	}
	return lut
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
