package session

import "github.com/gogpu/lux"

// HistogramBins is the per-channel resolution.
const HistogramBins = 256

// Histogram is a per-channel luminosity distribution of a rendered frame,
// binned over display (sRGB-encoded) values so it matches what the user
// sees rather than the linear working space.
type Histogram struct {
	R, G, B [HistogramBins]uint32

	// Clipped counts pixels with any channel at the first or last bin.
	ClippedLow, ClippedHigh uint32
}

// ComputeHistogram bins every pixel of the frame.
func ComputeHistogram(f *lux.Frame) *Histogram {
	h := &Histogram{}
	pix := f.Pix()
	for i := 0; i < len(pix); i += 4 {
		r := binOf(pix[i])
		g := binOf(pix[i+1])
		b := binOf(pix[i+2])
		h.R[r]++
		h.G[g]++
		h.B[b]++
		if r == 0 || g == 0 || b == 0 {
			h.ClippedLow++
		}
		if r == HistogramBins-1 || g == HistogramBins-1 || b == HistogramBins-1 {
			h.ClippedHigh++
		}
	}
	return h
}

func binOf(v float32) int {
	e := lux.LinearToSRGB(float64(v))
	bin := int(e*float64(HistogramBins-1) + 0.5)
	if bin < 0 {
		return 0
	}
	if bin > HistogramBins-1 {
		return HistogramBins - 1
	}
	return bin
}
