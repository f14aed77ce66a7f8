package mask

import "testing"

func TestRasterizeRadialHardEdge(t *testing.T) {
	spec := NewRadial(16, 16, 8, 8, 0)
	cov := Rasterize(spec, 32, 32)

	if got := cov.At(16, 16); got != 255 {
		t.Fatalf("center coverage = %d, want 255", got)
	}
	if got := cov.At(16, 26); got != 0 {
		t.Fatalf("outside coverage = %d, want 0", got)
	}
	if got := cov.At(0, 0); got != 0 {
		t.Fatalf("corner coverage = %d, want 0", got)
	}
}

func TestRasterizeRadialFeather(t *testing.T) {
	spec := NewRadial(16, 16, 8, 8, 6)
	cov := Rasterize(spec, 32, 32)

	if got := cov.At(16, 16); got != 255 {
		t.Fatalf("center coverage = %d, want 255", got)
	}
	// Midway through the feather band.
	mid := cov.At(16, 16+11)
	if mid == 0 || mid == 255 {
		t.Fatalf("feather band coverage = %d, want partial", mid)
	}
	if got := cov.At(16, 31); got != 0 {
		t.Fatalf("beyond feather coverage = %d, want 0", got)
	}
}

func TestRasterizeLinearGradient(t *testing.T) {
	spec := NewLinear(0, 0, 32, 0)
	cov := Rasterize(spec, 32, 8)

	// Sample centers sit half a pixel into the gradient.
	if got := cov.At(0, 4); got < 250 {
		t.Fatalf("start coverage = %d, want near 255", got)
	}
	if got := cov.At(31, 4); got > 5 {
		t.Fatalf("end coverage = %d, want near 0", got)
	}
	mid := cov.At(16, 4)
	if mid < 115 || mid > 140 {
		t.Fatalf("midpoint coverage = %d, want near 127", mid)
	}
	// Constant along the perpendicular.
	if cov.At(16, 0) != cov.At(16, 7) {
		t.Fatal("linear gradient should be constant across the perpendicular")
	}
	// Monotone along the axis.
	prev := cov.At(0, 4)
	for x := 1; x < 32; x++ {
		cur := cov.At(x, 4)
		if cur > prev {
			t.Fatalf("coverage increased at x=%d: %d -> %d", x, prev, cur)
		}
		prev = cur
	}
}

func TestRasterizeBrushDab(t *testing.T) {
	spec := NewBrush(Stroke{Points: []float64{16, 16}, Radius: 5})
	cov := Rasterize(spec, 32, 32)

	if got := cov.At(16, 16); got != 255 {
		t.Fatalf("dab center coverage = %d, want 255", got)
	}
	if got := cov.At(16, 24); got != 0 {
		t.Fatalf("outside dab coverage = %d, want 0", got)
	}
}

func TestRasterizeBrushStrokeConnectsPoints(t *testing.T) {
	spec := NewBrush(Stroke{Points: []float64{4, 16, 28, 16}, Radius: 3})
	cov := Rasterize(spec, 32, 32)

	for x := 4; x <= 27; x++ {
		if cov.At(x, 16) != 255 {
			t.Fatalf("stroke gap at x=%d: coverage %d", x, cov.At(x, 16))
		}
	}
	if cov.At(16, 4) != 0 {
		t.Fatal("stroke should not reach far off its path")
	}
}

func TestRasterizeBrushErase(t *testing.T) {
	spec := NewBrush(
		Stroke{Points: []float64{16, 16}, Radius: 10},
		Stroke{Points: []float64{16, 16}, Radius: 4, Erase: true},
	)
	cov := Rasterize(spec, 32, 32)

	if got := cov.At(16, 16); got != 0 {
		t.Fatalf("erased center coverage = %d, want 0", got)
	}
	if got := cov.At(16, 24); got != 255 {
		t.Fatalf("ring coverage = %d, want 255", got)
	}
}

func TestRasterizeBrushPressure(t *testing.T) {
	spec := NewBrush(Stroke{Points: []float64{8, 8}, Radius: 4, Pressure: 0.5})
	cov := Rasterize(spec, 16, 16)

	got := cov.At(8, 8)
	if got < 126 || got > 129 {
		t.Fatalf("half-pressure coverage = %d, want ~128", got)
	}
}

func TestRasterizeInvert(t *testing.T) {
	spec := NewRadial(16, 16, 8, 8, 0)
	spec.Invert = true
	cov := Rasterize(spec, 32, 32)

	if got := cov.At(16, 16); got != 0 {
		t.Fatalf("inverted center coverage = %d, want 0", got)
	}
	if got := cov.At(0, 0); got != 255 {
		t.Fatalf("inverted corner coverage = %d, want 255", got)
	}
}

func TestRasterizeAIDeltaOnly(t *testing.T) {
	spec := NewAI(KindAISky, "sky-v2")
	spec.Delta = &BrushGeometry{Strokes: []Stroke{{Points: []float64{8, 8}, Radius: 3}}}
	cov := Rasterize(spec, 16, 16)

	if got := cov.At(8, 8); got != 255 {
		t.Fatalf("delta stroke coverage = %d, want 255", got)
	}
	if got := cov.At(1, 1); got != 0 {
		t.Fatalf("untouched coverage = %d, want 0", got)
	}
}
