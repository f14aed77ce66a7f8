package pipeline

import (
	"testing"

	"github.com/gogpu/lux/edit"
)

func TestBakeCurveIdentity(t *testing.T) {
	lut := bakeCurve([]edit.CurvePoint{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if len(lut) != curveLUTSize {
		t.Fatalf("len = %d, want %d", len(lut), curveLUTSize)
	}
	for i, v := range lut {
		want := float32(i) / float32(curveLUTSize-1)
		if diff := v - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("lut[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestBakeCurveMonotone(t *testing.T) {
	// An S curve with rising control points must bake to a non-decreasing
	// table: monotone tangents forbid overshoot between points.
	lut := bakeCurve([]edit.CurvePoint{
		{X: 0, Y: 0}, {X: 0.25, Y: 0.12}, {X: 0.75, Y: 0.9}, {X: 1, Y: 1},
	})
	for i := 1; i < len(lut); i++ {
		if lut[i] < lut[i-1] {
			t.Fatalf("lut not monotone at %d: %v < %v", i, lut[i], lut[i-1])
		}
	}
}

func TestBakeCurveHitsControlPoints(t *testing.T) {
	pts := []edit.CurvePoint{{X: 0, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 1, Y: 0.8}}
	lut := bakeCurve(pts)
	checks := []struct {
		idx  int
		want float32
	}{
		{0, 0.1},
		{(curveLUTSize - 1) / 2, 0.5},
		{curveLUTSize - 1, 0.8},
	}
	for _, c := range checks {
		got := lut[c.idx]
		if diff := got - c.want; diff > 5e-3 || diff < -5e-3 {
			t.Errorf("lut[%d] = %v, want ~%v", c.idx, got, c.want)
		}
	}
}

func TestBakeCurveClampsRange(t *testing.T) {
	lut := bakeCurve([]edit.CurvePoint{{X: 0.2, Y: 0}, {X: 0.8, Y: 1}})
	if lut[0] != 0 {
		t.Errorf("below first point: lut[0] = %v, want 0", lut[0])
	}
	if lut[curveLUTSize-1] != 1 {
		t.Errorf("above last point: tail = %v, want 1", lut[curveLUTSize-1])
	}
}
