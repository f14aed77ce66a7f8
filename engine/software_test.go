package engine

import (
	"context"
	"math"
	"testing"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/edit"
	"github.com/gogpu/lux/mask"
	"github.com/gogpu/lux/pipeline"
)

func gradientFrame(w, h int) *lux.Frame {
	f := lux.NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(x) / float32(w-1)
			f.Set(x, y, lux.Pixel{R: v, G: v, B: v, A: 1})
		}
	}
	return f
}

func runKernel(t *testing.T, pass pipeline.Pass, in *lux.Frame, cov *mask.Coverage) *lux.Frame {
	t.Helper()
	out, err := NewSoftware().Run(context.Background(), &pass, in, cov)
	if err != nil {
		t.Fatalf("Run %s: %v", pass.Kernel, err)
	}
	return out
}

func TestSoftwareExposure(t *testing.T) {
	in := lux.NewFrame(2, 2)
	in.Fill(lux.Pixel{R: 0.25, G: 0.25, B: 0.25, A: 1})
	out := runKernel(t, pipeline.Pass{
		Kernel:   pipeline.KernelExposure,
		Uniforms: []float64{1}, // +1 EV doubles linear values
	}, in, nil)
	got := out.At(0, 0)
	if got.R != 0.5 || got.G != 0.5 || got.B != 0.5 {
		t.Errorf("At(0,0) = %+v, want 0.5 channels", got)
	}
	if got.A != 1 {
		t.Errorf("alpha changed: %v", got.A)
	}
	if in.At(0, 0).R != 0.25 {
		t.Error("input frame mutated")
	}
}

func TestSoftwareContrastPivot(t *testing.T) {
	in := lux.NewFrame(1, 1)
	in.Fill(lux.Pixel{R: 0.18, G: 0.18, B: 0.18, A: 1})
	out := runKernel(t, pipeline.Pass{
		Kernel:   pipeline.KernelContrast,
		Uniforms: []float64{50},
	}, in, nil)
	// Middle grey is the pivot and must not move.
	if got := out.At(0, 0).R; math.Abs(float64(got)-0.18) > 1e-6 {
		t.Errorf("pivot moved: %v", got)
	}
}

func TestSoftwareCurveIdentityLUT(t *testing.T) {
	lut := make([]float32, 256)
	for i := range lut {
		lut[i] = float32(i) / 255
	}
	in := gradientFrame(16, 1)
	out := runKernel(t, pipeline.Pass{Kernel: pipeline.KernelCurve, LUT: lut}, in, nil)
	for x := 0; x < 16; x++ {
		want, got := in.At(x, 0).R, out.At(x, 0).R
		if math.Abs(float64(want-got)) > 1e-4 {
			t.Fatalf("x=%d: got %v, want %v", x, got, want)
		}
	}
}

func TestSoftwareCalibrationSwapsChannels(t *testing.T) {
	in := lux.NewFrame(1, 1)
	in.Fill(lux.Pixel{R: 1, G: 0.5, B: 0, A: 1})
	// Permutation matrix: r<-g, g<-b, b<-r.
	out := runKernel(t, pipeline.Pass{
		Kernel:   pipeline.KernelCalibration,
		Uniforms: []float64{0, 1, 0, 0, 0, 1, 1, 0, 0},
	}, in, nil)
	got := out.At(0, 0)
	if got.R != 0.5 || got.G != 0 || got.B != 1 {
		t.Errorf("got %+v, want swapped channels", got)
	}
}

func TestSoftwareCrop(t *testing.T) {
	in := gradientFrame(8, 8)
	out := runKernel(t, pipeline.Pass{
		Kernel: pipeline.KernelGeometry,
		Geo:    []pipeline.GeoStep{{Kind: edit.KindCrop, Args: []float64{2, 2, 4, 4}}},
	}, in, nil)
	if out.Width() != 4 || out.Height() != 4 {
		t.Fatalf("dims = %dx%d, want 4x4", out.Width(), out.Height())
	}
	if got, want := out.At(0, 0), in.At(2, 2); got != want {
		t.Errorf("At(0,0) = %+v, want %+v", got, want)
	}
}

func TestSoftwareRotate90(t *testing.T) {
	in := gradientFrame(8, 4)
	out := runKernel(t, pipeline.Pass{
		Kernel: pipeline.KernelGeometry,
		Geo:    []pipeline.GeoStep{{Kind: edit.KindRotate, Args: []float64{90, 0, 0}}},
	}, in, nil)
	if out.Width() != 4 || out.Height() != 8 {
		t.Fatalf("dims = %dx%d, want 4x8", out.Width(), out.Height())
	}
}

func TestSoftwareFlipRoundTrip(t *testing.T) {
	in := gradientFrame(8, 8)
	flip := pipeline.Pass{
		Kernel: pipeline.KernelGeometry,
		Geo:    []pipeline.GeoStep{{Kind: edit.KindRotate, Args: []float64{0, 1, 0}}},
	}
	once := runKernel(t, flip, in, nil)
	twice := runKernel(t, flip, once, nil)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a, b := in.At(x, y), twice.At(x, y)
			if math.Abs(float64(a.R-b.R)) > 1e-4 {
				t.Fatalf("(%d,%d): %v != %v", x, y, a.R, b.R)
			}
		}
	}
}

func TestSoftwareLocalBlend(t *testing.T) {
	in := lux.NewFrame(2, 1)
	in.Fill(lux.Pixel{R: 0.25, G: 0.25, B: 0.25, A: 1})
	cov := mask.NewCoverage(2, 1)
	cov.Set(0, 0, 255) // full coverage left, none right
	out := runKernel(t, pipeline.Pass{
		Kernel:   pipeline.KernelLocal,
		Uniforms: []float64{1, 0, 0}, // +1 EV inside the mask
	}, in, cov)
	if got := out.At(0, 0).R; math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("masked pixel = %v, want 0.5", got)
	}
	if got := out.At(1, 0).R; got != 0.25 {
		t.Errorf("unmasked pixel = %v, want untouched 0.25", got)
	}
}

func TestSoftwareUnknownKernel(t *testing.T) {
	_, err := NewSoftware().Run(context.Background(), &pipeline.Pass{Kernel: "bokeh"}, lux.NewFrame(1, 1), nil)
	if err == nil {
		t.Fatal("unknown kernel should fail")
	}
}
