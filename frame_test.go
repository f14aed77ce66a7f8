package lux

import (
	"math"
	"testing"
)

func TestNewFrameOpaqueBlack(t *testing.T) {
	f := NewFrame(3, 2)
	if f.Width() != 3 || f.Height() != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", f.Width(), f.Height())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			p := f.At(x, y)
			if p.R != 0 || p.G != 0 || p.B != 0 || p.A != 1 {
				t.Fatalf("pixel (%d,%d) = %+v, want opaque black", x, y, p)
			}
		}
	}
	if f.SizeBytes() != 3*2*4*4 {
		t.Fatalf("SizeBytes() = %d, want %d", f.SizeBytes(), 3*2*4*4)
	}
}

func TestFrameAtSetBounds(t *testing.T) {
	f := NewFrame(4, 4)
	p := Pixel{R: 0.1, G: 0.2, B: 0.3, A: 0.4}
	f.Set(1, 2, p)
	if got := f.At(1, 2); got != p {
		t.Fatalf("At(1,2) = %+v, want %+v", got, p)
	}

	// Out-of-bounds access never panics and never writes.
	f.Set(-1, 0, p)
	f.Set(0, 4, p)
	if got := f.At(-1, 0); got != (Pixel{}) {
		t.Fatalf("out-of-bounds At = %+v, want zero pixel", got)
	}
	if got := f.At(4, 0); got != (Pixel{}) {
		t.Fatalf("out-of-bounds At = %+v, want zero pixel", got)
	}
}

func TestFrameCloneIsDeep(t *testing.T) {
	f := NewFrame(2, 2)
	f.Fill(Pixel{R: 0.5, G: 0.5, B: 0.5, A: 1})
	c := f.Clone()
	c.Set(0, 0, Pixel{R: 1})
	if f.At(0, 0).R != 0.5 {
		t.Fatal("mutating the clone must not affect the original")
	}
}

func TestToNRGBAEncodesSRGB(t *testing.T) {
	f := NewFrame(3, 1)
	f.Set(0, 0, Pixel{R: 1, G: 1, B: 1, A: 1})
	f.Set(1, 0, Pixel{R: 0.2158, G: 0.2158, B: 0.2158, A: 1})
	f.Set(2, 0, Pixel{R: -0.5, G: 2.0, B: float32(math.NaN()), A: 1})

	img := f.ToNRGBA()
	if img.Pix[0] != 255 || img.Pix[3] != 255 {
		t.Fatalf("white pixel bytes = %v, want 255", img.Pix[:4])
	}
	// Linear 0.2158 is the sRGB midpoint.
	if got := img.Pix[4]; got < 127 || got > 129 {
		t.Fatalf("mid grey byte = %d, want ~128", got)
	}
	// Clamping: negatives and NaN to 0, overshoot to 255.
	if img.Pix[8] != 0 || img.Pix[9] != 255 || img.Pix[10] != 0 {
		t.Fatalf("clamped pixel bytes = %v, want [0 255 0]", img.Pix[8:11])
	}
}

func TestToNRGBA64BigEndian(t *testing.T) {
	f := NewFrame(1, 1)
	f.Set(0, 0, Pixel{R: 1, G: 0, B: 1, A: 1})
	img := f.ToNRGBA64()

	// 16-bit samples are stored big-endian.
	if img.Pix[0] != 0xff || img.Pix[1] != 0xff {
		t.Fatalf("R bytes = %x %x, want ff ff", img.Pix[0], img.Pix[1])
	}
	if img.Pix[2] != 0 || img.Pix[3] != 0 {
		t.Fatalf("G bytes = %x %x, want 00 00", img.Pix[2], img.Pix[3])
	}
	if img.Pix[6] != 0xff || img.Pix[7] != 0xff {
		t.Fatalf("A bytes = %x %x, want ff ff", img.Pix[6], img.Pix[7])
	}
}
