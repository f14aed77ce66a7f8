package session

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/lux"
)

// Preview renders the current revision and downscales it so the long
// edge does not exceed maxEdge. Small renders pass through unscaled.
func (s *Session) Preview(ctx context.Context, maxEdge int) (*View, error) {
	view, err := s.Render(ctx)
	if err != nil {
		return nil, err
	}
	view.Frame = Downscale(view.Frame, maxEdge)
	return view, nil
}

// Downscale resizes a frame so its long edge is at most maxEdge, using
// Catmull-Rom resampling in linear light. Frames already within the
// bound are returned unchanged.
func Downscale(f *lux.Frame, maxEdge int) *lux.Frame {
	w, h := f.Width(), f.Height()
	long := w
	if h > long {
		long = h
	}
	if maxEdge <= 0 || long <= maxEdge {
		return f
	}
	scale := float64(maxEdge) / float64(long)
	outW := int(float64(w)*scale + 0.5)
	outH := int(float64(h)*scale + 0.5)
	return Resample(f, outW, outH)
}

// Resample scales a frame to exact output dimensions with Catmull-Rom
// resampling in linear light.
func Resample(f *lux.Frame, outW, outH int) *lux.Frame {
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	if outW == f.Width() && outH == f.Height() {
		return f
	}

	// x/image/draw scalers work on 16-bit integer images; 16 bits keeps
	// the linear-light round trip lossless at display depth.
	src := toRGBA64Linear(f)
	dst := image.NewRGBA64(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return fromRGBA64Linear(dst)
}

func toRGBA64Linear(f *lux.Frame) *image.RGBA64 {
	w, h := f.Width(), f.Height()
	img := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := f.At(x, y)
			i := img.PixOffset(x, y)
			putBE16(img.Pix[i:], quant16(p.R))
			putBE16(img.Pix[i+2:], quant16(p.G))
			putBE16(img.Pix[i+4:], quant16(p.B))
			putBE16(img.Pix[i+6:], quant16(p.A))
		}
	}
	return img
}

func fromRGBA64Linear(img *image.RGBA64) *lux.Frame {
	b := img.Bounds()
	f := lux.NewFrame(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			f.Set(x, y, lux.Pixel{
				R: float32(getBE16(img.Pix[i:])) / 65535,
				G: float32(getBE16(img.Pix[i+2:])) / 65535,
				B: float32(getBE16(img.Pix[i+4:])) / 65535,
				A: float32(getBE16(img.Pix[i+6:])) / 65535,
			})
		}
	}
	return f
}

func quant16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 65535
	}
	return uint16(v*65535 + 0.5)
}

func putBE16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getBE16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
