package lux

import (
	"image"
	"math"
)

// Frame is a rectangular buffer of linear, scene-referred pixels.
// Pixels are stored row-major as RGBA, four float32 components per pixel.
// All pipeline passes read and write Frames; conversion to display-referred
// values happens only in the final output pass.
type Frame struct {
	width  int
	height int
	pix    []float32 // RGBA, 4 floats per pixel
}

// NewFrame creates a frame with the given dimensions, initialized to opaque black.
func NewFrame(width, height int) *Frame {
	f := &Frame{
		width:  width,
		height: height,
		pix:    make([]float32, width*height*4),
	}
	for i := 3; i < len(f.pix); i += 4 {
		f.pix[i] = 1
	}
	return f
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Pix returns the raw pixel data (linear RGBA, 4 floats per pixel).
func (f *Frame) Pix() []float32 { return f.pix }

// SizeBytes returns the memory footprint of the pixel data.
func (f *Frame) SizeBytes() int64 {
	return int64(len(f.pix)) * 4
}

// At returns the pixel at (x, y). Out-of-bounds reads return the zero pixel.
func (f *Frame) At(x, y int) Pixel {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return Pixel{}
	}
	i := (y*f.width + x) * 4
	return Pixel{R: f.pix[i], G: f.pix[i+1], B: f.pix[i+2], A: f.pix[i+3]}
}

// Set writes the pixel at (x, y). Out-of-bounds writes are ignored.
func (f *Frame) Set(x, y int, p Pixel) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	i := (y*f.width + x) * 4
	f.pix[i] = p.R
	f.pix[i+1] = p.G
	f.pix[i+2] = p.B
	f.pix[i+3] = p.A
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{width: f.width, height: f.height, pix: make([]float32, len(f.pix))}
	copy(c.pix, f.pix)
	return c
}

// Fill sets every pixel to p.
func (f *Frame) Fill(p Pixel) {
	for i := 0; i < len(f.pix); i += 4 {
		f.pix[i] = p.R
		f.pix[i+1] = p.G
		f.pix[i+2] = p.B
		f.pix[i+3] = p.A
	}
}

// Pixel is a single linear RGBA sample.
type Pixel struct {
	R, G, B, A float32
}

// ToNRGBA converts the frame to an 8-bit image by applying the sRGB transfer
// function and clamping. This is the display/export hand-off representation.
func (f *Frame) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for i, j := 0, 0; i < len(f.pix); i, j = i+4, j+4 {
		img.Pix[j] = encode8(f.pix[i])
		img.Pix[j+1] = encode8(f.pix[i+1])
		img.Pix[j+2] = encode8(f.pix[i+2])
		img.Pix[j+3] = uint8(clampUnit(float64(f.pix[i+3]))*255 + 0.5)
	}
	return img
}

// ToNRGBA64 converts the frame to a 16-bit image with the sRGB transfer
// function applied. Used by the TIFF export path.
func (f *Frame) ToNRGBA64() *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			i := (y*f.width + x) * 4
			j := img.PixOffset(x, y)
			putU16(img.Pix[j:], encode16(f.pix[i]))
			putU16(img.Pix[j+2:], encode16(f.pix[i+1]))
			putU16(img.Pix[j+4:], encode16(f.pix[i+2]))
			putU16(img.Pix[j+6:], uint16(clampUnit(float64(f.pix[i+3]))*65535+0.5))
		}
	}
	return img
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func encode8(v float32) uint8 {
	return uint8(clampUnit(LinearToSRGB(float64(v)))*255 + 0.5)
}

func encode16(v float32) uint16 {
	return uint16(clampUnit(LinearToSRGB(float64(v)))*65535 + 0.5)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}
