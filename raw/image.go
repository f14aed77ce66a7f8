package raw

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/lux"
)

// Orientation is the camera orientation baked into the decoded frame's
// coordinate system.
type Orientation int

// Orientations, matching EXIF values 1, 3, 6, 8.
const (
	OrientationNormal Orientation = iota
	OrientationRotate180
	OrientationRotate90
	OrientationRotate270
)

// Metadata describes the decoded sensor data.
type Metadata struct {
	// BitDepth is the sensor sample depth in bits (typically 12, 14 or 16).
	BitDepth int

	// WhiteBalance holds the as-shot channel multipliers (R, G, B, G2).
	// Missing coefficients are 1.0; a missing G2 inherits G.
	WhiteBalance [4]float64

	// ColorMatrix is the row-major 3x3 camera-to-sRGB matrix applied during
	// calibration. The zero value is treated as identity.
	ColorMatrix [9]float64

	// Orientation is the capture orientation.
	Orientation Orientation

	// CameraMake and CameraModel identify the source, when known.
	CameraMake  string
	CameraModel string
}

// Image is the decoded image buffer: a linear, demosaiced frame plus
// metadata. It is created once per source file and immutable afterward;
// every downstream stage shares it read-only.
type Image struct {
	frame *lux.Frame
	meta  Metadata
	hash  uint64
}

// NewImage wraps a developed frame and its metadata into an immutable Image.
// The frame must not be mutated after the call.
func NewImage(frame *lux.Frame, meta Metadata) *Image {
	return &Image{
		frame: frame,
		meta:  meta,
		hash:  hashFrame(frame),
	}
}

// Frame returns the linear pixel data. Callers must treat it as read-only.
func (im *Image) Frame() *lux.Frame { return im.frame }

// Metadata returns the sensor metadata.
func (im *Image) Metadata() Metadata { return im.meta }

// Width returns the decoded frame width in pixels.
func (im *Image) Width() int { return im.frame.Width() }

// Height returns the decoded frame height in pixels.
func (im *Image) Height() int { return im.frame.Height() }

// ContentHash is a stable hash of the decoded pixel data. It anchors the
// render cache's Merkle chain and identifies the image to the mask provider.
func (im *Image) ContentHash() uint64 { return im.hash }

// hashFrame digests the frame's dimensions and pixel bits.
func hashFrame(f *lux.Frame) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(f.Width()))
	binary.LittleEndian.PutUint32(buf[4:], uint32(f.Height()))
	_, _ = d.Write(buf[:])

	pix := f.Pix()
	row := make([]byte, 4*len(pix))
	for i, v := range pix {
		binary.LittleEndian.PutUint32(row[i*4:], math.Float32bits(v))
	}
	_, _ = d.Write(row)
	return d.Sum64()
}
