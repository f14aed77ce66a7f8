// Package export renders frames to interchange formats. Resizing happens
// in linear light before the final sRGB encode; JPEG and PNG write 8-bit
// output, TIFF writes 16-bit.
package export

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/session"
)

// Export errors.
var (
	// ErrUnsupportedFormat is returned for formats the exporter cannot
	// write.
	ErrUnsupportedFormat = errors.New("export: unsupported format")

	// ErrBadQuality is returned for JPEG qualities outside [1, 100].
	ErrBadQuality = errors.New("export: quality out of range")
)

// Format selects the output codec.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a file extension or name to a format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ResizeMode selects which dimension the resize target constrains.
type ResizeMode string

const (
	// ResizeLongEdge constrains the longer dimension.
	ResizeLongEdge ResizeMode = "longEdge"
	// ResizeWidth constrains the width.
	ResizeWidth ResizeMode = "width"
	// ResizeHeight constrains the height.
	ResizeHeight ResizeMode = "height"
)

// Resize describes an optional output resize.
type Resize struct {
	Mode ResizeMode
	// Target is the constrained dimension in pixels. Zero disables
	// resizing.
	Target int
	// DontEnlarge skips upscaling when the source is already smaller.
	DontEnlarge bool
}

// Options control one export.
type Options struct {
	Format Format
	// Quality is the JPEG quality in [1, 100]. Zero means 90.
	Quality int
	Resize  Resize
}

// Write encodes a rendered frame to w.
func Write(w io.Writer, frame *lux.Frame, opts Options) error {
	frame = applyResize(frame, opts.Resize)
	switch opts.Format {
	case FormatJPEG:
		q := opts.Quality
		if q == 0 {
			q = 90
		}
		if q < 1 || q > 100 {
			return fmt.Errorf("%w: %d", ErrBadQuality, q)
		}
		return jpeg.Encode(w, frame.ToNRGBA(), &jpeg.Options{Quality: q})
	case FormatPNG:
		return png.Encode(w, frame.ToNRGBA())
	case FormatTIFF:
		return tiff.Encode(w, frame.ToNRGBA64(), &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
}

// applyResize scales the frame per the resize request, in linear light.
func applyResize(frame *lux.Frame, r Resize) *lux.Frame {
	if r.Target <= 0 {
		return frame
	}
	w, h := frame.Width(), frame.Height()
	var current int
	switch r.Mode {
	case ResizeWidth:
		current = w
	case ResizeHeight:
		current = h
	default:
		current = w
		if h > current {
			current = h
		}
	}
	if r.DontEnlarge && current <= r.Target {
		return frame
	}
	scale := float64(r.Target) / float64(current)
	outW := int(float64(w)*scale + 0.5)
	outH := int(float64(h)*scale + 0.5)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return session.Resample(frame, outW, outH)
}
