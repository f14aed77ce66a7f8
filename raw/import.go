package raw

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register stdlib decoders for the import fallback
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/lux"
)

// rawExtensions are the RAW container formats handled by external
// collaborator decoders (delivered as SensorImage and developed here).
var rawExtensions = map[string]bool{
	"dng": true, "arw": true, "cr2": true, "cr3": true, "nef": true,
	"orf": true, "raf": true, "rw2": true, "pef": true, "srw": true,
}

// IsRawFormat reports whether the format hint names a RAW container.
func IsRawFormat(format string) bool {
	return rawExtensions[strings.ToLower(format)]
}

// ImportDecoder decodes already-rendered image files (PNG, JPEG) into a
// linear frame by inverting the sRGB transfer function. It is the fallback
// path for non-RAW sources.
type ImportDecoder struct{}

// CanDecode implements Decoder.
func (ImportDecoder) CanDecode(format string) bool {
	switch strings.ToLower(format) {
	case "png", "jpg", "jpeg":
		return true
	}
	return false
}

// Decode implements Decoder.
func (ImportDecoder) Decode(ctx context.Context, r io.Reader) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Kind: KindCorruptData, Err: err}
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	frame := lux.NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nc := color.NRGBA64Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			frame.Set(x, y, lux.Pixel{
				R: float32(lux.SRGBToLinear(float64(nc.R) / 65535)),
				G: float32(lux.SRGBToLinear(float64(nc.G) / 65535)),
				B: float32(lux.SRGBToLinear(float64(nc.B) / 65535)),
				A: float32(nc.A) / 65535,
			})
		}
	}

	return NewImage(frame, Metadata{BitDepth: 8}), nil
}

// Registry maps format hints to decoders. The import decoder is always
// registered; RAW collaborator decoders are added by the host.
type Registry struct {
	decoders []Decoder
}

// NewRegistry creates a registry with the built-in import fallback.
func NewRegistry() *Registry {
	return &Registry{decoders: []Decoder{ImportDecoder{}}}
}

// Register adds a decoder. Later registrations take precedence.
func (r *Registry) Register(d Decoder) {
	r.decoders = append([]Decoder{d}, r.decoders...)
}

// DecoderFor returns the first decoder claiming the format hint.
func (r *Registry) DecoderFor(format string) (Decoder, bool) {
	for _, d := range r.decoders {
		if d.CanDecode(format) {
			return d, true
		}
	}
	return nil, false
}

// DecodeFile opens and decodes path using the registered decoders.
func (r *Registry) DecodeFile(ctx context.Context, path string) (*Image, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	d, ok := r.DecoderFor(format)
	if !ok {
		return nil, &DecodeError{
			Kind: KindUnsupportedFormat,
			Err:  fmt.Errorf("%w: %q", ErrNoDecoder, format),
		}
	}
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("raw: open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return d.Decode(ctx, f)
}
