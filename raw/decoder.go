// Package raw defines the RAW decode boundary of the develop engine.
//
// A Decoder turns source bytes into an immutable Image: a linear,
// demosaiced frame plus the sensor metadata the pipeline needs (white
// balance coefficients, color matrix, orientation). The package ships a
// built-in Bayer superpixel decoder and an sRGB import fallback for
// non-RAW files; camera-specific container parsing is an external
// collaborator behind the Decoder interface.
package raw

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind int

const (
	// KindUnsupportedFormat means the container format is not recognized.
	KindUnsupportedFormat DecodeErrorKind = iota

	// KindCorruptData means the container was recognized but its contents
	// could not be read.
	KindCorruptData

	// KindUnsupportedBitDepth means the sensor bit depth is not supported.
	KindUnsupportedBitDepth
)

// String returns the string representation of the kind.
func (k DecodeErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindCorruptData:
		return "corrupt data"
	case KindUnsupportedBitDepth:
		return "unsupported bit depth"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// DecodeError is a fatal decode failure. Opening the file cannot proceed;
// there is no partial recovery.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("raw: decode failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("raw: decode failed (%s)", e.Kind)
}

// Unwrap returns the wrapped cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// ErrNoDecoder is returned when no registered decoder handles the input.
var ErrNoDecoder = errors.New("raw: no decoder for input")

// Decoder converts source bytes into a decoded Image.
type Decoder interface {
	// Decode reads from r and returns a decoded Image.
	// Failures are reported as *DecodeError.
	Decode(ctx context.Context, r io.Reader) (*Image, error)

	// CanDecode reports whether this decoder handles the given format hint
	// (a lowercase file extension without the dot, e.g. "dng").
	CanDecode(format string) bool
}
