package raw

import (
	"fmt"

	"github.com/gogpu/lux"
)

// CFAPattern is the 2x2 Bayer color filter array layout.
type CFAPattern int

// Supported RGB Bayer patterns.
const (
	RGGB CFAPattern = iota
	BGGR
	GBRG
	GRBG
)

// String returns the pattern name.
func (p CFAPattern) String() string {
	switch p {
	case RGGB:
		return "RGGB"
	case BGGR:
		return "BGGR"
	case GBRG:
		return "GBRG"
	case GRBG:
		return "GRBG"
	default:
		return fmt.Sprintf("CFAPattern(%d)", int(p))
	}
}

// SensorImage is undemosaiced sensor data as produced by a RAW container
// parser. Samples are row-major, one sample per photosite.
type SensorImage struct {
	Width  int
	Height int

	// BlackLevel and WhiteLevel bound the sensor's usable sample range.
	// WhiteLevel 0 defaults to the maximum for Meta.BitDepth.
	BlackLevel uint16
	WhiteLevel uint16

	Pattern CFAPattern
	Samples []uint16

	Meta Metadata
}

// Develop converts the sensor data into a decoded Image using the
// superpixel method: each 2x2 Bayer quad becomes one RGB output pixel, so
// the result is half width and half height. Processing order is rescale,
// demosaic, white balance, color matrix calibration; the output stays
// linear. Returns a *DecodeError on malformed input.
func (s *SensorImage) Develop() (*Image, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	white := s.WhiteLevel
	if white == 0 {
		white = uint16(1<<uint(s.Meta.BitDepth) - 1)
	}
	scale := 1.0 / float64(white-s.BlackLevel)

	wb := s.Meta.WhiteBalance
	for i := 0; i < 3; i++ {
		// Some old files carry no WB coefficients. Assume 1.0.
		if wb[i] == 0 {
			wb[i] = 1
		}
	}
	if wb[3] == 0 {
		// Most files carry one green coefficient for both photosites.
		wb[3] = wb[1]
	}
	cm := s.Meta.ColorMatrix
	if cm == ([9]float64{}) {
		cm = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}

	// Odd trailing rows/columns cannot form a full Bayer quad.
	w := s.Width &^ 1
	h := s.Height &^ 1

	out := lux.NewFrame(w/2, h/2)
	pix := out.Pix()
	for y := 0; y < h; y += 2 {
		r0 := s.Samples[y*s.Width:]
		r1 := s.Samples[(y+1)*s.Width:]
		for x := 0; x < w; x += 2 {
			quad := [4]float64{
				s.rescale(r0[x], scale),
				s.rescale(r0[x+1], scale),
				s.rescale(r1[x], scale),
				s.rescale(r1[x+1], scale),
			}
			var r, g, b float64
			switch s.Pattern {
			case RGGB:
				r, g, b = quad[0], (quad[1]+quad[2])/2, quad[3]
			case BGGR:
				r, g, b = quad[3], (quad[1]+quad[2])/2, quad[0]
			case GBRG:
				r, g, b = quad[2], (quad[0]+quad[3])/2, quad[1]
			case GRBG:
				r, g, b = quad[1], (quad[0]+quad[3])/2, quad[2]
			}

			r *= wb[0]
			g *= (wb[1] + wb[3]) / 2
			b *= wb[2]

			i := ((y/2)*(w/2) + x/2) * 4
			pix[i] = float32(cm[0]*r + cm[1]*g + cm[2]*b)
			pix[i+1] = float32(cm[3]*r + cm[4]*g + cm[5]*b)
			pix[i+2] = float32(cm[6]*r + cm[7]*g + cm[8]*b)
			pix[i+3] = 1
		}
	}

	meta := s.Meta
	return NewImage(out, meta), nil
}

func (s *SensorImage) rescale(v uint16, scale float64) float64 {
	if v <= s.BlackLevel {
		return 0
	}
	return float64(v-s.BlackLevel) * scale
}

func (s *SensorImage) validate() error {
	if s.Meta.BitDepth < 8 || s.Meta.BitDepth > 16 {
		return &DecodeError{
			Kind: KindUnsupportedBitDepth,
			Err:  fmt.Errorf("bit depth %d outside [8, 16]", s.Meta.BitDepth),
		}
	}
	if s.Width <= 0 || s.Height <= 0 {
		return &DecodeError{
			Kind: KindCorruptData,
			Err:  fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height),
		}
	}
	if len(s.Samples) < s.Width*s.Height {
		return &DecodeError{
			Kind: KindCorruptData,
			Err:  fmt.Errorf("sample buffer has %d samples, need %d", len(s.Samples), s.Width*s.Height),
		}
	}
	return nil
}
