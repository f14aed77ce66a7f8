package raw

import (
	"errors"
	"math"
	"testing"
)

func sensor4x4(pattern CFAPattern, samples []uint16) *SensorImage {
	return &SensorImage{
		Width:      4,
		Height:     4,
		WhiteLevel: 100,
		Pattern:    pattern,
		Samples:    samples,
		Meta:       Metadata{BitDepth: 14},
	}
}

func near(a float32, b float64) bool {
	return math.Abs(float64(a)-b) < 1e-5
}

func TestDevelopSuperpixel(t *testing.T) {
	// Each 2x2 quad collapses to one output pixel.
	s := sensor4x4(RGGB, []uint16{
		100, 50, 100, 50,
		50, 25, 50, 25,
		100, 50, 100, 50,
		50, 25, 50, 25,
	})
	img, err := s.Develop()
	if err != nil {
		t.Fatalf("Develop: %v", err)
	}
	if img.Width() != 2 || img.Height() != 2 {
		t.Fatalf("developed dims = %dx%d, want 2x2", img.Width(), img.Height())
	}
	p := img.Frame().At(0, 0)
	if !near(p.R, 1) || !near(p.G, 0.5) || !near(p.B, 0.25) {
		t.Fatalf("pixel = %+v, want R=1 G=0.5 B=0.25", p)
	}
	if p.A != 1 {
		t.Fatalf("alpha = %v, want 1", p.A)
	}
}

func TestDevelopPatterns(t *testing.T) {
	// One quad of 10,20,30,40 against white level 40.
	quad := []uint16{
		10, 20,
		30, 40,
	}
	tests := []struct {
		pattern CFAPattern
		r, g, b float64
	}{
		{RGGB, 0.25, 0.625, 1},
		{BGGR, 1, 0.625, 0.25},
		{GBRG, 0.75, 0.625, 0.5},
		{GRBG, 0.5, 0.625, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.pattern.String(), func(t *testing.T) {
			s := &SensorImage{
				Width: 2, Height: 2, WhiteLevel: 40,
				Pattern: tt.pattern, Samples: quad,
				Meta: Metadata{BitDepth: 12},
			}
			img, err := s.Develop()
			if err != nil {
				t.Fatalf("Develop: %v", err)
			}
			p := img.Frame().At(0, 0)
			if !near(p.R, tt.r) || !near(p.G, tt.g) || !near(p.B, tt.b) {
				t.Fatalf("pixel = %+v, want R=%v G=%v B=%v", p, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestDevelopBlackLevel(t *testing.T) {
	s := &SensorImage{
		Width: 2, Height: 2,
		BlackLevel: 10, WhiteLevel: 110,
		Pattern: RGGB,
		Samples: []uint16{60, 5, 10, 110},
		Meta:    Metadata{BitDepth: 12},
	}
	img, err := s.Develop()
	if err != nil {
		t.Fatalf("Develop: %v", err)
	}
	p := img.Frame().At(0, 0)
	if !near(p.R, 0.5) {
		t.Fatalf("R = %v, want 0.5 after black subtraction", p.R)
	}
	// Samples at or below the black level clamp to zero; the other green
	// photosite sits at 0, so the average is 0.
	if !near(p.G, 0) {
		t.Fatalf("G = %v, want 0 for samples at the black level", p.G)
	}
	if !near(p.B, 1) {
		t.Fatalf("B = %v, want 1 at the white level", p.B)
	}
}

func TestDevelopDefaultWhiteLevel(t *testing.T) {
	// WhiteLevel 0 falls back to the bit-depth maximum.
	s := &SensorImage{
		Width: 2, Height: 2,
		Pattern: RGGB,
		Samples: []uint16{4095, 4095, 4095, 4095},
		Meta:    Metadata{BitDepth: 12},
	}
	img, err := s.Develop()
	if err != nil {
		t.Fatalf("Develop: %v", err)
	}
	p := img.Frame().At(0, 0)
	if !near(p.R, 1) || !near(p.G, 1) || !near(p.B, 1) {
		t.Fatalf("pixel = %+v, want full white", p)
	}
}

func TestDevelopWhiteBalance(t *testing.T) {
	// All cases develop a uniform half-scale sensor; the green multiplier
	// is the average of the two green coefficients, and a missing G2
	// inherits G.
	tests := []struct {
		name    string
		wb      [4]float64
		r, g, b float64
	}{
		{"normalized greens", [4]float64{2, 1, 0.5, 1}, 1, 0.5, 0.25},
		{"uniform gain", [4]float64{2, 2, 2, 2}, 1, 1, 1},
		{"split greens", [4]float64{1, 1.5, 1, 0.5}, 0.5, 0.5, 0.5},
		{"missing second green", [4]float64{2, 1.5, 1, 0}, 1, 0.75, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SensorImage{
				Width: 2, Height: 2, WhiteLevel: 100,
				Pattern: RGGB,
				Samples: []uint16{50, 50, 50, 50},
				Meta: Metadata{
					BitDepth:     12,
					WhiteBalance: tt.wb,
				},
			}
			img, err := s.Develop()
			if err != nil {
				t.Fatalf("Develop: %v", err)
			}
			p := img.Frame().At(0, 0)
			if !near(p.R, tt.r) || !near(p.G, tt.g) || !near(p.B, tt.b) {
				t.Fatalf("pixel = %+v, want R=%g G=%g B=%g", p, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestDevelopColorMatrix(t *testing.T) {
	// A channel-permuting matrix: out.R <- G, out.G <- B, out.B <- R.
	s := &SensorImage{
		Width: 2, Height: 2, WhiteLevel: 100,
		Pattern: RGGB,
		Samples: []uint16{100, 50, 50, 25},
		Meta: Metadata{
			BitDepth: 12,
			ColorMatrix: [9]float64{
				0, 1, 0,
				0, 0, 1,
				1, 0, 0,
			},
		},
	}
	img, err := s.Develop()
	if err != nil {
		t.Fatalf("Develop: %v", err)
	}
	p := img.Frame().At(0, 0)
	if !near(p.R, 0.5) || !near(p.G, 0.25) || !near(p.B, 1) {
		t.Fatalf("pixel = %+v, want permuted channels", p)
	}
}

func TestDevelopOddDimensionsTruncate(t *testing.T) {
	s := &SensorImage{
		Width: 5, Height: 3, WhiteLevel: 100,
		Pattern: RGGB,
		Samples: make([]uint16, 15),
		Meta:    Metadata{BitDepth: 12},
	}
	img, err := s.Develop()
	if err != nil {
		t.Fatalf("Develop: %v", err)
	}
	if img.Width() != 2 || img.Height() != 1 {
		t.Fatalf("developed dims = %dx%d, want 2x1", img.Width(), img.Height())
	}
}

func TestDevelopValidation(t *testing.T) {
	tests := []struct {
		name string
		s    *SensorImage
		kind DecodeErrorKind
	}{
		{
			"bit depth too low",
			&SensorImage{Width: 2, Height: 2, Samples: make([]uint16, 4), Meta: Metadata{BitDepth: 4}},
			KindUnsupportedBitDepth,
		},
		{
			"bit depth too high",
			&SensorImage{Width: 2, Height: 2, Samples: make([]uint16, 4), Meta: Metadata{BitDepth: 24}},
			KindUnsupportedBitDepth,
		},
		{
			"zero dimensions",
			&SensorImage{Width: 0, Height: 2, Meta: Metadata{BitDepth: 12}},
			KindCorruptData,
		},
		{
			"short sample buffer",
			&SensorImage{Width: 4, Height: 4, Samples: make([]uint16, 8), Meta: Metadata{BitDepth: 12}},
			KindCorruptData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Develop()
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Develop err = %v, want *DecodeError", err)
			}
			if de.Kind != tt.kind {
				t.Fatalf("error kind = %v, want %v", de.Kind, tt.kind)
			}
		})
	}
}
