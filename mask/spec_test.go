package mask

import (
	"errors"
	"testing"
)

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"radial ok", NewRadial(50, 50, 20, 10, 4), false},
		{"radial zero radius", Spec{Kind: KindRadial, Radial: &RadialGeometry{RadiusX: 0, RadiusY: 10}}, true},
		{"radial missing geometry", Spec{Kind: KindRadial}, true},
		{"linear ok", NewLinear(0, 0, 100, 0), false},
		{"linear degenerate", Spec{Kind: KindLinear, Linear: &LinearGeometry{StartX: 5, StartY: 5, EndX: 5, EndY: 5}}, true},
		{"brush ok", NewBrush(Stroke{Points: []float64{0, 0, 10, 10}, Radius: 3}), false},
		{"brush empty", Spec{Kind: KindBrush, Brush: &BrushGeometry{}}, true},
		{"sky ok", NewAI(KindAISky, "sky-v2"), false},
		{"ai missing model", Spec{Kind: KindAIForeground}, true},
		{"subject missing prompt", Spec{Kind: KindAISubject, Model: "sam-v1"}, true},
		{"subject with prompt", Spec{Kind: KindAISubject, Model: "sam-v1", Prompt: &Box{X1: 10, Y1: 10}}, false},
		{"unknown kind", Spec{Kind: "vortex"}, true},
		{"negative feather", Spec{Kind: KindLinear, Linear: &LinearGeometry{EndX: 1}, Feather: -1}, true},
		{"bad combine", Spec{Kind: KindAISky, Model: "m", Combine: "average"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSpec) {
					t.Fatalf("Validate() = %v, want ErrInvalidSpec", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v", err)
			}
		})
	}
}

func TestFingerprintIgnoresIdentity(t *testing.T) {
	a := NewRadial(50, 50, 20, 20, 2)
	b := a
	b.ID = "some-other-id"
	b.DependsOn = "op-123"
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identity fields must not affect the fingerprint")
	}
}

func TestFingerprintTracksGeometry(t *testing.T) {
	a := NewRadial(50, 50, 20, 20, 2)
	b := a
	g := *a.Radial
	g.RadiusX = 30
	b.Radial = &g
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("geometry change must change the fingerprint")
	}
}

func TestBaseFingerprintIgnoresDelta(t *testing.T) {
	a := NewAI(KindAISky, "sky-v2")
	b := a
	b.Delta = &BrushGeometry{Strokes: []Stroke{{Points: []float64{1, 2, 3, 4}, Radius: 5}}}
	b.Invert = true

	if a.BaseFingerprint() != b.BaseFingerprint() {
		t.Fatal("delta strokes must not change the base fingerprint")
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("delta strokes must change the full fingerprint")
	}
}

func TestBaseFingerprintTracksPrompt(t *testing.T) {
	a := NewAI(KindAISubject, "sam-v1")
	a.Prompt = &Box{X0: 10, Y0: 10, X1: 40, Y1: 40}
	b := a
	b.Prompt = &Box{X0: 10, Y0: 10, X1: 60, Y1: 60}
	if a.BaseFingerprint() == b.BaseFingerprint() {
		t.Fatal("prompt change must change the base fingerprint")
	}
	c := NewAI(KindAISubject, "sam-v2")
	c.Prompt = a.Prompt
	if a.BaseFingerprint() == c.BaseFingerprint() {
		t.Fatal("model change must change the base fingerprint")
	}
}
