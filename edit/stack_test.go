package edit

import (
	"errors"
	"testing"

	"github.com/gogpu/lux/mask"
)

func TestStackAppend(t *testing.T) {
	s := NewStack()
	rev, err := s.Append(New(ExposureParams{Stops: 1}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rev.Len() != 1 {
		t.Fatalf("Len = %d, want 1", rev.Len())
	}
	if rev.Seq() != 1 {
		t.Errorf("Seq = %d, want 1", rev.Seq())
	}
	if got := rev.Op(0).Kind(); got != KindExposure {
		t.Errorf("Kind = %q, want %q", got, KindExposure)
	}
	if !rev.Op(0).Enabled {
		t.Error("new operation should be enabled")
	}
}

func TestStackAppendInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"exposure out of range", ExposureParams{Stops: 9}},
		{"contrast out of range", ContrastParams{AmountParams{Amount: 250}}},
		{"hue out of range", HSLParams{HueShift: 270}},
		{"crop zero size", CropParams{Width: 0, Height: 100}},
		{"curve one point", CurveParams{Points: []CurvePoint{{X: 0, Y: 0}}}},
		{"curve unordered", CurveParams{Points: []CurvePoint{{X: 0.5, Y: 0}, {X: 0.2, Y: 1}}}},
		{"calibration zero matrix", CalibrationParams{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack()
			before := s.Revision()
			if _, err := s.Append(New(tt.params)); !errors.Is(err, ErrParamRange) {
				t.Fatalf("Append = %v, want ErrParamRange", err)
			}
			if !s.Revision().EqualOps(before) {
				t.Error("failed append mutated the stack")
			}
		})
	}
}

func TestStackUpdateKeepsIdentity(t *testing.T) {
	s := NewStack()
	rev, err := s.Append(New(ExposureParams{Stops: 1}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	id := rev.Op(0).ID

	rev2, err := s.Update(id, ExposureParams{Stops: 2.5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	op, _, ok := rev2.Find(id)
	if !ok {
		t.Fatal("updated operation lost its ID")
	}
	if got := op.Params.(ExposureParams).Stops; got != 2.5 {
		t.Errorf("Stops = %v, want 2.5", got)
	}
	if rev2.Seq() <= rev.Seq() {
		t.Errorf("Seq did not advance: %d -> %d", rev.Seq(), rev2.Seq())
	}
}

func TestStackUpdateKindMismatch(t *testing.T) {
	s := NewStack()
	rev, _ := s.Append(New(ExposureParams{Stops: 1}))
	if _, err := s.Update(rev.Op(0).ID, ContrastParams{}); err == nil {
		t.Fatal("Update with different kind should fail")
	}
}

func TestStackReorder(t *testing.T) {
	s := NewStack()
	s.Append(New(ExposureParams{Stops: 1}))
	s.Append(New(ContrastParams{AmountParams{Amount: 10}}))
	rev, _ := s.Append(New(CropParams{X: 0, Y: 0, Width: 50, Height: 50}))

	cropID := rev.Op(2).ID
	rev2, err := s.Reorder(cropID, 0)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := rev2.Op(0).ID; got != cropID {
		t.Errorf("op 0 = %v, want crop %v", got, cropID)
	}
	if rev2.Len() != 3 {
		t.Errorf("Len = %d, want 3", rev2.Len())
	}
}

func TestStackRemove(t *testing.T) {
	s := NewStack()
	rev, _ := s.Append(New(ExposureParams{Stops: 1}))
	id := rev.Op(0).ID
	rev2, err := s.Remove(id)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if rev2.Len() != 0 {
		t.Errorf("Len = %d, want 0", rev2.Len())
	}
	if _, err := s.Remove(id); err == nil {
		t.Error("removing a missing op should fail")
	}
}

func TestStackToggleEnabled(t *testing.T) {
	s := NewStack()
	rev, _ := s.Append(New(ExposureParams{Stops: 1}))
	id := rev.Op(0).ID

	rev2, err := s.ToggleEnabled(id)
	if err != nil {
		t.Fatalf("ToggleEnabled: %v", err)
	}
	if rev2.Op(0).Enabled {
		t.Error("op still enabled after toggle")
	}
	if rev2.Op(0).ID != id {
		t.Error("toggle changed the operation ID")
	}

	rev3, _ := s.ToggleEnabled(id)
	if !rev3.Op(0).Enabled {
		t.Error("op not re-enabled after second toggle")
	}
	if !rev3.EqualOps(rev) {
		t.Error("toggle round trip should restore the original ops")
	}
}

// A mask referencing the crop must come after it in the declared order.
// Moving the mask before the crop is rejected and leaves the stack intact.
func TestStackMaskDependencyOrder(t *testing.T) {
	s := NewStack()
	rev, err := s.Append(New(CropParams{X: 10, Y: 10, Width: 80, Height: 80}))
	if err != nil {
		t.Fatalf("Append crop: %v", err)
	}
	cropID := rev.Op(0).ID

	spec := mask.NewRadial(0.5, 0.5, 0.3, 0.3, 0.1)
	spec.DependsOn = string(cropID)
	rev2, err := s.Append(New(LocalParams{
		Adjust: Adjustment{Exposure: -0.5},
		Mask:   spec,
	}))
	if err != nil {
		t.Fatalf("Append local: %v", err)
	}
	localID := rev2.Op(1).ID

	_, err = s.Reorder(localID, 0)
	if !errors.Is(err, ErrInvalidOperationOrder) {
		t.Fatalf("Reorder = %v, want ErrInvalidOperationOrder", err)
	}
	var dep *DependencyError
	if !errors.As(err, &dep) {
		t.Fatal("error should carry the dependency detail")
	}
	if dep.Ref != cropID {
		t.Errorf("Ref = %q, want %q", dep.Ref, cropID)
	}
	if dep.Missing {
		t.Error("crop is present, violation is ordering not absence")
	}
	if !s.Revision().EqualOps(rev2) {
		t.Error("rejected reorder mutated the stack")
	}

	// Moving the crop to the front instead is legal and resolves the same
	// conflict.
	if _, err := s.Reorder(cropID, 0); err != nil {
		t.Fatalf("Reorder crop: %v", err)
	}
}

func TestStackRemoveDependedOnOp(t *testing.T) {
	s := NewStack()
	rev, _ := s.Append(New(CropParams{X: 0, Y: 0, Width: 80, Height: 80}))
	cropID := rev.Op(0).ID

	spec := mask.NewLinear(0, 0, 1, 1)
	spec.DependsOn = string(cropID)
	s.Append(New(LocalParams{Adjust: Adjustment{Exposure: 1}, Mask: spec}))

	if _, err := s.Remove(cropID); !errors.Is(err, ErrInvalidOperationOrder) {
		t.Fatalf("Remove = %v, want ErrInvalidOperationOrder", err)
	}
}
