package lux

import "testing"

func TestRectNormalization(t *testing.T) {
	r := NewRect(Pt(10, 20), Pt(2, 4))
	if r.Min != Pt(2, 4) || r.Max != Pt(10, 20) {
		t.Fatalf("NewRect not normalized: %+v", r)
	}
	if r.Width() != 8 || r.Height() != 16 {
		t.Fatalf("dims = %vx%v, want 8x16", r.Width(), r.Height())
	}
}

func TestRectContains(t *testing.T) {
	r := XYWH(0, 0, 10, 10)
	for _, p := range []Point{Pt(0, 0), Pt(10, 10), Pt(5, 5)} {
		if !r.Contains(p) {
			t.Errorf("Contains(%v) = false, want true", p)
		}
	}
	for _, p := range []Point{Pt(-1, 5), Pt(5, 11)} {
		if r.Contains(p) {
			t.Errorf("Contains(%v) = true, want false", p)
		}
	}
}

func TestRectIntersect(t *testing.T) {
	a := XYWH(0, 0, 10, 10)
	b := XYWH(5, 5, 10, 10)
	got := a.Intersect(b)
	want := XYWH(5, 5, 5, 5)
	if got != want {
		t.Fatalf("Intersect = %+v, want %+v", got, want)
	}

	c := XYWH(20, 20, 5, 5)
	if got := a.Intersect(c); got != (Rect{}) {
		t.Fatalf("disjoint Intersect = %+v, want zero", got)
	}
	if !(Rect{}).Empty() {
		t.Fatal("zero rect should be empty")
	}
}

func TestPointArithmetic(t *testing.T) {
	p := Pt(3, 4)
	if got := p.Add(Pt(1, 1)); got != Pt(4, 5) {
		t.Fatalf("Add = %v", got)
	}
	if got := p.Sub(Pt(3, 4)); got != Pt(0, 0) {
		t.Fatalf("Sub = %v", got)
	}
	if got := p.Mul(2); got != Pt(6, 8) {
		t.Fatalf("Mul = %v", got)
	}
	if got := Pt(0, 0).Dist(p); got != 5 {
		t.Fatalf("Dist = %v, want 5", got)
	}
}
