package astroimage

import (
	"reflect"
	"testing"
)

func TestCrossCut(t *testing.T) {
	im := New(seq(t, 20, 20), nil)

	x0, y0, row, col, err := im.CrossCut(10, 10, 3)
	if err != nil {
		t.Fatalf("CrossCut: %v", err)
	}
	if x0 != 7 || y0 != 7 {
		t.Errorf("origin = (%d, %d), want (7, 7)", x0, y0)
	}
	if len(row) != 7 || len(col) != 7 {
		t.Fatalf("cut lengths = %d, %d, want 7, 7", len(row), len(col))
	}
	wantRow := []float64{1007, 1008, 1009, 1010, 1011, 1012, 1013}
	if !reflect.DeepEqual(row, wantRow) {
		t.Errorf("row = %v, want %v", row, wantRow)
	}
}

func TestCrossCutClipsPerAxis(t *testing.T) {
	im := New(seq(t, 20, 20), nil)

	// near the right edge: x span clips, y span does not
	x0, y0, row, col, err := im.CrossCut(18, 5, 5)
	if err != nil {
		t.Fatalf("CrossCut: %v", err)
	}
	if x0 != 13 || y0 != 0 {
		t.Errorf("origin = (%d, %d), want (13, 0)", x0, y0)
	}
	if len(row) != 7 {
		t.Errorf("row length = %d, want 7 (clipped at right edge)", len(row))
	}
	if len(col) != 11 {
		t.Errorf("col length = %d, want 11 (clipped at top edge)", len(col))
	}
}

func TestCrossCutAtCorner(t *testing.T) {
	im := New(seq(t, 20, 20), nil)

	x0, y0, row, col, err := im.CrossCut(0, 0, 5)
	if err != nil {
		t.Fatalf("CrossCut: %v", err)
	}
	if x0 != 0 || y0 != 0 {
		t.Errorf("origin = (%d, %d), want (0, 0)", x0, y0)
	}
	// both spans clip to [0, 5]
	if len(row) != 6 || len(col) != 6 {
		t.Errorf("cut lengths = %d, %d, want 6, 6", len(row), len(col))
	}
}

func TestCrossCutCenterOutside(t *testing.T) {
	im := New(seq(t, 20, 20), nil)
	if _, _, _, _, err := im.CrossCut(20, 0, 3); err == nil {
		t.Fatal("expected error for center outside image")
	}
	if _, _, _, _, err := im.CrossCut(0, -1, 3); err == nil {
		t.Fatal("expected error for negative center")
	}
}

func TestCutoutClamps(t *testing.T) {
	im := New(seq(t, 10, 10), nil)

	g, err := im.Cutout(-5, -5, 4, 4)
	if err != nil {
		t.Fatalf("Cutout: %v", err)
	}
	if g.Dx() != 4 || g.Dy() != 4 {
		t.Fatalf("cutout size = %dx%d, want 4x4", g.Dx(), g.Dy())
	}
	if got := g.Get(0, 0); got != 0 {
		t.Errorf("(0,0) = %v, want 0", got)
	}
	if got := g.Get(3, 3); got != 303 {
		t.Errorf("(3,3) = %v, want 303", got)
	}
}

func TestCutoutEmpty(t *testing.T) {
	im := New(seq(t, 10, 10), nil)
	if _, err := im.Cutout(20, 20, 30, 30); err == nil {
		t.Fatal("expected error for cutout outside image")
	}
	if _, err := im.Cutout(5, 5, 5, 9); err == nil {
		t.Fatal("expected error for zero-width cutout")
	}
}
