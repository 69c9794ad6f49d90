package astroimage

import (
	"math"
	"testing"

	"github.com/zhouyaoji/astromosaic/internal/quality"
)

// starImage builds a 40x40 image of flat sky 100 with one gaussian star.
func starImage(t *testing.T, cx, cy float64) *Image {
	t.Helper()
	g := NewGrid(40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			g.Set(x, y, 100+500*math.Exp(-(dx*dx+dy*dy)/(2*1.5*1.5)))
		}
	}
	return New(g, nil)
}

func TestFieldQualityFullExtent(t *testing.T) {
	im := starImage(t, 30.4, 26.6)
	p := quality.DefaultParams()
	p.NoiseReduction = false

	// (wd, ht) are the exclusive corners: the whole grid, last row and
	// column included
	wd, ht := im.Size()
	rep, err := im.FieldQuality(0, 0, wd, ht, p)
	if err != nil {
		t.Fatalf("FieldQuality: %v", err)
	}
	if math.Abs(rep.ObjX-30.4) > 0.5 || math.Abs(rep.ObjY-26.6) > 0.5 {
		t.Errorf("object = (%.2f, %.2f), want (30.4, 26.6) +/- 0.5", rep.ObjX, rep.ObjY)
	}
}

func TestFieldQualityTranslatesOrigin(t *testing.T) {
	im := starImage(t, 30.4, 26.6)
	p := quality.DefaultParams()
	p.NoiseReduction = false

	rep, err := im.FieldQuality(20, 16, 40, 40, p)
	if err != nil {
		t.Fatalf("FieldQuality: %v", err)
	}
	// coordinates come back in full-image pixel space
	if math.Abs(rep.ObjX-30.4) > 0.5 || math.Abs(rep.ObjY-26.6) > 0.5 {
		t.Errorf("object = (%.2f, %.2f), want (30.4, 26.6) +/- 0.5", rep.ObjX, rep.ObjY)
	}
}

func TestFieldQualityClampsNegativeOrigin(t *testing.T) {
	im := starImage(t, 30.4, 26.6)
	p := quality.DefaultParams()
	p.NoiseReduction = false

	rep, err := im.FieldQuality(-10, -10, 40, 40, p)
	if err != nil {
		t.Fatalf("FieldQuality: %v", err)
	}
	if math.Abs(rep.ObjX-30.4) > 0.5 || math.Abs(rep.ObjY-26.6) > 0.5 {
		t.Errorf("object = (%.2f, %.2f), want (30.4, 26.6) +/- 0.5", rep.ObjX, rep.ObjY)
	}
}
