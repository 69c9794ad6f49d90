package astroimage

import (
	"errors"
	"math"
	"testing"

	"github.com/zhouyaoji/astromosaic/internal/wcs"
)

// skyImage returns a 100x100 image with a linear WCS centered at pixel
// (50, 50) = (RA 180, Dec 45), RA decreasing along x at 3.6"/px.
func skyImage(t *testing.T) *Image {
	t.Helper()
	im := New(NewGrid(100, 100), nil)
	im.UpdateKeywords(map[string]interface{}{
		"CRVAL1": 180.0, "CRVAL2": 45.0,
		"CRPIX1": 51.0, "CRPIX2": 51.0,
		"CDELT1": -0.001, "CDELT2": 0.001,
	})
	return im
}

func TestPixelSkyRoundTrip(t *testing.T) {
	im := skyImage(t)

	ra, dec, err := im.PixelToSky(50, 50)
	if err != nil {
		t.Fatalf("PixelToSky: %v", err)
	}
	if math.Abs(ra-180) > 1e-9 || math.Abs(dec-45) > 1e-9 {
		t.Fatalf("center sky = (%v, %v), want (180, 45)", ra, dec)
	}

	x, y, err := im.SkyToPixel(ra, dec)
	if err != nil {
		t.Fatalf("SkyToPixel: %v", err)
	}
	if math.Abs(x-50) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("round trip = (%v, %v), want (50, 50)", x, y)
	}
}

func TestCoordinatesWithoutWCS(t *testing.T) {
	im := New(NewGrid(4, 4), nil)
	_, _, err := im.PixelToSky(0, 0)
	if !errors.Is(err, wcs.ErrNotInitialized) {
		t.Fatalf("error = %v, want ErrNotInitialized", err)
	}
}

func TestBrokenHeaderDisablesCoordinates(t *testing.T) {
	im := skyImage(t)
	if _, _, err := im.PixelToSky(0, 0); err != nil {
		t.Fatalf("PixelToSky: %v", err)
	}

	// corrupting a required keyword must not leave the old WCS serving
	im.SetKeyword("CRVAL1", "bogus")
	if _, _, err := im.PixelToSky(0, 0); err == nil {
		t.Fatal("coordinates served from a broken header")
	}

	// repairing the keyword restores service
	im.SetKeyword("CRVAL1", 180.0)
	if _, _, err := im.PixelToSky(0, 0); err != nil {
		t.Fatalf("PixelToSky after repair: %v", err)
	}
}

func TestDistDegToPixels(t *testing.T) {
	im := skyImage(t)

	d, err := im.DistDegToPixelsXY(50, 50, 0.01)
	if err != nil {
		t.Fatalf("DistDegToPixelsXY: %v", err)
	}
	if math.Abs(d-10) > 1e-6 {
		t.Errorf("pixel distance = %v, want 10", d)
	}

	d, err = im.DistDegToPixelsCenter(0.02)
	if err != nil {
		t.Fatalf("DistDegToPixelsCenter: %v", err)
	}
	if math.Abs(d-20) > 1e-6 {
		t.Errorf("pixel distance = %v, want 20", d)
	}
}

func TestOffsetPixels(t *testing.T) {
	im := skyImage(t)
	x, y, err := im.OffsetPixels(50, 50, 0.01, 0.02)
	if err != nil {
		t.Fatalf("OffsetPixels: %v", err)
	}
	// RA increases to the east, which is -x here
	if math.Abs(x-40) > 1e-6 || math.Abs(y-70) > 1e-6 {
		t.Errorf("offset = (%v, %v), want (40, 70)", x, y)
	}
}

func TestStarSeparationXY(t *testing.T) {
	im := skyImage(t)
	// 10 px along y = 0.01 deg = 36 arcsec
	s, err := im.StarSeparationXY(50, 50, 50, 60)
	if err != nil {
		t.Fatalf("StarSeparationXY: %v", err)
	}
	if s != "00:36.000" {
		t.Errorf("separation = %q, want 00:36.000", s)
	}
}

func TestCompass(t *testing.T) {
	im := skyImage(t)
	cx, cy, xn, yn, xe, ye, err := im.Compass(50, 50, 0.01, 0.02)
	if err != nil {
		t.Fatalf("Compass: %v", err)
	}
	if cx != 50 || cy != 50 {
		t.Errorf("center = (%d, %d), want (50, 50)", cx, cy)
	}
	if xn != 50 || yn != 70 {
		t.Errorf("north tip = (%d, %d), want (50, 70)", xn, yn)
	}
	if xe != 40 || ye != 50 {
		t.Errorf("east tip = (%d, %d), want (40, 50)", xe, ye)
	}
}

func TestCompassAtCenter(t *testing.T) {
	im := skyImage(t)
	cx, cy, xn, yn, xe, ye, err := im.CompassAtCenter()
	if err != nil {
		t.Fatalf("CompassAtCenter: %v", err)
	}
	if cx != 50 || cy != 50 {
		t.Errorf("center = (%d, %d), want (50, 50)", cx, cy)
	}
	// both arms a quarter of the image dimension long
	if xn != 50 || yn != 75 {
		t.Errorf("north tip = (%d, %d), want (50, 75)", xn, yn)
	}
	if xe != 25 || ye != 50 {
		t.Errorf("east tip = (%d, %d), want (25, 50)", xe, ye)
	}
}
