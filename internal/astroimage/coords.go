package astroimage

import (
	"fmt"
	"math"

	"github.com/zhouyaoji/astromosaic/internal/sphere"
)

// wcsReady reports the recorded build error when the image has no valid
// WCS. Coordinate operations never substitute defaults for a broken WCS.
func (im *Image) wcsReady() error {
	if im.wcs == nil {
		return fmt.Errorf("astroimage: no valid WCS: %w", im.wcsErr)
	}
	return nil
}

// PixelToSky converts a 0-based pixel coordinate to (RA, Dec) degrees.
func (im *Image) PixelToSky(x, y float64) (ra, dec float64, err error) {
	if err := im.wcsReady(); err != nil {
		return 0, 0, err
	}
	return im.wcs.PixelToSky(x, y)
}

// SkyToPixel converts (RA, Dec) degrees to a 0-based pixel coordinate.
func (im *Image) SkyToPixel(ra, dec float64) (x, y float64, err error) {
	if err := im.wcsReady(); err != nil {
		return 0, 0, err
	}
	return im.wcs.SkyToPixel(ra, dec)
}

// wrapRA keeps an RA that has had a delta added within [0, 360).
func wrapRA(ra float64) float64 {
	if ra > 360.0 {
		ra = math.Mod(ra, 360.0)
	}
	return ra
}

// DistDegToPixels estimates the local pixel scale along RA: it projects
// (ra, dec), projects (ra+deltaDeg, dec), and returns the absolute pixel
// distance between the two along x.
func (im *Image) DistDegToPixels(ra, dec, deltaDeg float64) (float64, error) {
	x1, _, err := im.SkyToPixel(ra, dec)
	if err != nil {
		return 0, err
	}
	x2, _, err := im.SkyToPixel(wrapRA(ra+deltaDeg), dec)
	if err != nil {
		return 0, err
	}
	return math.Abs(x2 - x1), nil
}

// DistDegToPixelsXY is DistDegToPixels anchored at a pixel position.
func (im *Image) DistDegToPixelsXY(x, y, deltaDeg float64) (float64, error) {
	ra, dec, err := im.PixelToSky(x, y)
	if err != nil {
		return 0, err
	}
	x2, _, err := im.SkyToPixel(wrapRA(ra+deltaDeg), dec)
	if err != nil {
		return 0, err
	}
	return math.Abs(x2 - x), nil
}

// DistDegToPixelsCenter is DistDegToPixelsXY anchored at the image center.
func (im *Image) DistDegToPixelsCenter(deltaDeg float64) (float64, error) {
	return im.DistDegToPixelsXY(float64(im.Width()/2), float64(im.Height()/2), deltaDeg)
}

// OffsetPixels returns the pixel position reached from (x, y) by moving
// deltaRaDeg in RA (wrapping past 360) and deltaDecDeg in Dec.
func (im *Image) OffsetPixels(x, y, deltaRaDeg, deltaDecDeg float64) (x2, y2 float64, err error) {
	ra, dec, err := im.PixelToSky(x, y)
	if err != nil {
		return 0, 0, err
	}
	return im.SkyToPixel(wrapRA(ra+deltaRaDeg), dec+deltaDecDeg)
}

// StarSeparationXY formats the angular separation between two pixel
// positions as a sexagesimal string.
func (im *Image) StarSeparationXY(x1, y1, x2, y2 float64) (string, error) {
	raOrg, decOrg, err := im.PixelToSky(x1, y1)
	if err != nil {
		return "", err
	}
	raDst, decDst, err := im.PixelToSky(x2, y2)
	if err != nil {
		return "", err
	}
	return sphere.SeparationDMS(raOrg, decOrg, raDst, decDst), nil
}

// Compass projects compass arms from pixel (x, y): one eastLenDeg long
// along increasing RA, one northLenDeg long along increasing Dec. Arm
// tips are rounded to whole pixels.
func (im *Image) Compass(x, y int, eastLenDeg, northLenDeg float64) (cx, cy, xn, yn, xe, ye int, err error) {
	ra, dec, err := im.PixelToSky(float64(x), float64(y))
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}

	raE := wrapRA(ra + eastLenDeg)
	decN := dec + northLenDeg

	xeF, yeF, err := im.SkyToPixel(raE, dec)
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}
	xnF, ynF, err := im.SkyToPixel(ra, decN)
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}

	return x, y,
		int(math.Round(xnF)), int(math.Round(ynF)),
		int(math.Round(xeF)), int(math.Round(yeF)), nil
}

// CompassAtCenter computes compass arms at the image center, sized so
// both arms render at the same pixel length: roughly one quarter of the
// smaller image dimension.
//
// The per-axis pixel scale comes from projecting one-degree offsets, and
// planar distance is good enough at that scale.
func (im *Image) CompassAtCenter() (cx, cy, xn, yn, xe, ye int, err error) {
	x := im.Width() / 2
	y := im.Height() / 2

	ra, dec, err := im.PixelToSky(float64(x), float64(y))
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}
	xeF, yeF, err := im.SkyToPixel(wrapRA(ra+1.0), dec)
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}
	xnF, ynF, err := im.SkyToPixel(ra, dec+1.0)
	if err != nil {
		return 0, 0, 0, 0, 0, 0, err
	}

	pxPerDegE := math.Hypot(xeF-float64(x), yeF-float64(y))
	pxPerDegN := math.Hypot(xnF-float64(x), ynF-float64(y))
	if pxPerDegE == 0 || pxPerDegN == 0 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("astroimage: degenerate pixel scale at center")
	}

	radiusPx := float64(min(im.Width(), im.Height())) / 4.0
	return im.Compass(x, y, radiusPx/pxPerDegE, radiusPx/pxPerDegN)
}
