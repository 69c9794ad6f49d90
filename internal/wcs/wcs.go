// Package wcs implements the world coordinate system adapter that maps
// between 0-based pixel coordinates and celestial coordinates (RA/Dec in
// decimal degrees).
//
// The adapter is built from FITS header keywords: CRVAL1/2 (reference sky
// point), CRPIX1/2 (1-based reference pixel), and either a CD matrix
// (CD1_1..CD2_2) or CDELT1/2 with an optional CROTA2 rotation. When
// CTYPE1 carries the "-TAN" suffix the gnomonic projection is applied
// about the reference point; otherwise the mapping is linear.
//
// Consumers treat the adapter as a black box: PixelToSky, SkyToPixel and
// Reload are the entire surface.
package wcs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrNotInitialized is returned by coordinate queries before a successful
// Reload.
var ErrNotInitialized = errors.New("wcs: not initialized")

// MissingKeywordError reports a header without an essential WCS keyword.
type MissingKeywordError struct {
	Keyword string
}

func (e *MissingKeywordError) Error() string {
	return fmt.Sprintf("wcs: missing keyword %s", e.Keyword)
}

// Keywords is the view of a header the adapter reads. Lookups take
// uppercase keyword names; the second return reports presence.
type Keywords interface {
	Float(name string) (float64, bool)
	String(name string) (string, bool)
}

// WCS maps pixel coordinates to sky coordinates and back. The zero value
// is unusable; construct with New or populate with Reload.
//
// WCS is stateful but not safe for concurrent mutation: callers must not
// Reload while a coordinate query is in flight.
type WCS struct {
	crval1, crval2 float64
	crpix1, crpix2 float64
	cd             [4]float64 // row-major CD matrix, degrees per pixel
	inv            [4]float64 // inverse of cd
	tan            bool
	valid          bool
}

// New builds an adapter from header keywords.
func New(kw Keywords) (*WCS, error) {
	w := &WCS{}
	if err := w.Reload(kw); err != nil {
		return nil, err
	}
	return w, nil
}

// Reload rebuilds the adapter from header keywords. It is idempotent and
// atomic: on error the previous state is kept unchanged.
func (w *WCS) Reload(kw Keywords) error {
	var next WCS

	for _, req := range []struct {
		name string
		dst  *float64
	}{
		{"CRVAL1", &next.crval1},
		{"CRVAL2", &next.crval2},
		{"CRPIX1", &next.crpix1},
		{"CRPIX2", &next.crpix2},
	} {
		v, ok := kw.Float(req.name)
		if !ok {
			return &MissingKeywordError{Keyword: req.name}
		}
		*req.dst = v
	}

	cd, err := scaleMatrix(kw)
	if err != nil {
		return err
	}
	next.cd = cd

	m := mat.NewDense(2, 2, cd[:])
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return fmt.Errorf("wcs: degenerate CD matrix: %w", err)
	}
	next.inv = [4]float64{inv.At(0, 0), inv.At(0, 1), inv.At(1, 0), inv.At(1, 1)}

	if ctype, ok := kw.String("CTYPE1"); ok && strings.Contains(ctype, "-TAN") {
		next.tan = true
	}
	next.valid = true

	*w = next
	return nil
}

// scaleMatrix assembles the degrees-per-pixel matrix from CD keywords,
// falling back to CDELT1/2 with an optional CROTA2 rotation.
func scaleMatrix(kw Keywords) ([4]float64, error) {
	cd11, ok11 := kw.Float("CD1_1")
	cd12, _ := kw.Float("CD1_2")
	cd21, _ := kw.Float("CD2_1")
	cd22, ok22 := kw.Float("CD2_2")
	if ok11 && ok22 {
		return [4]float64{cd11, cd12, cd21, cd22}, nil
	}

	cdelt1, ok1 := kw.Float("CDELT1")
	cdelt2, ok2 := kw.Float("CDELT2")
	if !ok1 {
		return [4]float64{}, &MissingKeywordError{Keyword: "CDELT1"}
	}
	if !ok2 {
		return [4]float64{}, &MissingKeywordError{Keyword: "CDELT2"}
	}

	rot, _ := kw.Float("CROTA2")
	sin, cos := math.Sincos(rot * math.Pi / 180)
	return [4]float64{
		cdelt1 * cos, -cdelt2 * sin,
		cdelt1 * sin, cdelt2 * cos,
	}, nil
}

// PixelToSky converts a 0-based pixel coordinate to (RA, Dec) in decimal
// degrees. RA is normalized to [0, 360).
func (w *WCS) PixelToSky(x, y float64) (ra, dec float64, err error) {
	if !w.valid {
		return 0, 0, ErrNotInitialized
	}
	u := x + 1 - w.crpix1
	v := y + 1 - w.crpix2
	xi := w.cd[0]*u + w.cd[1]*v
	eta := w.cd[2]*u + w.cd[3]*v

	if w.tan {
		ra, dec = tanToSky(xi, eta, w.crval1, w.crval2)
	} else {
		ra = w.crval1 + xi
		dec = w.crval2 + eta
	}
	return wrap360(ra), dec, nil
}

// SkyToPixel converts (RA, Dec) in decimal degrees to a 0-based pixel
// coordinate. The result may lie outside the image bounds; callers decide
// what out-of-frame positions mean.
func (w *WCS) SkyToPixel(ra, dec float64) (x, y float64, err error) {
	if !w.valid {
		return 0, 0, ErrNotInitialized
	}

	var xi, eta float64
	if w.tan {
		xi, eta, err = skyToTan(ra, dec, w.crval1, w.crval2)
		if err != nil {
			return 0, 0, err
		}
	} else {
		xi = shortestRA(ra - w.crval1)
		eta = dec - w.crval2
	}

	u := w.inv[0]*xi + w.inv[1]*eta
	v := w.inv[2]*xi + w.inv[3]*eta
	return u + w.crpix1 - 1, v + w.crpix2 - 1, nil
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// shortestRA maps an RA difference onto [-180, 180].
func shortestRA(d float64) float64 {
	if d > 180 {
		return d - 360
	}
	if d < -180 {
		return d + 360
	}
	return d
}

// skyToTan projects a sky point onto the gnomonic tangent plane at
// (ra0, dec0). The standard coordinates xi/eta are in degrees. Points on
// the far hemisphere cannot be projected.
func skyToTan(ra, dec, ra0, dec0 float64) (xi, eta float64, err error) {
	raR := ra * math.Pi / 180
	decR := dec * math.Pi / 180
	ra0R := ra0 * math.Pi / 180
	dec0R := dec0 * math.Pi / 180

	cosc := math.Sin(dec0R)*math.Sin(decR) +
		math.Cos(dec0R)*math.Cos(decR)*math.Cos(raR-ra0R)
	if cosc <= 0 {
		return 0, 0, fmt.Errorf("wcs: point (%g, %g) not projectable onto tangent plane at (%g, %g)",
			ra, dec, ra0, dec0)
	}

	xi = math.Cos(decR) * math.Sin(raR-ra0R) / cosc
	eta = (math.Cos(dec0R)*math.Sin(decR) -
		math.Sin(dec0R)*math.Cos(decR)*math.Cos(raR-ra0R)) / cosc
	return xi * 180 / math.Pi, eta * 180 / math.Pi, nil
}

// tanToSky inverts the gnomonic projection.
func tanToSky(xi, eta, ra0, dec0 float64) (ra, dec float64) {
	x := xi * math.Pi / 180
	y := eta * math.Pi / 180
	ra0R := ra0 * math.Pi / 180
	dec0R := dec0 * math.Pi / 180

	den := math.Cos(dec0R) - y*math.Sin(dec0R)
	raR := ra0R + math.Atan2(x, den)
	decR := math.Atan2((math.Sin(dec0R)+y*math.Cos(dec0R))*math.Cos(raR-ra0R), den)
	return raR * 180 / math.Pi, decR * 180 / math.Pi
}
