// Package sphere provides spherical trigonometry for celestial coordinates.
//
// All public functions take right ascension and declination in decimal
// degrees (RA 0-360, Dec -90 to +90) and are pure: no state, no I/O.
// Position angles follow the astronomical convention of degrees East of
// North.
package sphere

import (
	"fmt"
	"math"
)

// minDistRad is the smallest great-circle distance, in radians, for which
// a position angle is computed. Below it the bearing is reported as 0.
const minDistRad = 4e-7

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// clampUnit limits v to [-1, 1] so that floating error cannot push an
// acos argument out of domain.
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// SeparationBearing solves the spherical triangle between a center point
// (ra0, dec0) and a second point (ra, dec), with no small-angle
// approximations.
//
// Returns:
//   - bearingDeg: position angle of the second point as seen from the
//     center, in degrees East of North.
//   - distArcmin: great-circle distance in arcminutes.
//
// When the two points coincide (distance below an internal threshold) the
// bearing is 0. At the poles the bearing degenerates and is fixed by
// convention: 180 when dec0 is +90, 0 when dec0 is -90.
func SeparationBearing(ra0, dec0, ra, dec float64) (bearingDeg, distArcmin float64) {
	alf := degToRad(ra)
	alf0 := degToRad(ra0)
	del := degToRad(dec)
	del0 := degToRad(dec0)

	sd0, cd0 := math.Sin(del0), math.Cos(del0)
	sd, cd := math.Sin(del), math.Cos(del)
	cosda := math.Cos(alf - alf0)

	cosd := sd0*sd + cd0*cd*cosda
	dist := math.Acos(clampUnit(cosd))

	phi := 0.0
	if dist > minDistRad {
		sind := math.Sin(dist)
		cospa := (sd*cd0 - cd*sd0*cosda) / sind
		if math.Abs(cospa) > 1 {
			// floating error can push the ratio just past unity
			cospa = cospa / math.Abs(cospa)
		}
		sinpa := cd * math.Sin(alf-alf0) / sind
		phi = radToDeg(math.Acos(cospa))
		if sinpa < 0 {
			phi = 360.0 - phi
		}
	}

	switch dec0 {
	case 90.0:
		phi = 180.0
	case -90.0:
		phi = 0.0
	}

	return phi, radToDeg(dist) * 60.0
}

// SeparationDeg returns the angular separation between two points in
// decimal degrees. This is the canonical implementation, derived from
// SeparationBearing.
func SeparationDeg(ra1, dec1, ra2, dec2 float64) float64 {
	_, distArcmin := SeparationBearing(ra1, dec1, ra2, dec2)
	return distArcmin / 60.0
}

// SeparationColatDeg returns the angular separation computed from the
// co-latitudes of the two points. It is retained as an independent
// cross-check of SeparationDeg; the two agree to floating tolerance on
// well-conditioned inputs. Callers should use SeparationDeg.
func SeparationColatDeg(ra1, dec1, ra2, dec2 float64) float64 {
	colat1 := math.Pi/2 - degToRad(dec1)
	colat2 := math.Pi/2 - degToRad(dec2)
	cosSep := math.Cos(colat1)*math.Cos(colat2) +
		math.Sin(colat1)*math.Sin(colat2)*math.Cos(degToRad(ra1)-degToRad(ra2))
	return radToDeg(math.Acos(clampUnit(cosSep)))
}

// RADecOffsets returns the signed offsets from point 2 to point 1 as a
// locally-flat tangent-plane delta.
//
// The RA difference is wrapped across the 0/360 seam (a raw difference
// beyond +/-180 is brought back into range) and scaled by cos(dec2) so it
// measures true angular distance at the second point's declination. The
// Dec difference is not scaled. Note the asymmetry: swapping the points
// changes the scale factor from cos(dec2) to cos(dec1).
func RADecOffsets(ra1, dec1, ra2, dec2 float64) (dRA, dDec float64) {
	dRA = ra1 - ra2
	adj := math.Cos(degToRad(dec2))
	switch {
	case dRA > 180.0:
		dRA = (dRA - 360.0) * adj
	case dRA < -180.0:
		dRA = (dRA + 360.0) * adj
	default:
		dRA *= adj
	}
	dDec = dec1 - dec2
	return dRA, dDec
}

// DegToDMS splits an angle in decimal degrees into sign, whole degrees,
// minutes and seconds. The sign is returned separately (+1 or -1); the
// remaining fields are non-negative.
func DegToDMS(deg float64) (sign, d, m int, s float64) {
	sign = 1
	if deg < 0 {
		sign = -1
		deg = -deg
	}
	d = int(deg)
	frac := (deg - float64(d)) * 60.0
	m = int(frac)
	s = (frac - float64(m)) * 60.0
	return sign, d, m, s
}

// SeparationDMS formats the angular separation between two points as a
// sexagesimal string: "DD:MM:SS.sss", or "MM:SS.sss" when the degree
// field is zero.
func SeparationDMS(ra1, dec1, ra2, dec2 float64) string {
	sep := SeparationDeg(ra1, dec1, ra2, dec2)
	// Quantize to the milliarcsecond output resolution and split in
	// integer arithmetic. Splitting the float directly lets acos
	// round-off just below a whole minute leave a seconds field that
	// formats as 60.000.
	total := int64(math.Round(sep * 3.6e6))
	d := total / 3600000
	m := (total % 3600000) / 60000
	s := float64(total%60000) / 1000
	if d != 0 {
		return fmt.Sprintf("%02d:%02d:%06.3f", d, m, s)
	}
	return fmt.Sprintf("%02d:%06.3f", m, s)
}
