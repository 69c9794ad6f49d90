// Package quality estimates star-field quality metrics from a pixel
// sub-array: object center, full width at half maximum, sky background
// level and brightness.
//
// The detector is deliberately simple: background and noise come from
// robust statistics (median and median absolute deviation), the object is
// the brightest pixel above threshold away from the edges, the center is
// a flux-weighted centroid, and the FWHM comes from second moments of the
// background-subtracted flux. Consumers treat the package as a black box
// and only translate the returned coordinates back into full-image pixel
// space.
package quality

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v2"
)

// ErrNoObject is returned when no pixel qualifies as an object.
var ErrNoObject = errors.New("quality: no object found")

// Params controls field-quality detection.
type Params struct {
	// PeakRadius is the search window half-size around a candidate peak.
	PeakRadius int `yaml:"peak_radius"`
	// BrightRadius is the half-size of the window used to measure
	// object brightness.
	BrightRadius int `yaml:"bright_radius"`
	// FWHMRadius is the half-size of the window used for centroid and
	// FWHM moments.
	FWHMRadius int `yaml:"fwhm_radius"`
	// Threshold is the absolute detection cutoff. Zero selects an
	// automatic threshold of sky + 5 sigma.
	Threshold float64 `yaml:"threshold"`
	// MinFWHM and MaxFWHM bound acceptable object sizes in pixels.
	MinFWHM float64 `yaml:"min_fwhm"`
	MaxFWHM float64 `yaml:"max_fwhm"`
	// MinEllipse is the minimum acceptable minor/major FWHM ratio.
	MinEllipse float64 `yaml:"min_ellipse"`
	// EdgeWidth is the fraction of each dimension excluded at the edges.
	EdgeWidth float64 `yaml:"edge_width"`
	// NoiseReduction applies a gaussian blur to the detection copy
	// before peak finding. Measurements still use the original pixels.
	NoiseReduction bool `yaml:"noise_reduction"`
}

// DefaultParams returns the standard detection parameters.
func DefaultParams() Params {
	return Params{
		PeakRadius:     5,
		BrightRadius:   2,
		FWHMRadius:     15,
		Threshold:      0,
		MinFWHM:        2.0,
		MaxFWHM:        50.0,
		MinEllipse:     0.5,
		EdgeWidth:      0.01,
		NoiseReduction: true,
	}
}

// LoadParams reads detection parameters from a YAML file, starting from
// the defaults so a partial file only overrides what it names.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	contents, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("quality: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, &p); err != nil {
		return p, fmt.Errorf("quality: parse %s: %w", path, err)
	}
	return p, nil
}

// Report is the result of a field-quality measurement. Coordinates are
// relative to the sub-array handed to PickField.
type Report struct {
	ObjX        float64 `json:"obj_x"`
	ObjY        float64 `json:"obj_y"`
	FWHM        float64 `json:"fwhm"`
	FWHMX       float64 `json:"fwhm_x"`
	FWHMY       float64 `json:"fwhm_y"`
	SkyLevel    float64 `json:"sky_level"`
	Brightness  float64 `json:"brightness"`
	Ellipticity float64 `json:"ellipticity"`
}

// PickField measures the most prominent object in a row-major pixel
// sub-array of the given dimensions.
func PickField(data []float64, width, height int, p Params) (*Report, error) {
	if width <= 0 || height <= 0 || width*height != len(data) {
		return nil, fmt.Errorf("quality: %dx%d does not match %d pixels", width, height, len(data))
	}

	sky, noise := skyStats(data)

	threshold := p.Threshold
	if threshold == 0 {
		threshold = sky + 5*noise
	}

	search := data
	if p.NoiseReduction {
		search = smoothed(data, width, height)
	}

	px, py, ok := brightestAbove(search, width, height, threshold, p.EdgeWidth)
	if !ok {
		return nil, fmt.Errorf("%w: threshold %.3f", ErrNoObject, threshold)
	}

	cx, cy, fwhmX, fwhmY := moments(data, width, height, px, py, p.FWHMRadius, sky)
	fwhm := (fwhmX + fwhmY) / 2

	ellip := 1.0
	if maxF := math.Max(fwhmX, fwhmY); maxF > 0 {
		ellip = math.Min(fwhmX, fwhmY) / maxF
	}

	if fwhm < p.MinFWHM || fwhm > p.MaxFWHM {
		return nil, fmt.Errorf("%w: fwhm %.2f outside [%.2f, %.2f]", ErrNoObject, fwhm, p.MinFWHM, p.MaxFWHM)
	}
	if ellip < p.MinEllipse {
		return nil, fmt.Errorf("%w: ellipticity %.2f below %.2f", ErrNoObject, ellip, p.MinEllipse)
	}

	bright := peakBrightness(data, width, height, px, py, p.BrightRadius) - sky

	return &Report{
		ObjX:        cx,
		ObjY:        cy,
		FWHM:        fwhm,
		FWHMX:       fwhmX,
		FWHMY:       fwhmY,
		SkyLevel:    sky,
		Brightness:  bright,
		Ellipticity: ellip,
	}, nil
}

// skyStats estimates the background level and noise with the median and
// the scaled median absolute deviation.
func skyStats(data []float64) (sky, noise float64) {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	sky = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	dev := make([]float64, len(data))
	for i, v := range data {
		dev[i] = math.Abs(v - sky)
	}
	sort.Float64s(dev)
	// 1.4826 scales MAD to the standard deviation of a gaussian
	noise = 1.4826 * stat.Quantile(0.5, stat.Empirical, dev, nil)
	return sky, noise
}

// smoothed returns a gaussian-blurred detection copy of the data. The
// blur runs on an 8-bit rendering, which is plenty for peak finding.
func smoothed(data []float64, width, height int) []float64 {
	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - lo) / (hi - lo)
			gray.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}

	blurred := blur.Gaussian(gray, 1.0)

	out := make([]float64, len(data))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(blurred.RGBAAt(x, y).R) / 255.0
			out[y*width+x] = lo + v*(hi-lo)
		}
	}
	return out
}

// brightestAbove scans the interior (excluding the edge fraction) for the
// brightest pixel above threshold.
func brightestAbove(data []float64, width, height int, threshold, edgew float64) (x, y int, ok bool) {
	ex := int(edgew * float64(width))
	ey := int(edgew * float64(height))

	best := threshold
	for yy := ey; yy < height-ey; yy++ {
		for xx := ex; xx < width-ex; xx++ {
			if v := data[yy*width+xx]; v > best {
				best = v
				x, y = xx, yy
				ok = true
			}
		}
	}
	return x, y, ok
}

// moments computes the flux-weighted centroid and per-axis FWHM from
// second moments of the background-subtracted flux around (px, py).
func moments(data []float64, width, height int, px, py, radius int, sky float64) (cx, cy, fwhmX, fwhmY float64) {
	x0, x1 := max(0, px-radius), min(width-1, px+radius)
	y0, y1 := max(0, py-radius), min(height-1, py+radius)

	var flux, sumX, sumY float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			f := data[y*width+x] - sky
			if f <= 0 {
				continue
			}
			flux += f
			sumX += f * float64(x)
			sumY += f * float64(y)
		}
	}
	if flux == 0 {
		return float64(px), float64(py), 0, 0
	}
	cx = sumX / flux
	cy = sumY / flux

	var varX, varY float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			f := data[y*width+x] - sky
			if f <= 0 {
				continue
			}
			varX += f * (float64(x) - cx) * (float64(x) - cx)
			varY += f * (float64(y) - cy) * (float64(y) - cy)
		}
	}
	// FWHM of a gaussian is 2*sqrt(2*ln 2) sigma
	const k = 2.3548200450309493
	fwhmX = k * math.Sqrt(varX/flux)
	fwhmY = k * math.Sqrt(varY/flux)
	return cx, cy, fwhmX, fwhmY
}

// peakBrightness returns the maximum pixel value within radius of the
// peak.
func peakBrightness(data []float64, width, height int, px, py, radius int) float64 {
	x0, x1 := max(0, px-radius), min(width-1, px+radius)
	y0, y1 := max(0, py-radius), min(height-1, py+radius)

	best := data[py*width+px]
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			best = math.Max(best, data[y*width+x])
		}
	}
	return best
}
