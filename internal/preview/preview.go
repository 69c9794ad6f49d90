// Package preview renders float pixel arrays as ordinary raster images
// for quick-look inspection.
//
// Astronomical data spans a far wider dynamic range than a display, so
// every renderer first picks a display window from low/high percentiles
// of the pixel distribution and stretches it linearly. Values outside
// the window clip to black or white.
package preview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/stat"
)

// Options control rendering. Zero percentiles fall back to the 0.5/99.5
// window, which keeps a handful of hot pixels from washing out the frame.
type Options struct {
	LowPercent  float64 // lower window percentile, 0-100
	HighPercent float64 // upper window percentile, 0-100
	MaxDim      int     // longest output edge; 0 keeps full resolution
	FalseColor  bool
}

func (o Options) window() (lo, hi float64) {
	lo, hi = o.LowPercent, o.HighPercent
	if lo == 0 && hi == 0 {
		lo, hi = 0.5, 99.5
	}
	return lo, hi
}

// stretchRange returns the pixel values at the lo/hi percentiles of data.
func stretchRange(data []float64, loPct, hiPct float64) (lo, hi float64) {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	lo = stat.Quantile(loPct/100, stat.Empirical, sorted, nil)
	hi = stat.Quantile(hiPct/100, stat.Empirical, sorted, nil)
	return lo, hi
}

// Grayscale renders data as a 16-bit grayscale image.
func Grayscale(data []float64, width, height int, opts Options) (*image.Gray16, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("preview: %d values for %dx%d image", len(data), width, height)
	}
	loPct, hiPct := opts.window()
	lo, hi := stretchRange(data, loPct, hiPct)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	out := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - lo) / span
			v = min(max(v, 0), 1)
			g := uint16(v * 65535)
			// Gray16 is big-endian in Pix
			i := out.PixOffset(x, y)
			out.Pix[i] = uint8(g >> 8)
			out.Pix[i+1] = uint8(g)
		}
	}
	return out, nil
}

// falseColorStops span deep blue through amber to white, a conventional
// heat-style ramp that keeps faint structure visible against the sky.
var falseColorStops = []colorful.Color{
	{R: 0.00, G: 0.00, B: 0.15},
	{R: 0.10, G: 0.15, B: 0.60},
	{R: 0.90, G: 0.60, B: 0.10},
	{R: 1.00, G: 1.00, B: 1.00},
}

func rampColor(v float64) colorful.Color {
	n := len(falseColorStops) - 1
	pos := v * float64(n)
	seg := min(int(pos), n-1)
	return falseColorStops[seg].BlendLuv(falseColorStops[seg+1], pos-float64(seg)).Clamped()
}

// FalseColor renders data through a fixed color ramp.
func FalseColor(data []float64, width, height int, opts Options) (*image.NRGBA, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("preview: %d values for %dx%d image", len(data), width, height)
	}
	loPct, hiPct := opts.window()
	lo, hi := stretchRange(data, loPct, hiPct)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - lo) / span
			v = min(max(v, 0), 1)
			c := rampColor(v)
			r, g, b := c.RGB255()
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out, nil
}

// Render produces a preview image per opts, downscaled with Lanczos
// resampling when it exceeds opts.MaxDim.
func Render(data []float64, width, height int, opts Options) (image.Image, error) {
	var img image.Image
	var err error
	if opts.FalseColor {
		img, err = FalseColor(data, width, height, opts)
	} else {
		img, err = Grayscale(data, width, height, opts)
	}
	if err != nil {
		return nil, err
	}
	if opts.MaxDim > 0 && (width > opts.MaxDim || height > opts.MaxDim) {
		img = imaging.Fit(img, opts.MaxDim, opts.MaxDim, imaging.Lanczos)
	}
	return img, nil
}

// Write renders data and writes it to path. The encoder is chosen from
// the file extension: .tif/.tiff produce TIFF, anything else PNG.
func Write(path string, data []float64, width, height int, opts Options) error {
	img, err := Render(data, width, height, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(path)
	if strings.HasSuffix(ext, ".tif") || strings.HasSuffix(ext, ".tiff") {
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("preview: encoding %s: %w", path, err)
	}
	return nil
}
