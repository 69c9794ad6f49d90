// Package mosaic composites multiple astronomical images into one pixel
// array aligned by sky coordinates.
//
// Placement is a cheap approximation: each source image's corners are
// projected through its own WCS to the sky and back through the reference
// WCS to pixels, then the source block is translated (and axis-flipped
// when its orientation disagrees with the destination) into place at
// whole-pixel resolution. Nothing is rotated or resampled, so the result
// is only correct when relative rotation between sources is negligible.
package mosaic

import (
	"fmt"
	"log"
	"math"

	"github.com/zhouyaoji/astromosaic/internal/astroimage"
)

// corners lists the four pixel corners of a w x h image in placement
// order: (0,0), (w-1,0), (w-1,h-1), (0,h-1).
func corners(w, h int) [4][2]int {
	return [4][2]int{{0, 0}, {w - 1, 0}, {w - 1, h - 1}, {0, h - 1}}
}

// bounds accumulates the min/max reference-frame pixel coordinates of
// every corner of every image, projected through the reference image's
// WCS. The running bounds start at zero so the reference frame's own
// origin is always inside.
func bounds(ref *astroimage.Image, images []*astroimage.Image) (xmin, ymin, xmax, ymax int, err error) {
	for _, img := range images {
		wd, ht := img.Size()
		for _, c := range corners(wd, ht) {
			ra, dec, err := img.PixelToSky(float64(c[0]), float64(c[1]))
			if err != nil {
				return 0, 0, 0, 0, fmt.Errorf("mosaic: corner of %s: %w", img.Name(), err)
			}
			xf, yf, err := ref.SkyToPixel(ra, dec)
			if err != nil {
				return 0, 0, 0, 0, fmt.Errorf("mosaic: corner of %s: %w", img.Name(), err)
			}
			x0 := int(math.Round(xf))
			y0 := int(math.Round(yf))

			xmin, ymin = min(xmin, x0), min(ymin, y0)
			xmax, ymax = max(xmax, x0), max(ymax, y0)
		}
	}
	return xmin, ymin, xmax, ymax, nil
}

// newCanvas allocates a zero-filled mosaic canvas derived from the base
// image: pixel dimensions from the projected bounds, all metadata copied
// verbatim, and only the size and reference-pixel keywords recomputed.
func newCanvas(base *astroimage.Image, xmin, ymin, xmax, ymax int) (*astroimage.Image, error) {
	width := xmax - xmin + 1
	height := ymax - ymin + 1
	xoff := abs(min(0, xmin))
	yoff := abs(min(0, ymin))

	log.Printf("mosaic: canvas %dx%d, offsets x=%d y=%d", width, height, xoff, yoff)

	canvas := base.CloneWithData(astroimage.NewGrid(width, height))
	canvas.UpdateKeywords(map[string]interface{}{
		"NAXIS1": width,
		"NAXIS2": height,
	})

	crpix1, err := canvas.FloatKeyword("CRPIX1")
	if err != nil {
		return nil, fmt.Errorf("mosaic: %w", err)
	}
	crpix2, err := canvas.FloatKeyword("CRPIX2")
	if err != nil {
		return nil, fmt.Errorf("mosaic: %w", err)
	}
	canvas.UpdateKeywords(map[string]interface{}{
		"CRPIX1": crpix1 + float64(xoff),
		"CRPIX2": crpix2 + float64(yoff),
	})
	return canvas, nil
}

// FromImages builds a mosaic from already-loaded images. The first image
// is the reference frame: the canvas inherits its metadata and WCS, with
// the reference pixel shifted by the computed canvas offsets.
func FromImages(images []*astroimage.Image) (*astroimage.Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("mosaic: no images")
	}

	xmin, ymin, xmax, ymax, err := bounds(images[0], images)
	if err != nil {
		return nil, err
	}
	canvas, err := newCanvas(images[0], xmin, ymin, xmax, ymax)
	if err != nil {
		return nil, err
	}
	if err := Inline(canvas, images); err != nil {
		return nil, err
	}
	return canvas, nil
}

// FromFiles builds a mosaic from a list of FITS files. The first file is
// the reference frame. Loading is best-effort per file after the
// reference: a file that cannot be loaded or placed is logged and
// skipped, and does not abort the batch.
func FromFiles(filelist []string) (*astroimage.Image, error) {
	if len(filelist) == 0 {
		return nil, fmt.Errorf("mosaic: no files")
	}

	ref := astroimage.New(astroimage.NewGrid(0, 0), nil)
	if err := ref.LoadFile(filelist[0]); err != nil {
		return nil, err
	}

	xmin, ymin, xmax, ymax := 0, 0, 0, 0
	for _, path := range filelist {
		img := astroimage.New(astroimage.NewGrid(0, 0), nil)
		if err := img.LoadFile(path); err != nil {
			log.Printf("mosaic: skipping %s: %v", path, err)
			continue
		}
		x0, y0, x1, y1, err := bounds(ref, []*astroimage.Image{img})
		if err != nil {
			return nil, err
		}
		xmin, ymin = min(xmin, x0), min(ymin, y0)
		xmax, ymax = max(xmax, x1), max(ymax, y1)
	}

	canvas, err := newCanvas(ref, xmin, ymin, xmax, ymax)
	if err != nil {
		return nil, err
	}

	for _, path := range filelist {
		img := astroimage.New(astroimage.NewGrid(0, 0), nil)
		if err := img.LoadFile(path); err != nil {
			log.Printf("mosaic: skipping %s: %v", path, err)
			continue
		}
		if err := Inline(canvas, []*astroimage.Image{img}); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

// Inline drops source images into an existing canvas, relocating each
// according to the WCS relation between the two and flipping axes whose
// orientation disagrees. A source whose block does not fit inside the
// canvas is logged and skipped; the rest of the batch continues. One
// "modified" notification is emitted after all placements.
func Inline(canvas *astroimage.Image, images []*astroimage.Image) error {
	wd, ht := canvas.Size()

	// destination orientation from the near and far sky corners
	ra0, dec0, err := canvas.PixelToSky(0, 0)
	if err != nil {
		return fmt.Errorf("mosaic: canvas orientation: %w", err)
	}
	ra1, dec1, err := canvas.PixelToSky(float64(wd-1), float64(ht-1))
	if err != nil {
		return fmt.Errorf("mosaic: canvas orientation: %w", err)
	}
	raInc := ra0 < ra1
	decInc := dec0 < dec1

	dst := canvas.Data()
	for _, img := range images {
		swd, sht := img.Size()

		ra2, dec2, err := img.PixelToSky(0, 0)
		if err != nil {
			return fmt.Errorf("mosaic: orientation of %s: %w", img.Name(), err)
		}
		ra3, dec3, err := img.PixelToSky(float64(swd-1), float64(sht-1))
		if err != nil {
			return fmt.Errorf("mosaic: orientation of %s: %w", img.Name(), err)
		}

		// Flip the block along each axis whose direction disagrees
		// with the canvas, and track which corner becomes the origin.
		block := *img.Data()
		ra, dec := ra2, dec2
		if raInc != (ra2 < ra3) {
			block = block.FlipH()
			ra = ra3
		}
		if decInc != (dec2 < dec3) {
			block = block.FlipV()
			dec = dec3
		}

		xf, yf, err := canvas.SkyToPixel(ra, dec)
		if err != nil {
			return fmt.Errorf("mosaic: placing %s: %w", img.Name(), err)
		}
		// sub-pixel WCS precision is discarded here
		x0 := int(math.Round(xf))
		y0 := int(math.Round(yf))

		if err := dst.SetBlock(x0, y0, block); err != nil {
			log.Printf("mosaic: failed to place image %q: %v", img.Name(), err)
			continue
		}
	}

	canvas.NotifyModified()
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
