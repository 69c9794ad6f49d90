// Package fitsfile wraps FITS container I/O for the image entity.
//
// Reading is built on github.com/astrogo/fitsio. A container is opened
// from disk, its header/data units enumerated, and a selected unit decoded
// into a float64 pixel array plus the ordered header cards. Writing goes
// the other way: ordered cards and a pixel array become a single-unit FITS
// file.
//
// All pixel formats of the FITS standard (BITPIX 8, 16, 32, 64, -32, -64)
// are decoded, with BZERO/BSCALE applied, so callers always see physical
// values as float64.
package fitsfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/astrogo/fitsio"
)

// Card is one ordered header entry of a unit.
type Card struct {
	Name    string
	Value   interface{}
	Comment string
}

// Unit is the decoded content of one header/data unit: the pixel array as
// float64 in row-major order plus the header cards in file order.
type Unit struct {
	Index  int
	Cards  []Card
	Data   []float64
	Width  int
	Height int
}

// Container is an open FITS file.
type Container struct {
	path string
	f    *fitsio.File
	r    *os.File
}

// Open opens and validates a FITS container. Failures are wrapped with
// the file path and the underlying cause.
func Open(path string) (*Container, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fits: open %s: %w", path, err)
	}
	f, err := fitsio.Open(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("fits: parse %s: %w", path, err)
	}
	return &Container{path: path, f: f, r: r}, nil
}

// Close releases the container and its underlying file.
func (c *Container) Close() error {
	err := c.f.Close()
	if cerr := c.r.Close(); err == nil {
		err = cerr
	}
	return err
}

// Path returns the path the container was opened from.
func (c *Container) Path() string { return c.path }

// NumUnits returns the number of header/data units in the container.
func (c *Container) NumUnits() int { return len(c.f.HDUs()) }

// ImageUnit decodes the unit at the given index. With index < 0 it scans
// for the first unit carrying a usable pixel array, the way a compressed
// or table-leading container is normally consumed.
func (c *Container) ImageUnit(index int) (*Unit, error) {
	hdus := c.f.HDUs()
	if index >= 0 {
		if index >= len(hdus) {
			return nil, fmt.Errorf("fits: %s has no unit %d (%d units)", c.path, index, len(hdus))
		}
		u, err := c.decodeUnit(index, hdus[index])
		if err != nil {
			return nil, fmt.Errorf("fits: unit %d of %s: %w", index, c.path, err)
		}
		return u, nil
	}

	for i, hdu := range hdus {
		u, err := c.decodeUnit(i, hdu)
		if err == nil {
			return u, nil
		}
	}
	return nil, fmt.Errorf("fits: no usable data unit in %s", c.path)
}

func (c *Container) decodeUnit(index int, hdu fitsio.HDU) (*Unit, error) {
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("unit is not an image")
	}
	hdr := img.Header()

	axes := hdr.Axes()
	if len(axes) == 0 {
		return nil, fmt.Errorf("unit has no data")
	}
	total := 1
	for _, n := range axes {
		if n <= 0 {
			return nil, fmt.Errorf("unit has a zero-length axis")
		}
		total *= n
	}

	// A 1-D unit becomes a single row; higher ranks collapse to the
	// first 2-D plane, matching a zero naxispath.
	width := axes[0]
	height := 1
	if len(axes) > 1 {
		height = axes[1]
	}

	data, err := readPixels(img, hdr, total)
	if err != nil {
		return nil, err
	}
	data = data[:width*height]

	var cards []Card
	for _, key := range hdr.Keys() {
		if card := hdr.Get(key); card != nil {
			cards = append(cards, Card{Name: card.Name, Value: card.Value, Comment: card.Comment})
		}
	}

	return &Unit{
		Index:  index,
		Cards:  cards,
		Data:   data,
		Width:  width,
		Height: height,
	}, nil
}

// readPixels decodes the raw pixel block into physical float64 values,
// applying BZERO and BSCALE.
func readPixels(img fitsio.Image, hdr *fitsio.Header, n int) ([]float64, error) {
	bzero, bscale := 0.0, 1.0
	if card := hdr.Get("BZERO"); card != nil {
		if v, ok := asFloat(card.Value); ok {
			bzero = v
		}
	}
	if card := hdr.Get("BSCALE"); card != nil {
		if v, ok := asFloat(card.Value); ok {
			bscale = v
		}
	}

	out := make([]float64, n)
	switch bitpix := hdr.Bitpix(); bitpix {
	case 8:
		raw := make([]byte, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	if bzero != 0 || bscale != 1 {
		for i := range out {
			out[i] = bzero + bscale*out[i]
		}
	}
	return out, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// WriteMode selects how malformed cards are handled during Write.
type WriteMode int

const (
	// WriteFix silently drops cards the encoder rejects, keeping the
	// rest of the header and the data intact.
	WriteFix WriteMode = iota
	// WriteStrict fails on the first rejected card.
	WriteStrict
)

// structural reports keywords that describe the container layout itself.
// The encoder writes these; carrying stale copies over corrupts the unit.
func structural(name string) bool {
	switch name {
	case "SIMPLE", "BITPIX", "EXTEND", "XTENSION", "BZERO", "BSCALE",
		"PCOUNT", "GCOUNT", "END":
		return true
	}
	return strings.HasPrefix(name, "NAXIS")
}

// Write creates a FITS file at path holding a single float64 image unit
// with the given ordered cards.
func Write(path string, cards []Card, data []float64, width, height int, mode WriteMode) error {
	if width*height != len(data) {
		return fmt.Errorf("fits: write %s: %dx%d does not match %d pixels", path, width, height, len(data))
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fits: create %s: %w", path, err)
	}
	defer w.Close()

	out, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("fits: create %s: %w", path, err)
	}
	defer out.Close()

	img := fitsio.NewImage(-64, []int{width, height})
	defer img.Close()

	for _, c := range cards {
		if structural(c.Name) {
			continue
		}
		err := img.Header().Append(fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment})
		if err != nil {
			if mode == WriteStrict {
				return fmt.Errorf("fits: write %s: card %s: %w", path, c.Name, err)
			}
			continue
		}
	}

	if err := img.Write(&data); err != nil {
		return fmt.Errorf("fits: write %s: %w", path, err)
	}
	if err := out.Write(img); err != nil {
		return fmt.Errorf("fits: write %s: %w", path, err)
	}
	return nil
}
