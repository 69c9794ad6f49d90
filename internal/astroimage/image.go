package astroimage

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/zhouyaoji/astromosaic/internal/fitsfile"
	"github.com/zhouyaoji/astromosaic/internal/wcs"
)

// ImageError reports a failure to load or update an image from a
// container, carrying the file path and the underlying cause.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("astroimage: %s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// Image is an astronomical data image: a pixel grid, its ordered header
// and free-form metadata, and a WCS adapter kept in sync with the header.
//
// Image is NOT safe for concurrent use. Callers must serialize all
// mutating operations externally.
type Image struct {
	data      Grid
	header    *Header
	meta      map[string]interface{}
	keyorder  []string
	wcs       *wcs.WCS
	wcsErr    error
	callbacks map[string][]CallbackFunc
}

// New builds an image around a pixel grid. The grid is adopted, not
// copied; the caller relinquishes it. metadata may be nil.
func New(g Grid, metadata map[string]interface{}) *Image {
	im := &Image{
		data:   g,
		header: NewHeader(),
		meta:   make(map[string]interface{}),
	}
	for k, v := range metadata {
		im.meta[k] = v
	}
	im.wcsErr = wcs.ErrNotInitialized
	return im
}

// Size returns (width, height) of the pixel grid.
func (im *Image) Size() (int, int) { return im.data.Dx(), im.data.Dy() }

// Width returns the number of pixel columns.
func (im *Image) Width() int { return im.data.Dx() }

// Height returns the number of pixel rows.
func (im *Image) Height() int { return im.data.Dy() }

// Data returns the image's pixel grid. The grid shares storage with the
// entity; mutating it mutates the image without notification.
func (im *Image) Data() *Grid { return &im.data }

// CopyData returns an independent copy of the pixel grid.
func (im *Image) CopyData() Grid { return im.data.Copy() }

// DataXY returns the pixel value at (x, y).
func (im *Image) DataXY(x, y int) (float64, error) {
	if x < 0 || y < 0 || x >= im.data.Dx() || y >= im.data.Dy() {
		return 0, fmt.Errorf("astroimage: pixel (%d,%d) outside %dx%d", x, y, im.data.Dx(), im.data.Dy())
	}
	return im.data.Get(x, y), nil
}

// Header returns the image's keyword table.
func (im *Image) Header() *Header { return im.header }

// KeyOrder returns the original card order recorded at load time, used
// for deterministic write-back. Empty until a unit has been loaded.
func (im *Image) KeyOrder() []string {
	out := make([]string, len(im.keyorder))
	copy(out, im.keyorder)
	return out
}

// Keyword returns a header value, or ErrKeywordNotFound.
func (im *Image) Keyword(name string) (interface{}, error) {
	v, ok := im.header.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeywordNotFound, normalizeKey(name))
	}
	return v, nil
}

// KeywordDefault returns a header value, or def when the keyword is not
// present.
func (im *Image) KeywordDefault(name string, def interface{}) interface{} {
	if v, ok := im.header.Get(name); ok {
		return v
	}
	return def
}

// Keywords returns the values of several keywords in order, failing on
// the first missing one.
func (im *Image) Keywords(names ...string) ([]interface{}, error) {
	out := make([]interface{}, 0, len(names))
	for _, name := range names {
		v, err := im.Keyword(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FloatKeyword returns a header value coerced to float64. A missing
// keyword yields ErrKeywordNotFound; a present but non-numeric value
// yields a *KeywordTypeError.
func (im *Image) FloatKeyword(name string) (float64, error) {
	v, err := im.Keyword(name)
	if err != nil {
		return 0, err
	}
	f, ok := coerceFloat(v)
	if !ok {
		return 0, &KeywordTypeError{Keyword: normalizeKey(name), Value: v}
	}
	return f, nil
}

// SetKeyword stores one header keyword and re-derives the WCS.
func (im *Image) SetKeyword(name string, value interface{}) {
	im.header.Set(name, value, "")
	im.rebuildWCS()
}

// UpdateKeywords stores a batch of header keywords (keys upcased) and
// re-derives the WCS once.
func (im *Image) UpdateKeywords(kv map[string]interface{}) {
	for k, v := range kv {
		im.header.Set(k, v, "")
	}
	im.rebuildWCS()
}

// MetaValue returns a metadata entry.
func (im *Image) MetaValue(key string) (interface{}, bool) {
	v, ok := im.meta[key]
	return v, ok
}

// SetMeta stores a metadata entry. Metadata lives beside the header; it
// is not written to the container.
func (im *Image) SetMeta(key string, value interface{}) {
	im.meta[key] = value
}

// Metadata returns a copy of the metadata table.
func (im *Image) Metadata() map[string]interface{} {
	out := make(map[string]interface{}, len(im.meta))
	for k, v := range im.meta {
		out[k] = v
	}
	return out
}

// UpdateMetadata merges entries into the metadata table. Metadata never
// feeds the WCS; header keywords go through SetKeyword/UpdateKeywords.
func (im *Image) UpdateMetadata(kv map[string]interface{}) {
	for k, v := range kv {
		im.meta[k] = v
	}
}

// Name returns the image's name metadata, or "NoName".
func (im *Image) Name() string {
	if v, ok := im.meta["name"].(string); ok && v != "" {
		return v
	}
	return "NoName"
}

// rebuildWCS re-derives the WCS adapter from the current header. The
// rebuild is best effort: a header without WCS keywords leaves the image
// valid but its coordinate operations failing with the recorded cause.
func (im *Image) rebuildWCS() {
	w, err := wcs.New(im.header)
	if err != nil {
		// never serve coordinates from a stale adapter
		im.wcs = nil
		im.wcsErr = err
		return
	}
	im.wcs = w
	im.wcsErr = nil
}

// UpdateData replaces the pixel grid with a private copy of g.
func (im *Image) UpdateData(g Grid) {
	im.data = g.Copy()
	im.NotifyModified()
}

// LoadUnit populates the image from a decoded container unit: pixel
// data, upcased header keywords, preserved key order, and a rebuilt WCS.
func (im *Image) LoadUnit(u *fitsfile.Unit) error {
	g, err := GridFromSlice(u.Data, u.Width, u.Height)
	if err != nil {
		return fmt.Errorf("astroimage: unit %d: %w", u.Index, err)
	}

	hdr := NewHeader()
	order := make([]string, 0, len(u.Cards))
	for _, c := range u.Cards {
		hdr.Set(c.Name, c.Value, c.Comment)
		order = append(order, normalizeKey(c.Name))
	}

	im.data = g
	im.header = hdr
	im.keyorder = order
	im.rebuildWCS()
	return nil
}

// LoadFile loads the first usable data unit of a FITS file.
func (im *Image) LoadFile(path string) error {
	return im.LoadFileUnit(path, -1)
}

// LoadFileUnit loads the given unit of a FITS file; index < 0 selects the
// first usable one. On failure the image keeps its prior state.
func (im *Image) LoadFileUnit(path string, index int) error {
	c, err := fitsfile.Open(path)
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	defer c.Close()

	u, err := c.ImageUnit(index)
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	if err := im.LoadUnit(u); err != nil {
		return &ImageError{Path: path, Err: err}
	}

	im.meta["path"] = path
	if _, ok := im.meta["name"]; !ok {
		base := filepath.Base(path)
		im.meta["name"] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return nil
}

// LoadBuffer populates the pixel grid from a raw float64 buffer in the
// given byte order. The header and metadata are left untouched.
func (im *Image) LoadBuffer(raw []byte, width, height int, order binary.ByteOrder) error {
	if width*height*8 != len(raw) {
		return fmt.Errorf("astroimage: buffer of %d bytes does not hold %dx%d float64 pixels",
			len(raw), width, height)
	}
	values := make([]float64, width*height)
	for i := range values {
		values[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
	}
	g, err := GridFromSlice(values, width, height)
	if err != nil {
		return err
	}
	im.data = g
	im.NotifyModified()
	return nil
}

// UpdateUnit replaces pixel data and header keywords from a decoded unit,
// keeping existing metadata.
func (im *Image) UpdateUnit(u *fitsfile.Unit) error {
	g, err := GridFromSlice(u.Data, u.Width, u.Height)
	if err != nil {
		return fmt.Errorf("astroimage: unit %d: %w", u.Index, err)
	}
	im.data = g
	for _, c := range u.Cards {
		im.header.Set(c.Name, c.Value, c.Comment)
	}
	im.rebuildWCS()
	return nil
}

// UpdateFile replaces pixel data and header keywords from the given unit
// of a FITS file.
func (im *Image) UpdateFile(path string, index int) error {
	c, err := fitsfile.Open(path)
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	defer c.Close()

	u, err := c.ImageUnit(index)
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	return im.UpdateUnit(u)
}

// Transfer copies this image's pixel data and metadata into other.
func (im *Image) Transfer(other *Image) {
	other.data = im.data.Copy()
	other.header = im.header.Copy()
	other.keyorder = im.KeyOrder()
	for k, v := range im.meta {
		other.meta[k] = v
	}
	other.rebuildWCS()
}

// Copy returns an independent duplicate of the image. Callbacks are not
// carried over.
func (im *Image) Copy() *Image {
	other := New(NewGrid(0, 0), nil)
	im.Transfer(other)
	return other
}

// CloneWithData returns a new image adopting g but carrying this image's
// header, key order and metadata. Used by the mosaic engine to derive a
// canvas from a base image.
func (im *Image) CloneWithData(g Grid) *Image {
	other := New(g, nil)
	other.header = im.header.Copy()
	other.keyorder = im.KeyOrder()
	for k, v := range im.meta {
		other.meta[k] = v
	}
	other.rebuildWCS()
	return other
}

// SaveAs writes the image as a single-unit FITS file. Cards follow the
// recorded key order, then any keywords added since load.
func (im *Image) SaveAs(path string) error {
	seen := make(map[string]bool)
	var cards []fitsfile.Card

	appendCard := func(key string) {
		if seen[key] {
			return
		}
		card, ok := im.header.Card(key)
		if !ok {
			return
		}
		seen[key] = true
		cards = append(cards, fitsfile.Card{Name: key, Value: card.Value, Comment: card.Comment})
	}

	for _, key := range im.keyorder {
		appendCard(key)
	}
	for _, key := range im.header.Keys() {
		appendCard(key)
	}

	err := fitsfile.Write(path, cards, im.data.Raw(), im.data.Dx(), im.data.Dy(), fitsfile.WriteFix)
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	return nil
}
