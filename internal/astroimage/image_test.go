package astroimage

import (
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestKeywordErrors(t *testing.T) {
	im := New(NewGrid(4, 4), nil)
	im.SetKeyword("OBJECT", "M31")
	im.SetKeyword("EXPTIME", 30.0)

	if _, err := im.Keyword("NOPE"); !errors.Is(err, ErrKeywordNotFound) {
		t.Errorf("missing keyword error = %v, want ErrKeywordNotFound", err)
	}

	// a present but non-numeric value is a type error, not a missing one
	_, err := im.FloatKeyword("OBJECT")
	var typeErr *KeywordTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("FloatKeyword(OBJECT) error = %v, want *KeywordTypeError", err)
	}
	if errors.Is(err, ErrKeywordNotFound) {
		t.Error("type error should not match ErrKeywordNotFound")
	}

	if f, err := im.FloatKeyword("EXPTIME"); err != nil || f != 30.0 {
		t.Errorf("FloatKeyword(EXPTIME) = %v, %v", f, err)
	}
	if v := im.KeywordDefault("NOPE", 42); v != 42 {
		t.Errorf("KeywordDefault = %v, want 42", v)
	}
}

func TestKeywordsStopsAtFirstMissing(t *testing.T) {
	im := New(NewGrid(1, 1), nil)
	im.SetKeyword("A", 1)
	im.SetKeyword("C", 3)

	if _, err := im.Keywords("A", "B", "C"); !errors.Is(err, ErrKeywordNotFound) {
		t.Fatalf("Keywords error = %v, want ErrKeywordNotFound", err)
	}
	vals, err := im.Keywords("A", "C")
	if err != nil || len(vals) != 2 || vals[0] != 1 || vals[1] != 3 {
		t.Fatalf("Keywords = %v, %v", vals, err)
	}
}

func TestNameFallback(t *testing.T) {
	im := New(NewGrid(1, 1), nil)
	if im.Name() != "NoName" {
		t.Errorf("Name = %q, want NoName", im.Name())
	}
	im.SetMeta("name", "ngc253_r")
	if im.Name() != "ngc253_r" {
		t.Errorf("Name = %q", im.Name())
	}
}

func TestUpdateDataCopies(t *testing.T) {
	im := New(NewGrid(2, 2), nil)
	g := NewGrid(2, 2)
	g.Set(0, 0, 5)
	im.UpdateData(g)

	// later mutation of the caller's grid must not leak into the image
	g.Set(0, 0, 9)
	if v, _ := im.DataXY(0, 0); v != 5 {
		t.Errorf("image pixel = %v, want 5", v)
	}
}

func TestLoadBuffer(t *testing.T) {
	im := New(NewGrid(0, 0), nil)
	vals := []float64{1.5, -2, 3, 4, 5, 6.25}
	raw := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.BigEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	if err := im.LoadBuffer(raw, 3, 2, binary.BigEndian); err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if v, _ := im.DataXY(2, 1); v != 6.25 {
		t.Errorf("(2,1) = %v, want 6.25", v)
	}

	if err := im.LoadBuffer(raw[:8], 3, 2, binary.BigEndian); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestUpdateMetadataLeavesWCSAlone(t *testing.T) {
	im := New(NewGrid(4, 4), nil)
	im.UpdateMetadata(map[string]interface{}{"name": "field1", "CRVAL1": 180.0})

	if im.Name() != "field1" {
		t.Errorf("Name = %q, want field1", im.Name())
	}
	// metadata entries are not header keywords and cannot build a WCS
	if _, _, err := im.PixelToSky(0, 0); err == nil {
		t.Fatal("metadata update produced a WCS")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	im := New(seq(t, 3, 3), nil)
	im.SetKeyword("OBJECT", "M1")
	im.SetMeta("name", "crab")

	cp := im.Copy()
	cp.Data().Set(0, 0, -99)
	cp.SetKeyword("OBJECT", "M2")

	if v, _ := im.DataXY(0, 0); v == -99 {
		t.Error("copy shares pixel storage")
	}
	if v, _ := im.Keyword("OBJECT"); v != "M1" {
		t.Errorf("original OBJECT = %v", v)
	}
	if cp.Name() != "crab" {
		t.Errorf("copy name = %q", cp.Name())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.fits")

	im := New(seq(t, 8, 5), nil)
	im.UpdateKeywords(map[string]interface{}{
		"CRVAL1": 180.0, "CRVAL2": 45.0,
		"CRPIX1": 1.0, "CRPIX2": 1.0,
		"CDELT1": -0.001, "CDELT2": 0.001,
	})
	im.SetKeyword("OBJECT", "testfield")

	if err := im.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	got := New(NewGrid(0, 0), nil)
	if err := got.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if wd, ht := got.Size(); wd != 8 || ht != 5 {
		t.Fatalf("size = %dx%d, want 8x5", wd, ht)
	}
	if v, _ := got.DataXY(7, 4); v != 407 {
		t.Errorf("(7,4) = %v, want 407", v)
	}
	if v, err := got.FloatKeyword("CRVAL1"); err != nil || v != 180.0 {
		t.Errorf("CRVAL1 = %v, %v", v, err)
	}
	if got.Name() != "tile" {
		t.Errorf("name = %q, want tile", got.Name())
	}

	// the loaded header must yield a working WCS
	ra, dec, err := got.PixelToSky(0, 0)
	if err != nil {
		t.Fatalf("PixelToSky: %v", err)
	}
	if math.Abs(ra-180.0) > 1e-9 || math.Abs(dec-45.0) > 1e-9 {
		t.Errorf("sky at origin = (%v, %v), want (180, 45)", ra, dec)
	}
}

func TestLoadFileMissing(t *testing.T) {
	im := New(NewGrid(0, 0), nil)
	err := im.LoadFile(filepath.Join(t.TempDir(), "absent.fits"))
	if err == nil {
		t.Fatal("expected error")
	}
	var ie *ImageError
	if !errors.As(err, &ie) {
		t.Fatalf("error = %T, want *ImageError", err)
	}
}
