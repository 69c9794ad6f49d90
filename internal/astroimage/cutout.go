package astroimage

import "fmt"

// CrossCut returns the horizontal and vertical pixel cuts through (x, y),
// each spanning radius pixels to both sides, clipped independently per
// axis to the image bounds. The returned (x0, y0) is the starting pixel
// of the row and column slices respectively.
func (im *Image) CrossCut(x, y, radius int) (x0, y0 int, row, col []float64, err error) {
	wd, ht := im.Size()
	if x < 0 || y < 0 || x >= wd || y >= ht {
		return 0, 0, nil, nil, fmt.Errorf("astroimage: cross cut center (%d,%d) outside %dx%d", x, y, wd, ht)
	}

	n := radius
	x0, x1 := max(0, x-n), min(wd-1, x+n)
	y0, y1 := max(0, y-n), min(ht-1, y+n)

	row = im.data.Row(y, x0, x1)
	col = im.data.Col(x, y0, y1)
	return x0, y0, row, col, nil
}

// Cutout returns a copy of the rectangular sub-grid with corners (x1, y1)
// inclusive and (x2, y2) exclusive, clamped to the image bounds.
func (im *Image) Cutout(x1, y1, x2, y2 int) (Grid, error) {
	wd, ht := im.Size()
	x1, y1 = max(0, x1), max(0, y1)
	x2, y2 = min(wd, x2), min(ht, y2)
	if x1 >= x2 || y1 >= y2 {
		return Grid{}, fmt.Errorf("astroimage: empty cutout (%d,%d)-(%d,%d) of %dx%d", x1, y1, x2, y2, wd, ht)
	}
	return im.data.Cut(x1, y1, x2, y2), nil
}
