package astroimage

import (
	"github.com/zhouyaoji/astromosaic/internal/quality"
)

// FieldQuality measures star-field quality inside the rectangle with
// corners (x1, y1) inclusive and (x2, y2) exclusive. The returned
// coordinates are translated back into full-image pixel space.
func (im *Image) FieldQuality(x1, y1, x2, y2 int, p quality.Params) (*quality.Report, error) {
	// Cutout clamps; measure against the clamped origin
	ox, oy := max(0, x1), max(0, y1)

	sub, err := im.Cutout(x1, y1, x2, y2)
	if err != nil {
		return nil, err
	}

	report, err := quality.PickField(sub.Raw(), sub.Dx(), sub.Dy(), p)
	if err != nil {
		return nil, err
	}

	report.ObjX += float64(ox)
	report.ObjY += float64(oy)
	return report, nil
}
