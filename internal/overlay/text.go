package overlay

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/rect"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var regular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// textFace returns Go Regular at size pixels (72 dpi, so points equal pixels).
func textFace(size float64) (font.Face, error) {
	f, err := regular()
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    math.Max(size, 1),
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

type textMetrics struct {
	width, ascent, height int
}

func measureText(t models.Text) (textMetrics, font.Face, bool) {
	face, err := textFace(t.FontSize)
	if err != nil {
		return textMetrics{}, nil, false
	}
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	return textMetrics{
		width:  font.MeasureString(face, t.Content).Ceil(),
		ascent: ascent,
		height: ascent + m.Descent.Ceil(),
	}, face, true
}

// textBox is the surface box of a text instruction whose anchor (Left, Top)
// is the transformed top-left corner of the unrotated text.
func textBox(t models.Text, rotation int) rect.Rect {
	tm, face, ok := measureText(t)
	if !ok {
		return rect.Rect{LLx: t.Left, LLy: t.Top, URx: t.Left, URy: t.Top}
	}
	face.Close()
	w, h := float64(tm.width), float64(tm.height)
	x, y := t.Left, t.Top
	switch rotation {
	case 90:
		return rect.Rect{LLx: x - h, LLy: y, URx: x, URy: y + w}
	case 180:
		return rect.Rect{LLx: x - w, LLy: y - h, URx: x, URy: y}
	case 270:
		return rect.Rect{LLx: x, LLy: y - w, URx: x + h, URy: y}
	default:
		return rect.Rect{LLx: x, LLy: y, URx: x + w, URy: y + h}
	}
}

// drawText renders the glyphs into an alpha mask, turns the mask with the
// page and composites it at the text's surface box.
func drawText(dst draw.Image, src image.Image, t models.Text, rotation int) {
	tm, face, ok := measureText(t)
	if !ok || tm.width == 0 || tm.height == 0 {
		return
	}
	defer face.Close()

	mask := image.NewAlpha(image.Rect(0, 0, tm.width, tm.height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, tm.ascent),
	}
	d.DrawString(t.Content)

	turned := rotateMask(mask, rotation)
	box := textBox(t, rotation)
	at := image.Pt(int(math.Round(box.LLx)), int(math.Round(box.LLy)))
	r := turned.Bounds().Add(at)
	draw.DrawMask(dst, r, src, image.Point{}, turned, image.Point{}, draw.Over)
}

// rotateMask turns m clockwise in quarter turns.
func rotateMask(m *image.Alpha, degrees int) *image.Alpha {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	var out *image.Alpha
	switch degrees {
	case 90, 270:
		out = image.NewAlpha(image.Rect(0, 0, h, w))
	case 180:
		out = image.NewAlpha(image.Rect(0, 0, w, h))
	default:
		return m
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := m.AlphaAt(x, y)
			switch degrees {
			case 90:
				out.SetAlpha(h-1-y, x, a)
			case 180:
				out.SetAlpha(w-1-x, h-1-y, a)
			case 270:
				out.SetAlpha(y, w-1-x, a)
			}
		}
	}
	return out
}
