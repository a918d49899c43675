package overlay

import (
	"image/color"
	"strconv"

	"seehuhn.de/go/geom/matrix"

	"github.com/kpauljoseph/pdfannotate/internal/viewport"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

// Instruction describes one shape to draw on the surface. Shape is expressed
// in surface pixels; the stored record is never modified. Rotation is the
// page rotation the shape was turned by, which text is painted along.
type Instruction struct {
	ID          string
	Kind        models.Kind
	Shape       models.Geometry
	Color       color.RGBA
	StrokeWidth float64
	Rotation    int
	Selectable  bool
	Evented     bool
	Pending     bool
}

// Derive computes the render instructions for the current page. It is a pure
// function of its inputs; records on other pages are dropped.
func Derive(tool models.ToolState, vp models.ViewportState, size models.PageSize, records []models.Record, pending *models.Record) []Instruction {
	m := viewport.Transform(vp, size)
	selectable := tool.Type == models.ToolSelect

	frame := make([]Instruction, 0, len(records)+1)
	for _, r := range records {
		if r.Page != vp.CurrentPage || r.Geometry == nil {
			continue
		}
		frame = append(frame, Instruction{
			ID:          r.ID,
			Kind:        r.Kind(),
			Shape:       toSurface(r.Geometry, m, vp.Scale),
			Color:       parseColor(r.Style.Color),
			StrokeWidth: r.Style.StrokeWidth * vp.Scale,
			Rotation:    vp.Rotation,
			Selectable:  selectable,
			Evented:     selectable,
		})
	}

	if pending != nil && pending.Page == vp.CurrentPage && pending.Geometry != nil {
		frame = append(frame, Instruction{
			ID:          pending.ID,
			Kind:        pending.Kind(),
			Shape:       toSurface(pending.Geometry, m, vp.Scale),
			Color:       parseColor(pending.Style.Color),
			StrokeWidth: pending.Style.StrokeWidth * vp.Scale,
			Rotation:    vp.Rotation,
			Pending:     true,
		})
	}
	return frame
}

func toSurface(g models.Geometry, m matrix.Matrix, scale float64) models.Geometry {
	switch g := g.(type) {
	case models.Rect:
		a := viewport.Apply(m, models.Point{X: g.Left, Y: g.Top})
		b := viewport.Apply(m, models.Point{X: g.Left + g.Width, Y: g.Top + g.Height})
		return models.Rect{
			Left:   min(a.X, b.X),
			Top:    min(a.Y, b.Y),
			Width:  abs(b.X - a.X),
			Height: abs(b.Y - a.Y),
		}
	case models.Circle:
		c := viewport.Apply(m, models.Point{X: g.CenterLeft, Y: g.CenterTop})
		return models.Circle{CenterLeft: c.X, CenterTop: c.Y, Radius: g.Radius * scale}
	case models.Line:
		a := viewport.Apply(m, models.Point{X: g.X1, Y: g.Y1})
		b := viewport.Apply(m, models.Point{X: g.X2, Y: g.Y2})
		return models.Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
	case models.Path:
		pts := make([]models.Point, len(g.Points))
		for i, p := range g.Points {
			pts[i] = viewport.Apply(m, p)
		}
		return models.Path{Points: pts}
	case models.Text:
		a := viewport.Apply(m, models.Point{X: g.Left, Y: g.Top})
		return models.Text{Left: a.X, Top: a.Y, Content: g.Content, FontSize: g.FontSize * scale}
	default:
		return g
	}
}

func parseColor(hex string) color.RGBA {
	if !models.ValidColor(hex) {
		hex = models.DefaultColor
	}
	v, _ := strconv.ParseUint(hex[1:], 16, 32)
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
