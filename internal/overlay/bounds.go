package overlay

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

// hitSlop widens every hit box so thin strokes stay clickable.
const hitSlop = 2.0

// Bounds returns the axis-aligned box of a shape in the shape's own
// coordinates (y grows downward: LLy is the top edge).
func Bounds(g models.Geometry) rect.Rect {
	switch g := g.(type) {
	case models.Rect:
		return rect.Rect{LLx: g.Left, LLy: g.Top, URx: g.Left + g.Width, URy: g.Top + g.Height}
	case models.Circle:
		return rect.Rect{
			LLx: g.CenterLeft - g.Radius, LLy: g.CenterTop - g.Radius,
			URx: g.CenterLeft + g.Radius, URy: g.CenterTop + g.Radius,
		}
	case models.Line:
		return rect.Rect{
			LLx: math.Min(g.X1, g.X2), LLy: math.Min(g.Y1, g.Y2),
			URx: math.Max(g.X1, g.X2), URy: math.Max(g.Y1, g.Y2),
		}
	case models.Path:
		if len(g.Points) == 0 {
			return rect.Rect{}
		}
		b := rect.Rect{LLx: g.Points[0].X, LLy: g.Points[0].Y, URx: g.Points[0].X, URy: g.Points[0].Y}
		for _, p := range g.Points[1:] {
			b.Add(p.X, p.Y)
		}
		return b
	case models.Text:
		return textBox(g, 0)
	default:
		return rect.Rect{}
	}
}

// instructionBounds is Bounds in surface space. Text boxes turn with the page.
func instructionBounds(in Instruction) rect.Rect {
	if t, ok := in.Shape.(models.Text); ok {
		return textBox(t, in.Rotation)
	}
	return Bounds(in.Shape)
}

func contains(b rect.Rect, p vec.Vec2, pad float64) bool {
	b.LLx, b.LLy = b.LLx-pad, b.LLy-pad
	b.URx, b.URy = b.URx+pad, b.URy+pad
	return b.Covers(rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y})
}

// hit returns the top-most evented instruction under p.
func hit(frame []Instruction, p vec.Vec2) (Instruction, bool) {
	for i := len(frame) - 1; i >= 0; i-- {
		in := frame[i]
		if !in.Evented || in.Pending {
			continue
		}
		if contains(instructionBounds(in), p, in.StrokeWidth/2+hitSlop) {
			return in, true
		}
	}
	return Instruction{}, false
}
