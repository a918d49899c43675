package models

import (
	"fmt"
	"math"
)

// Geometry is the type-specific payload of a Record. The set of
// implementations is closed: Rect, Circle, Line, Path and Text.
type Geometry interface {
	Kind() Kind

	// Translate returns a copy moved by (dx, dy).
	Translate(dx, dy float64) Geometry

	// Scale returns a copy resized by (sx, sy) with its top-left bound kept in place.
	Scale(sx, sy float64) Geometry

	validate() error
}

type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

type Circle struct {
	CenterLeft float64
	CenterTop  float64
	Radius     float64
}

type Line struct {
	X1, Y1 float64
	X2, Y2 float64
}

type Path struct {
	Points []Point
}

type Text struct {
	Left     float64
	Top      float64
	Content  string
	FontSize float64
}

func (Rect) Kind() Kind   { return KindRectangle }
func (Circle) Kind() Kind { return KindCircle }
func (Line) Kind() Kind   { return KindLine }
func (Path) Kind() Kind   { return KindPath }
func (Text) Kind() Kind   { return KindText }

func (g Rect) Translate(dx, dy float64) Geometry {
	g.Left += dx
	g.Top += dy
	return g
}

func (g Rect) Scale(sx, sy float64) Geometry {
	g.Width *= sx
	g.Height *= sy
	return g
}

func (g Rect) validate() error {
	if err := finite(g.Left, g.Top, g.Width, g.Height); err != nil {
		return err
	}
	if g.Width < 0 || g.Height < 0 {
		return fmt.Errorf("%w: rectangle size %v x %v is negative", ErrInvalidShape, g.Width, g.Height)
	}
	return nil
}

// BoundsLeft and BoundsTop give the top-left corner of the circle's bounding box.
func (g Circle) BoundsLeft() float64 { return g.CenterLeft - g.Radius }
func (g Circle) BoundsTop() float64  { return g.CenterTop - g.Radius }

func (g Circle) Translate(dx, dy float64) Geometry {
	g.CenterLeft += dx
	g.CenterTop += dy
	return g
}

// Scale keeps the circle round by using the geometric mean of both factors.
func (g Circle) Scale(sx, sy float64) Geometry {
	left, top := g.BoundsLeft(), g.BoundsTop()
	g.Radius *= math.Sqrt(sx * sy)
	g.CenterLeft = left + g.Radius
	g.CenterTop = top + g.Radius
	return g
}

func (g Circle) validate() error {
	if err := finite(g.CenterLeft, g.CenterTop, g.Radius); err != nil {
		return err
	}
	if g.Radius < 0 {
		return fmt.Errorf("%w: circle radius %v is negative", ErrInvalidShape, g.Radius)
	}
	return nil
}

func (g Line) Translate(dx, dy float64) Geometry {
	g.X1 += dx
	g.Y1 += dy
	g.X2 += dx
	g.Y2 += dy
	return g
}

func (g Line) Scale(sx, sy float64) Geometry {
	ox, oy := math.Min(g.X1, g.X2), math.Min(g.Y1, g.Y2)
	g.X1 = ox + (g.X1-ox)*sx
	g.X2 = ox + (g.X2-ox)*sx
	g.Y1 = oy + (g.Y1-oy)*sy
	g.Y2 = oy + (g.Y2-oy)*sy
	return g
}

func (g Line) validate() error {
	return finite(g.X1, g.Y1, g.X2, g.Y2)
}

func (g Path) Translate(dx, dy float64) Geometry {
	pts := make([]Point, len(g.Points))
	for i, p := range g.Points {
		pts[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return Path{Points: pts}
}

func (g Path) Scale(sx, sy float64) Geometry {
	if len(g.Points) == 0 {
		return g
	}
	ox, oy := g.Points[0].X, g.Points[0].Y
	for _, p := range g.Points[1:] {
		ox = math.Min(ox, p.X)
		oy = math.Min(oy, p.Y)
	}
	pts := make([]Point, len(g.Points))
	for i, p := range g.Points {
		pts[i] = Point{X: ox + (p.X-ox)*sx, Y: oy + (p.Y-oy)*sy}
	}
	return Path{Points: pts}
}

func (g Path) validate() error {
	if len(g.Points) < 2 {
		return fmt.Errorf("%w: path needs at least 2 points, got %d", ErrInvalidShape, len(g.Points))
	}
	for _, p := range g.Points {
		if err := finite(p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

func (g Text) Translate(dx, dy float64) Geometry {
	g.Left += dx
	g.Top += dy
	return g
}

func (g Text) Scale(_, sy float64) Geometry {
	g.FontSize *= sy
	return g
}

func (g Text) validate() error {
	if err := finite(g.Left, g.Top, g.FontSize); err != nil {
		return err
	}
	if !(g.FontSize > 0) {
		return fmt.Errorf("%w: font size %v must be positive", ErrInvalidShape, g.FontSize)
	}
	return nil
}

func finite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: coordinate %v is not finite", ErrInvalidShape, v)
		}
	}
	return nil
}
