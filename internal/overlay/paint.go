package overlay

import (
	"image"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

const circleSegments = 64

// Paint rasterises a frame onto dst in order. Strokes are drawn one segment
// at a time so overlapping segments never cancel out.
func Paint(dst *image.RGBA, frame []Instruction) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	for _, in := range frame {
		src := image.NewUniform(in.Color)
		if t, ok := in.Shape.(models.Text); ok {
			drawText(dst, src, t, in.Rotation)
			continue
		}
		for _, seg := range outline(in.Shape) {
			z.Reset(b.Dx(), b.Dy())
			strokeSegment(z, seg[0], seg[1], math.Max(in.StrokeWidth, 1)/2)
			z.Draw(dst, b, src, image.Point{})
		}
	}
}

// outline turns a shape into the line segments that make up its stroke.
func outline(g models.Geometry) [][2]vec.Vec2 {
	var pts []vec.Vec2
	closed := false

	switch g := g.(type) {
	case models.Rect:
		pts = []vec.Vec2{
			{X: g.Left, Y: g.Top},
			{X: g.Left + g.Width, Y: g.Top},
			{X: g.Left + g.Width, Y: g.Top + g.Height},
			{X: g.Left, Y: g.Top + g.Height},
		}
		closed = true
	case models.Circle:
		pts = make([]vec.Vec2, circleSegments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / circleSegments
			pts[i] = vec.Vec2{X: g.CenterLeft + g.Radius*math.Cos(a), Y: g.CenterTop + g.Radius*math.Sin(a)}
		}
		closed = true
	case models.Line:
		pts = []vec.Vec2{{X: g.X1, Y: g.Y1}, {X: g.X2, Y: g.Y2}}
	case models.Path:
		pts = make([]vec.Vec2, len(g.Points))
		for i, p := range g.Points {
			pts[i] = vec.Vec2{X: p.X, Y: p.Y}
		}
	default:
		return nil
	}

	if len(pts) == 1 {
		return [][2]vec.Vec2{{pts[0], pts[0]}}
	}
	var segs [][2]vec.Vec2
	for i := 0; i+1 < len(pts); i++ {
		segs = append(segs, [2]vec.Vec2{pts[i], pts[i+1]})
	}
	if closed && len(pts) > 2 {
		segs = append(segs, [2]vec.Vec2{pts[len(pts)-1], pts[0]})
	}
	return segs
}

// strokeSegment adds a quad of half-width hw around a-b. Degenerate segments
// become a square dot.
func strokeSegment(z *vector.Rasterizer, a, b vec.Vec2, hw float64) {
	d := b.Sub(a)
	length := d.Length()
	if length == 0 {
		d = vec.Vec2{X: 1, Y: 0}
		a = a.Sub(vec.Vec2{X: hw, Y: 0})
		b = b.Add(vec.Vec2{X: hw, Y: 0})
	} else {
		d = d.Mul(1 / length)
	}
	n := vec.Vec2{X: -d.Y * hw, Y: d.X * hw}

	corners := []vec.Vec2{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
	z.MoveTo(float32(corners[0].X), float32(corners[0].Y))
	for _, c := range corners[1:] {
		z.LineTo(float32(c.X), float32(c.Y))
	}
	z.ClosePath()
}
