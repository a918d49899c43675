package viewport

import (
	"math"

	"seehuhn.de/go/geom/matrix"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

const (
	MinScale  = 0.25
	MaxScale  = 3.0
	ScaleStep = 0.25
)

// Controller is the only writer of the session's ViewportState.
type Controller struct {
	state    models.ViewportState
	numPages int
	pageSize models.PageSize
}

func NewController() *Controller {
	return &Controller{state: models.DefaultViewportState()}
}

func (c *Controller) State() models.ViewportState {
	return c.state
}

func (c *Controller) PageCount() int {
	return c.numPages
}

// SetPageCount is called when a document loads. It moves to page 1 and
// forgets the previous page size; scale and rotation are kept.
func (c *Controller) SetPageCount(n int) {
	if n < 0 {
		n = 0
	}
	c.numPages = n
	c.state.CurrentPage = 1
	c.pageSize = models.PageSize{}
}

func (c *Controller) NextPage() bool {
	return c.setPage(min(c.numPages, c.state.CurrentPage+1))
}

func (c *Controller) PrevPage() bool {
	return c.setPage(max(1, c.state.CurrentPage-1))
}

// GoTo jumps to page. Out-of-range requests are ignored.
func (c *Controller) GoTo(page int) bool {
	if page < 1 || page > c.numPages {
		return false
	}
	return c.setPage(page)
}

func (c *Controller) setPage(page int) bool {
	if c.numPages == 0 || page < 1 || page == c.state.CurrentPage {
		return false
	}
	c.state.CurrentPage = page
	c.pageSize = models.PageSize{}
	return true
}

func (c *Controller) ZoomIn() bool {
	return c.SetScale(c.state.Scale + ScaleStep)
}

func (c *Controller) ZoomOut() bool {
	return c.SetScale(c.state.Scale - ScaleStep)
}

// SetScale snaps scale to the zoom grid and clamps it to [MinScale, MaxScale].
func (c *Controller) SetScale(scale float64) bool {
	if math.IsNaN(scale) {
		return false
	}
	snapped := math.Round(scale/ScaleStep) * ScaleStep
	snapped = math.Max(MinScale, math.Min(MaxScale, snapped))
	if snapped == c.state.Scale {
		return false
	}
	c.state.Scale = snapped
	return true
}

// Rotate turns the page by 90 degrees clockwise, wrapping 270 to 0.
func (c *Controller) Rotate() bool {
	c.state.Rotation = (c.state.Rotation + 90) % 360
	return true
}

// SetPageSize records the unscaled size of the current page as reported by
// the renderer.
func (c *Controller) SetPageSize(size models.PageSize) bool {
	if size == c.pageSize {
		return false
	}
	c.pageSize = size
	return true
}

func (c *Controller) PageSize() models.PageSize {
	return c.pageSize
}

// SurfaceSize is the overlay size in pixels. It is zero until the current
// page's size is known.
func (c *Controller) SurfaceSize() (int, int) {
	return SurfaceSize(c.state, c.pageSize)
}

func (c *Controller) Transform() matrix.Matrix {
	return Transform(c.state, c.pageSize)
}

// ToPage maps a surface pixel back into page coordinates.
func (c *Controller) ToPage(p models.Point) models.Point {
	return Apply(c.Transform().Inv(), p)
}

func SurfaceSize(vp models.ViewportState, size models.PageSize) (int, int) {
	if size.IsZero() {
		return 0, 0
	}
	w := int(math.Round(size.Width * vp.Scale))
	h := int(math.Round(size.Height * vp.Scale))
	if vp.Rotation == 90 || vp.Rotation == 270 {
		return h, w
	}
	return w, h
}

// quarterTurns holds the exact clockwise rotations of a y-down plane.
var quarterTurns = map[int]matrix.Matrix{
	0:   matrix.Identity,
	90:  {0, 1, -1, 0, 0, 0},
	180: {-1, 0, 0, -1, 0, 0},
	270: {0, -1, 1, 0, 0, 0},
}

// Transform maps page coordinates (y down) onto the surface for the given
// scale and clockwise rotation. The turned page is shifted back so its
// top-left corner sits at the surface origin.
func Transform(vp models.ViewportState, size models.PageSize) matrix.Matrix {
	s := vp.Scale
	w, h := size.Width*s, size.Height*s

	turn, ok := quarterTurns[vp.Rotation]
	if !ok {
		turn = matrix.Identity
	}
	m := matrix.Scale(s, s).Mul(turn)
	switch vp.Rotation {
	case 90:
		return m.Translate(h, 0)
	case 180:
		return m.Translate(w, h)
	case 270:
		return m.Translate(0, w)
	default:
		return m
	}
}

func Apply(m matrix.Matrix, p models.Point) models.Point {
	x, y := m.Apply(p.X, p.Y)
	return models.Point{X: x, Y: y}
}
