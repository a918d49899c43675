package drawing

import (
	"errors"
	"fmt"
	"math"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

type State int

const (
	Idle State = iota
	Active
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrSelectTool    = errors.New("select tool does not draw")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrGestureActive = errors.New("gesture already active")
	ErrNotActive     = errors.New("no active gesture")
	ErrBadScale      = errors.New("scale must be positive")
	ErrBadPage       = errors.New("page must be positive")
)

// Gesture tracks one pointer-down to pointer-up interaction. Points passed in
// are surface pixels; everything stored is in page coordinates.
type Gesture struct {
	state   State
	tool    models.ToolState
	page    int
	scale   float64
	anchor  models.Point
	pending models.Record

	placeholder string
	fontSize    float64
}

func New() *Gesture {
	return &Gesture{
		state:       Idle,
		placeholder: models.TextPlaceholder,
		fontSize:    models.TextFontSize,
	}
}

// SetTextDefaults changes the content and size of newly placed text.
// Empty or non-positive values keep the current setting.
func (g *Gesture) SetTextDefaults(placeholder string, fontSize float64) {
	if placeholder != "" {
		g.placeholder = placeholder
	}
	if fontSize > 0 {
		g.fontSize = fontSize
	}
}

func (g *Gesture) State() State {
	return g.state
}

func (g *Gesture) Anchor() models.Point {
	return g.anchor
}

// Begin starts a gesture. Text placement commits immediately and returns the
// new record; shape tools return nil and move the gesture to Active.
func (g *Gesture) Begin(tool models.ToolState, page int, scale float64, at models.Point) (*models.Record, error) {
	if g.state == Active {
		return nil, ErrGestureActive
	}
	if tool.Type == models.ToolSelect {
		return nil, ErrSelectTool
	}
	if !tool.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool.Type)
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: %v", ErrBadScale, scale)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadPage, page)
	}

	g.tool = tool
	g.page = page
	g.scale = scale
	g.anchor = at.Div(scale)
	g.pending = models.Record{Page: page, Style: tool.Style()}

	switch tool.Type {
	case models.ToolText:
		g.pending.Geometry = models.Text{
			Left:     g.anchor.X,
			Top:      g.anchor.Y,
			Content:  g.placeholder,
			FontSize: g.fontSize,
		}
		g.state = Committed
		r := g.pending
		return &r, nil
	case models.ToolRectangle:
		g.pending.Geometry = models.Rect{Left: g.anchor.X, Top: g.anchor.Y}
	case models.ToolCircle:
		g.pending.Geometry = models.Circle{CenterLeft: g.anchor.X, CenterTop: g.anchor.Y}
	case models.ToolLine:
		g.pending.Geometry = models.Line{X1: g.anchor.X, Y1: g.anchor.Y, X2: g.anchor.X, Y2: g.anchor.Y}
	case models.ToolDraw:
		g.pending.Geometry = models.Path{Points: []models.Point{g.anchor}}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool.Type)
	}

	g.state = Active
	return nil, nil
}

// Move updates the pending shape. It is a no-op unless the gesture is Active.
func (g *Gesture) Move(at models.Point) {
	if g.state != Active {
		return
	}
	p := at.Div(g.scale)
	dx := p.X - g.anchor.X
	dy := p.Y - g.anchor.Y

	switch geom := g.pending.Geometry.(type) {
	case models.Rect:
		geom.Width = math.Abs(dx)
		geom.Height = math.Abs(dy)
		geom.Left = math.Min(g.anchor.X, p.X)
		geom.Top = math.Min(g.anchor.Y, p.Y)
		g.pending.Geometry = geom
	case models.Circle:
		geom.Radius = math.Hypot(dx, dy) / 2
		geom.CenterLeft = g.anchor.X
		geom.CenterTop = g.anchor.Y
		g.pending.Geometry = geom
	case models.Line:
		geom.X2 = p.X
		geom.Y2 = p.Y
		g.pending.Geometry = geom
	case models.Path:
		pts := make([]models.Point, len(geom.Points), len(geom.Points)+1)
		copy(pts, geom.Points)
		g.pending.Geometry = models.Path{Points: append(pts, p)}
	default:
	}
}

// End commits the pending shape. The returned record has no ID; the store
// assigns one on insert.
func (g *Gesture) End() (*models.Record, error) {
	if g.state != Active {
		return nil, ErrNotActive
	}
	if path, ok := g.pending.Geometry.(models.Path); ok && len(path.Points) == 1 {
		g.pending.Geometry = models.Path{Points: []models.Point{path.Points[0], path.Points[0]}}
	}
	g.state = Committed
	r := g.pending
	return &r, nil
}

// Cancel discards an active gesture. It returns false when nothing was pending.
func (g *Gesture) Cancel() bool {
	if g.state != Active {
		return false
	}
	g.state = Cancelled
	g.pending = models.Record{}
	return true
}

// Pending returns the in-progress shape while the gesture is Active.
func (g *Gesture) Pending() *models.Record {
	if g.state != Active {
		return nil
	}
	r := g.pending
	return &r
}

// Reset returns a finished gesture to Idle. Active gestures are left alone.
func (g *Gesture) Reset() {
	if g.state == Active {
		return
	}
	g.state = Idle
	g.pending = models.Record{}
}
