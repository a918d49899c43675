package tool

import (
	"errors"
	"fmt"
	"math"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidColor  = errors.New("invalid color")
	ErrInvalidStroke = errors.New("invalid stroke width")
)

// Palette is the set of colours offered by the toolbar.
var Palette = []string{
	"#3b82f6", // blue
	"#ef4444", // red
	"#22c55e", // green
	"#f59e0b", // yellow
	"#8b5cf6", // purple
	"#06b6d4", // cyan
	"#f97316", // orange
	"#84cc16", // lime
	"#ec4899", // pink
	"#000000", // black
}

// Listener receives the previous and current tool state after a change.
type Listener func(prev, next models.ToolState)

// Controller is the only writer of the session's ToolState.
type Controller struct {
	state     models.ToolState
	listeners map[int]Listener
	nextID    int
}

func NewController(initial models.ToolState) (*Controller, error) {
	if !initial.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, initial.Type)
	}
	if err := initial.Style().Validate(); err != nil {
		return nil, err
	}
	return &Controller{state: initial, listeners: make(map[int]Listener)}, nil
}

func (c *Controller) State() models.ToolState {
	return c.state
}

// Selectable reports whether rendered shapes accept selection and events.
func (c *Controller) Selectable() bool {
	return c.state.Type == models.ToolSelect
}

func (c *Controller) SetType(t models.ToolType) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	next := c.state
	next.Type = t
	return c.apply(next), nil
}

func (c *Controller) SetColor(color string) (bool, error) {
	if !models.ValidColor(color) {
		return false, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	next := c.state
	next.Color = color
	return c.apply(next), nil
}

func (c *Controller) SetStrokeWidth(width float64) (bool, error) {
	if !(width > 0) || math.IsInf(width, 0) {
		return false, fmt.Errorf("%w: %v", ErrInvalidStroke, width)
	}
	next := c.state
	next.StrokeWidth = width
	return c.apply(next), nil
}

// Subscribe registers fn for tool changes and returns its unsubscribe func.
func (c *Controller) Subscribe(fn Listener) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller) apply(next models.ToolState) bool {
	if next == c.state {
		return false
	}
	prev := c.state
	c.state = next
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fn(prev, next)
		}
	}
	return true
}
