package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindPath      Kind = "freehand-path"
	KindText      Kind = "text"
)

const (
	DefaultColor       = "#3b82f6"
	DefaultStrokeWidth = 2.0

	TextPlaceholder = "Click to edit text"
	TextFontSize    = 16.0
)

var (
	ErrInvalidShape = errors.New("invalid shape")
	ErrInvalidStyle = errors.New("invalid style")
	ErrInvalidScale = errors.New("invalid scale factor")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func ValidColor(color string) bool {
	return hexColor.MatchString(color)
}

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) Div(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

type PageSize struct {
	Width  float64
	Height float64
}

func (s PageSize) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

type Style struct {
	Color       string
	StrokeWidth float64
}

func DefaultStyle() Style {
	return Style{Color: DefaultColor, StrokeWidth: DefaultStrokeWidth}
}

func (s Style) Validate() error {
	if !ValidColor(s.Color) {
		return fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidStyle, s.Color)
	}
	if !(s.StrokeWidth > 0) || math.IsInf(s.StrokeWidth, 0) {
		return fmt.Errorf("%w: stroke width %v must be positive", ErrInvalidStyle, s.StrokeWidth)
	}
	return nil
}

// Record is a committed annotation. Geometry is kept in page coordinates at
// scale 1.0.
type Record struct {
	ID       string
	Page     int
	Geometry Geometry
	Style    Style
}

func (r Record) Kind() Kind {
	if r.Geometry == nil {
		return ""
	}
	return r.Geometry.Kind()
}

func (r Record) Translate(dx, dy float64) Record {
	r.Geometry = r.Geometry.Translate(dx, dy)
	return r
}

func (r Record) Scale(sx, sy float64) (Record, error) {
	if !(sx > 0) || !(sy > 0) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
		return r, fmt.Errorf("%w: %v x %v", ErrInvalidScale, sx, sy)
	}
	r.Geometry = r.Geometry.Scale(sx, sy)
	return r, nil
}

func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidShape)
	}
	if r.Page < 1 {
		return fmt.Errorf("%w: page %d must be positive", ErrInvalidShape, r.Page)
	}
	if r.Geometry == nil {
		return fmt.Errorf("%w: record %s has no geometry", ErrInvalidShape, r.ID)
	}
	if err := r.Geometry.validate(); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	return r.Style.Validate()
}
