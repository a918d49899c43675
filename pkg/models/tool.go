package models

type ToolType string

const (
	ToolSelect    ToolType = "select"
	ToolDraw      ToolType = "draw"
	ToolText      ToolType = "text"
	ToolRectangle ToolType = "rectangle"
	ToolCircle    ToolType = "circle"
	ToolLine      ToolType = "line"
)

var ToolTypes = []ToolType{ToolSelect, ToolDraw, ToolText, ToolRectangle, ToolCircle, ToolLine}

func (t ToolType) Valid() bool {
	for _, known := range ToolTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Draws reports whether a pointer-down with this tool starts a shape.
func (t ToolType) Draws() bool {
	switch t {
	case ToolDraw, ToolRectangle, ToolCircle, ToolLine:
		return true
	default:
		return false
	}
}

type ToolState struct {
	Type        ToolType
	Color       string
	StrokeWidth float64
}

func DefaultToolState() ToolState {
	return ToolState{
		Type:        ToolSelect,
		Color:       DefaultColor,
		StrokeWidth: DefaultStrokeWidth,
	}
}

func (t ToolState) Style() Style {
	return Style{Color: t.Color, StrokeWidth: t.StrokeWidth}
}

type ViewportState struct {
	CurrentPage int
	Scale       float64
	Rotation    int
}

func DefaultViewportState() ViewportState {
	return ViewportState{CurrentPage: 1, Scale: 1.0, Rotation: 0}
}
