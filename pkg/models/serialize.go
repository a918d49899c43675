package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Names used by fabric.js canvases, accepted on read.
var kindAliases = map[string]Kind{
	"rectangle":     KindRectangle,
	"rect":          KindRectangle,
	"circle":        KindCircle,
	"line":          KindLine,
	"freehand-path": KindPath,
	"path":          KindPath,
	"text":          KindText,
	"i-text":        KindText,
	"textbox":       KindText,
}

func ParseKind(name string) (Kind, bool) {
	k, ok := kindAliases[name]
	return k, ok
}

// Serialize converts a record into the plain {id, type, page, data} value
// used by the export document.
func Serialize(r Record) map[string]any {
	data := map[string]any{
		"stroke":      r.Style.Color,
		"strokeWidth": r.Style.StrokeWidth,
	}

	switch g := r.Geometry.(type) {
	case Rect:
		data["left"] = g.Left
		data["top"] = g.Top
		data["width"] = g.Width
		data["height"] = g.Height
	case Circle:
		data["centerLeft"] = g.CenterLeft
		data["centerTop"] = g.CenterTop
		data["radius"] = g.Radius
		data["left"] = g.BoundsLeft()
		data["top"] = g.BoundsTop()
	case Line:
		data["x1"] = g.X1
		data["y1"] = g.Y1
		data["x2"] = g.X2
		data["y2"] = g.Y2
	case Path:
		points := make([]any, len(g.Points))
		for i, p := range g.Points {
			points[i] = map[string]any{"x": p.X, "y": p.Y}
		}
		data["points"] = points
	case Text:
		data["left"] = g.Left
		data["top"] = g.Top
		data["text"] = g.Content
		data["fontSize"] = g.FontSize
	default:
		// unreachable for the closed geometry set
	}

	return map[string]any{
		"id":   r.ID,
		"type": string(r.Kind()),
		"page": r.Page,
		"data": data,
	}
}

// Deserialize is the inverse of Serialize. Extra keys are ignored; an
// unknown type or missing geometry yields an error wrapping ErrInvalidShape.
func Deserialize(value map[string]any) (Record, error) {
	var r Record

	id, ok := value["id"].(string)
	if !ok || id == "" {
		return r, fmt.Errorf("%w: missing id", ErrInvalidShape)
	}
	r.ID = id

	typeName, _ := value["type"].(string)
	kind, ok := ParseKind(typeName)
	if !ok {
		return r, fmt.Errorf("%w: unrecognized type %q for %s", ErrInvalidShape, typeName, id)
	}

	page, ok := integer(value["page"])
	if !ok || page < 1 {
		return r, fmt.Errorf("%w: bad page %v for %s", ErrInvalidShape, value["page"], id)
	}
	r.Page = page

	data, ok := value["data"].(map[string]any)
	if !ok {
		return r, fmt.Errorf("%w: missing data for %s", ErrInvalidShape, id)
	}

	geometry, err := decodeGeometry(kind, data)
	if err != nil {
		return r, fmt.Errorf("%s: %w", id, err)
	}
	r.Geometry = geometry
	r.Style = decodeStyle(data)

	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

func decodeGeometry(kind Kind, data map[string]any) (Geometry, error) {
	f := fields{data: data}

	switch kind {
	case KindRectangle:
		g := Rect{
			Left:   f.num("left"),
			Top:    f.num("top"),
			Width:  f.num("width"),
			Height: f.num("height"),
		}
		return g, f.err
	case KindCircle:
		g := Circle{Radius: f.num("radius")}
		if _, ok := data["centerLeft"]; ok {
			g.CenterLeft = f.num("centerLeft")
			g.CenterTop = f.num("centerTop")
		} else {
			g.CenterLeft = f.num("left") + g.Radius
			g.CenterTop = f.num("top") + g.Radius
		}
		return g, f.err
	case KindLine:
		g := Line{
			X1: f.num("x1"),
			Y1: f.num("y1"),
			X2: f.num("x2"),
			Y2: f.num("y2"),
		}
		return g, f.err
	case KindPath:
		if raw, ok := data["points"]; ok {
			return decodePoints(raw)
		}
		if raw, ok := data["path"]; ok {
			return decodePathCommands(raw)
		}
		return nil, fmt.Errorf("%w: path has no points", ErrInvalidShape)
	case KindText:
		content, ok := data["text"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: text content missing", ErrInvalidShape)
		}
		g := Text{
			Left:     f.num("left"),
			Top:      f.num("top"),
			Content:  content,
			FontSize: f.num("fontSize"),
		}
		return g, f.err
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidShape, kind)
	}
}

func decodeStyle(data map[string]any) Style {
	style := DefaultStyle()
	if c, ok := data["stroke"].(string); ok && ValidColor(c) {
		style.Color = c
	} else if c, ok := data["fill"].(string); ok && ValidColor(c) {
		style.Color = c
	}
	if w, ok := number(data["strokeWidth"]); ok && w > 0 && !math.IsInf(w, 0) {
		style.StrokeWidth = w
	}
	return style
}

func decodePoints(raw any) (Geometry, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: points is not a list", ErrInvalidShape)
	}
	pts := make([]Point, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: point %d is not an object", ErrInvalidShape, i)
		}
		f := fields{data: m}
		p := Point{X: f.num("x"), Y: f.num("y")}
		if f.err != nil {
			return nil, fmt.Errorf("point %d: %w", i, f.err)
		}
		pts = append(pts, p)
	}
	return Path{Points: pts}, nil
}

// decodePathCommands reads SVG-like command lists such as
// [["M",1,2],["Q",3,4,5,6]] and keeps the end point of every command.
func decodePathCommands(raw any) (Geometry, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: path is not a command list", ErrInvalidShape)
	}
	var pts []Point
	for i, item := range list {
		cmd, ok := item.([]any)
		if !ok || len(cmd) == 0 {
			return nil, fmt.Errorf("%w: path command %d is malformed", ErrInvalidShape, i)
		}
		op, _ := cmd[0].(string)
		switch op {
		case "M", "L", "Q", "C":
		case "Z", "z":
			continue
		default:
			return nil, fmt.Errorf("%w: path command %q not supported", ErrInvalidShape, op)
		}
		if len(cmd) < 3 {
			return nil, fmt.Errorf("%w: path command %d has no coordinates", ErrInvalidShape, i)
		}
		x, okX := number(cmd[len(cmd)-2])
		y, okY := number(cmd[len(cmd)-1])
		if !okX || !okY {
			return nil, fmt.Errorf("%w: path command %d has non-numeric coordinates", ErrInvalidShape, i)
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return Path{Points: pts}, nil
}

type fields struct {
	data map[string]any
	err  error
}

func (f *fields) num(key string) float64 {
	if f.err != nil {
		return 0
	}
	raw, present := f.data[key]
	if !present {
		f.err = fmt.Errorf("%w: missing field %q", ErrInvalidShape, key)
		return 0
	}
	v, ok := number(raw)
	if !ok {
		f.err = fmt.Errorf("%w: field %q is not numeric", ErrInvalidShape, key)
		return 0
	}
	return v
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func integer(v any) (int, bool) {
	if i, ok := v.(int); ok {
		return i, true
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
