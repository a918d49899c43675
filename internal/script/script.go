package script

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var ErrInvalidStep = errors.New("invalid script step")

const (
	ActionTool    = "tool"
	ActionColor   = "color"
	ActionWidth   = "width"
	ActionDrag    = "drag"
	ActionClick   = "click"
	ActionType    = "type"
	ActionNext    = "next"
	ActionPrev    = "prev"
	ActionGoTo    = "goto"
	ActionZoomIn  = "zoom-in"
	ActionZoomOut = "zoom-out"
	ActionRotate  = "rotate"
	ActionResize  = "resize"
)

// Target is what a script drives; *session.Session satisfies it.
type Target interface {
	SetTool(t models.ToolType) error
	SetColor(color string) error
	SetStrokeWidth(width float64) error
	PointerDown(at models.Point) error
	PointerMove(at models.Point) error
	PointerUp(at models.Point) error
	EditText(content string) error
	FinishText() error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	GoTo(ctx context.Context, page int) error
	ZoomIn(ctx context.Context) error
	ZoomOut(ctx context.Context) error
	Rotate(ctx context.Context) error
	ResizeSelected(sx, sy float64) error
}

// Step is one user action. Points are surface pixels.
type Step struct {
	Action string          `yaml:"action"`
	Tool   models.ToolType `yaml:"tool,omitempty"`
	Color  string          `yaml:"color,omitempty"`
	Width  float64         `yaml:"width,omitempty"`
	From   *models.Point   `yaml:"from,omitempty"`
	To     *models.Point   `yaml:"to,omitempty"`
	Via    []models.Point  `yaml:"via,omitempty"`
	At     *models.Point   `yaml:"at,omitempty"`
	Text   string          `yaml:"text,omitempty"`
	Page   int             `yaml:"page,omitempty"`
	ScaleX float64         `yaml:"scale_x,omitempty"`
	ScaleY float64         `yaml:"scale_y,omitempty"`
}

type Script struct {
	Steps []Step `yaml:"steps"`
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionTool:
		if !s.Tool.Valid() {
			return fmt.Errorf("%w: unknown tool %q", ErrInvalidStep, s.Tool)
		}
	case ActionColor:
		if s.Color == "" {
			return fmt.Errorf("%w: color missing", ErrInvalidStep)
		}
	case ActionWidth:
		if s.Width == 0 {
			return fmt.Errorf("%w: width missing", ErrInvalidStep)
		}
	case ActionDrag:
		if s.From == nil || s.To == nil {
			return fmt.Errorf("%w: drag needs from and to", ErrInvalidStep)
		}
	case ActionClick:
		if s.At == nil {
			return fmt.Errorf("%w: click needs at", ErrInvalidStep)
		}
	case ActionGoTo:
		if s.Page < 1 {
			return fmt.Errorf("%w: goto needs a page", ErrInvalidStep)
		}
	case ActionResize:
		if s.ScaleX <= 0 || s.ScaleY <= 0 {
			return fmt.Errorf("%w: resize needs positive scale_x and scale_y", ErrInvalidStep)
		}
	case ActionType, ActionNext, ActionPrev, ActionZoomIn, ActionZoomOut, ActionRotate:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, s.Action)
	}
	return nil
}

// Run replays every step in order and stops at the first failure.
func (s *Script) Run(ctx context.Context, t Target, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Trace("Step %d: %s", i+1, step.Action)
		if err := step.apply(ctx, t); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	log.Debug("Replayed %d steps", len(s.Steps))
	return nil
}

func (s Step) apply(ctx context.Context, t Target) error {
	switch s.Action {
	case ActionTool:
		return t.SetTool(s.Tool)
	case ActionColor:
		return t.SetColor(s.Color)
	case ActionWidth:
		return t.SetStrokeWidth(s.Width)
	case ActionDrag:
		if err := t.PointerDown(*s.From); err != nil {
			return err
		}
		for _, p := range s.Via {
			if err := t.PointerMove(p); err != nil {
				return err
			}
		}
		if err := t.PointerMove(*s.To); err != nil {
			return err
		}
		return t.PointerUp(*s.To)
	case ActionClick:
		if err := t.PointerDown(*s.At); err != nil {
			return err
		}
		return t.PointerUp(*s.At)
	case ActionType:
		if err := t.EditText(s.Text); err != nil {
			return err
		}
		return t.FinishText()
	case ActionNext:
		return t.NextPage(ctx)
	case ActionPrev:
		return t.PrevPage(ctx)
	case ActionGoTo:
		return t.GoTo(ctx, s.Page)
	case ActionZoomIn:
		return t.ZoomIn(ctx)
	case ActionZoomOut:
		return t.ZoomOut(ctx)
	case ActionRotate:
		return t.Rotate(ctx)
	case ActionResize:
		return t.ResizeSelected(s.ScaleX, s.ScaleY)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, s.Action)
	}
}
