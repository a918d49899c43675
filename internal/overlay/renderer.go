package overlay

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/vec"

	"github.com/kpauljoseph/pdfannotate/internal/viewport"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var (
	ErrNotMounted    = errors.New("overlay is not mounted")
	ErrNotSelectable = errors.New("objects are not selectable with the current tool")
	ErrUnknownObject = errors.New("object not on the current page")
	ErrNotText       = errors.New("object is not a text annotation")
	ErrNotEditing    = errors.New("no text annotation is being edited")
)

// ModifiedFunc receives the complete object list of page after any change
// made through the overlay.
type ModifiedFunc func(page int, objects []models.Record) error

type Option func(*Renderer)

func WithAcquirer(a Acquirer) Option {
	return func(r *Renderer) {
		r.acquire = a
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// Renderer keeps the overlay surface of the current page in step with the
// tool, viewport and store.
type Renderer struct {
	acquire     Acquirer
	onModified  ModifiedFunc
	logger      *logger.Logger
	surface     *Surface
	unsubscribe []func()

	tool    models.ToolState
	vp      models.ViewportState
	size    models.PageSize
	objects []models.Record
	pending *models.Record
	frame   []Instruction

	selected string
	editing  string
}

func NewRenderer(onModified ModifiedFunc, opts ...Option) *Renderer {
	r := &Renderer{
		acquire:    AcquireSurface,
		onModified: onModified,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount releases any current surface and acquires a new one of the given size.
// If setup fails part way, everything acquired so far is released.
func (r *Renderer) Mount(width, height int) (err error) {
	r.Unmount()

	surface, err := r.acquire(width, height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	var offs []func()
	defer func() {
		if err != nil {
			for _, off := range offs {
				off()
			}
			surface.Dispose()
		}
	}()

	if w, h := surface.Size(); w != width || h != height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrSurfaceUnavailable, w, h, width, height)
	}
	offs = append(offs, surface.On(ObjectModified, r.handleModified))

	r.surface = surface
	r.unsubscribe = offs
	r.logger.Debug("Mounted overlay surface %dx%d", width, height)
	return nil
}

// Ensure mounts a surface of the given size unless one is already mounted.
// A zero size unmounts: the overlay stays absent until the page size is known.
func (r *Renderer) Ensure(width, height int) error {
	if width <= 0 || height <= 0 {
		r.Unmount()
		return nil
	}
	if r.surface != nil {
		if w, h := r.surface.Size(); w == width && h == height {
			return nil
		}
	}
	return r.Mount(width, height)
}

func (r *Renderer) Unmount() {
	if r.surface == nil {
		return
	}
	for _, off := range r.unsubscribe {
		off()
	}
	r.unsubscribe = nil
	r.surface.Dispose()
	r.surface = nil
	r.selected = ""
	r.logger.Debug("Unmounted overlay surface")
}

func (r *Renderer) Mounted() bool {
	return r.surface != nil
}

func (r *Renderer) Surface() *Surface {
	return r.surface
}

// Sync re-derives the frame from the given state and redraws the surface.
// pageRecords must belong to vp.CurrentPage.
func (r *Renderer) Sync(tool models.ToolState, vp models.ViewportState, size models.PageSize, pageRecords []models.Record, pending *models.Record) []Instruction {
	r.tool = tool
	r.vp = vp
	r.size = size
	r.objects = append(r.objects[:0:0], pageRecords...)
	r.pending = pending

	if r.editing != "" && r.index(r.editing) < 0 {
		r.editing = ""
	}
	if r.selected != "" && (tool.Type != models.ToolSelect || r.index(r.selected) < 0) {
		r.selected = ""
	}

	r.redraw()
	return r.frame
}

func (r *Renderer) redraw() {
	r.frame = Derive(r.tool, r.vp, r.size, r.objects, r.pending)
	if r.surface == nil {
		return
	}
	r.surface.clear()
	Paint(r.surface.Image(), r.frame)
}

func (r *Renderer) Frame() []Instruction {
	return append([]Instruction(nil), r.frame...)
}

// Objects returns the current page's records as last synced or modified.
func (r *Renderer) Objects() []models.Record {
	return append([]models.Record(nil), r.objects...)
}

// HitTest returns the id of the top-most selectable object at a surface point.
func (r *Renderer) HitTest(p models.Point) (string, bool) {
	if r.surface == nil || r.tool.Type != models.ToolSelect {
		return "", false
	}
	in, ok := hit(r.frame, vec.Vec2{X: p.X, Y: p.Y})
	return in.ID, ok
}

func (r *Renderer) Select(id string) error {
	if err := r.checkSelectable(id); err != nil {
		return err
	}
	if r.selected != id {
		r.selected = id
		r.surface.emit(Event{Kind: SelectionChanged, Page: r.vp.CurrentPage, Target: id})
	}
	return nil
}

// Deselect clears the selection, as a click on empty space does.
func (r *Renderer) Deselect() {
	if r.selected == "" {
		return
	}
	r.selected = ""
	if r.surface != nil {
		r.surface.emit(Event{Kind: SelectionChanged, Page: r.vp.CurrentPage})
	}
}

func (r *Renderer) Selected() string {
	return r.selected
}

// Move shifts an object by a surface-pixel delta.
func (r *Renderer) Move(id string, dx, dy float64) error {
	if err := r.checkSelectable(id); err != nil {
		return err
	}
	d := r.toPageDelta(models.Point{X: dx, Y: dy})
	i := r.index(id)
	r.objects[i] = r.objects[i].Translate(d.X, d.Y)
	return r.modified(id)
}

// Resize scales an object by surface-space factors around its top-left bound.
func (r *Renderer) Resize(id string, sx, sy float64) error {
	if err := r.checkSelectable(id); err != nil {
		return err
	}
	if r.vp.Rotation == 90 || r.vp.Rotation == 270 {
		sx, sy = sy, sx
	}
	i := r.index(id)
	resized, err := r.objects[i].Scale(sx, sy)
	if err != nil {
		return err
	}
	r.objects[i] = resized
	return r.modified(id)
}

// BeginEdit puts a text object into editing mode.
func (r *Renderer) BeginEdit(id string) error {
	if r.surface == nil {
		return ErrNotMounted
	}
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if _, ok := r.objects[i].Geometry.(models.Text); !ok {
		return fmt.Errorf("%w: %s", ErrNotText, id)
	}
	r.editing = id
	return nil
}

func (r *Renderer) Editing() string {
	return r.editing
}

// EditText replaces the content of the text being edited. The change is
// visible immediately but only reported when editing ends.
func (r *Renderer) EditText(content string) error {
	i := r.index(r.editing)
	if r.editing == "" || i < 0 {
		return ErrNotEditing
	}
	t := r.objects[i].Geometry.(models.Text)
	t.Content = content
	r.objects[i].Geometry = t
	r.redraw()
	return nil
}

// EndEdit leaves editing mode and reports the edited object list.
func (r *Renderer) EndEdit() error {
	if r.editing == "" {
		return ErrNotEditing
	}
	id := r.editing
	r.editing = ""
	return r.modified(id)
}

func (r *Renderer) checkSelectable(id string) error {
	if r.surface == nil {
		return ErrNotMounted
	}
	if r.tool.Type != models.ToolSelect {
		return ErrNotSelectable
	}
	if r.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	return nil
}

func (r *Renderer) modified(target string) error {
	r.redraw()
	if r.surface == nil {
		return ErrNotMounted
	}
	r.surface.emit(Event{
		Kind:    ObjectModified,
		Page:    r.vp.CurrentPage,
		Target:  target,
		Objects: r.Objects(),
	})
	return nil
}

func (r *Renderer) handleModified(e Event) {
	if r.onModified == nil {
		return
	}
	if err := r.onModified(e.Page, e.Objects); err != nil {
		r.logger.Error("Failed to store page %d after modifying %s: %v", e.Page, e.Target, err)
	}
}

// toPageDelta converts a surface displacement into page space, ignoring the
// translation part of the transform.
func (r *Renderer) toPageDelta(d models.Point) models.Point {
	inv := viewport.Transform(r.vp, r.size).Inv()
	inv[4], inv[5] = 0, 0
	return viewport.Apply(inv, d)
}

func (r *Renderer) index(id string) int {
	if id == "" {
		return -1
	}
	for i, o := range r.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}
