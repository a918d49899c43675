package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/kpauljoseph/pdfannotate/internal/drawing"
	"github.com/kpauljoseph/pdfannotate/internal/export"
	"github.com/kpauljoseph/pdfannotate/internal/overlay"
	"github.com/kpauljoseph/pdfannotate/internal/pdf"
	"github.com/kpauljoseph/pdfannotate/internal/store"
	"github.com/kpauljoseph/pdfannotate/internal/tool"
	"github.com/kpauljoseph/pdfannotate/internal/upload"
	"github.com/kpauljoseph/pdfannotate/internal/viewport"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
	"github.com/kpauljoseph/pdfannotate/pkg/utils"
)

var (
	ErrNoDocument  = errors.New("no document loaded")
	ErrNoPage      = errors.New("no page displayed")
	ErrNoArchive   = errors.New("no archive configured")
	ErrNoSelection = errors.New("nothing selected")
)

type Option func(*Session)

func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithArchive saves a snapshot of the store after every change.
func WithArchive(a *store.Archive) Option {
	return func(s *Session) {
		s.archive = a
	}
}

func WithDefaults(state models.ToolState) Option {
	return func(s *Session) {
		s.defaults = state
	}
}

func WithInitialScale(scale float64) Option {
	return func(s *Session) {
		s.initialScale = scale
	}
}

func WithTextDefaults(placeholder string, fontSize float64) Option {
	return func(s *Session) {
		s.placeholder = placeholder
		s.fontSize = fontSize
	}
}

func WithOverlayOptions(opts ...overlay.Option) Option {
	return func(s *Session) {
		s.overlayOpts = append(s.overlayOpts, opts...)
	}
}

// ImportReport summarises an import.
type ImportReport struct {
	Loaded  int
	Skipped int
}

type drag struct {
	id   string
	last models.Point
}

// Session owns the state of one annotation session: the tool and viewport
// controllers, the store, the in-progress gesture and the overlay. It is
// driven from a single goroutine.
type Session struct {
	logger       *logger.Logger
	notifier     Notifier
	now          func() time.Time
	archive      *store.Archive
	defaults     models.ToolState
	initialScale float64
	placeholder  string
	fontSize     float64
	overlayOpts  []overlay.Option

	renderer pdf.Renderer
	tools    *tool.Controller
	view     *viewport.Controller
	store    *store.Store
	gesture  *drawing.Gesture
	overlay  *overlay.Renderer

	source   *upload.Source
	document string
	page     *pdf.Page
	drag     *drag
	lastMove models.Point
}

func New(renderer pdf.Renderer, opts ...Option) (*Session, error) {
	s := &Session{
		logger:       logger.Discard(),
		now:          time.Now,
		defaults:     models.DefaultToolState(),
		initialScale: 1,
		renderer:     renderer,
		view:         viewport.NewController(),
		store:        store.New(),
		gesture:      drawing.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}

	tools, err := tool.NewController(s.defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool controller: %w", err)
	}
	s.tools = tools
	s.tools.Subscribe(s.toolChanged)

	s.view.SetScale(s.initialScale)
	s.gesture.SetTextDefaults(s.placeholder, s.fontSize)

	overlayOpts := append([]overlay.Option{overlay.WithLogger(s.logger)}, s.overlayOpts...)
	s.overlay = overlay.NewRenderer(s.pageModified, overlayOpts...)
	return s, nil
}

// Open loads a new document and displays its first page. The store is
// cleared first; on failure the session shows no page.
func (s *Session) Open(ctx context.Context, src upload.Source) error {
	s.interrupt()
	s.overlay.Unmount()
	s.store.Clear()
	s.view.SetPageCount(0)
	s.page = nil
	s.source = nil
	s.document = ""

	count, err := s.renderer.LoadDocument(ctx, src)
	if err != nil {
		s.notifier.Notify(LevelError, fmt.Sprintf("Failed to load %s", src.Name))
		return fmt.Errorf("failed to open %s: %w", src.Name, err)
	}

	s.source = &src
	s.document = fmt.Sprintf("%s#%s", src.Name, utils.HashBytes(src.Data)[:16])
	s.view.SetPageCount(count)
	s.logger.Info("Opened %s (%d pages)", src.Name, count)

	if count == 0 {
		return fmt.Errorf("%w: %s has no pages", ErrNoPage, src.Name)
	}
	return s.render(ctx)
}

// render displays the current page and sizes the overlay to it.
func (s *Session) render(ctx context.Context) error {
	vp := s.view.State()
	if s.view.PageSize().IsZero() {
		s.overlay.Unmount()
	}

	page, err := s.renderer.RenderPage(ctx, vp.CurrentPage, vp.Scale, vp.Rotation)
	if err != nil {
		s.page = nil
		s.overlay.Unmount()
		s.sync()
		s.notifier.Notify(LevelError, fmt.Sprintf("Failed to load page %d", vp.CurrentPage))
		return fmt.Errorf("failed to render page %d: %w", vp.CurrentPage, err)
	}
	s.page = &page
	s.view.SetPageSize(page.Size)

	if w, h := s.view.SurfaceSize(); w != page.PixelWidth || h != page.PixelHeight {
		s.logger.Debug("Page %d raster %dx%d differs from computed %dx%d",
			vp.CurrentPage, page.PixelWidth, page.PixelHeight, w, h)
	}

	if err := s.overlay.Ensure(page.PixelWidth, page.PixelHeight); err != nil {
		s.sync()
		s.notifier.Notify(LevelError, fmt.Sprintf("Annotations are unavailable on page %d", vp.CurrentPage))
		return err
	}
	s.sync()
	return nil
}

// sync re-derives the overlay from the current tool, viewport and store.
func (s *Session) sync() {
	vp := s.view.State()
	s.overlay.Sync(s.tools.State(), vp, s.view.PageSize(), s.store.ByPage(vp.CurrentPage), s.gesture.Pending())
}

// interrupt ends everything in progress before the tool or view changes:
// a text edit is finished, a pending shape is discarded.
func (s *Session) interrupt() {
	if s.overlay != nil && s.overlay.Editing() != "" {
		if err := s.overlay.EndEdit(); err != nil {
			s.logger.Warn("Failed to finish text edit: %v", err)
		}
	}
	if s.gesture.Cancel() {
		s.logger.Debug("Discarded in-progress shape")
	}
	s.gesture.Reset()
	s.drag = nil
}

func (s *Session) toolChanged(prev, next models.ToolState) {
	if prev.Type != next.Type {
		s.interrupt()
		s.logger.Debug("Tool changed from %s to %s", prev.Type, next.Type)
	}
	s.sync()
}

func (s *Session) ready() error {
	if s.page == nil {
		return ErrNoPage
	}
	if !s.overlay.Mounted() {
		return overlay.ErrNotMounted
	}
	return nil
}

// gesturePoint maps a surface pixel into the unrotated, scaled space the
// gesture divides back into page coordinates.
func (s *Session) gesturePoint(at models.Point) models.Point {
	p := s.view.ToPage(at)
	scale := s.view.State().Scale
	return models.Point{X: p.X * scale, Y: p.Y * scale}
}

// PointerDown starts a shape, places text, or picks an object to drag when
// the select tool is active. at is in surface pixels.
func (s *Session) PointerDown(at models.Point) error {
	if err := s.ready(); err != nil {
		return err
	}
	state := s.tools.State()
	s.lastMove = at

	if state.Type == models.ToolSelect {
		id, ok := s.overlay.HitTest(at)
		if !ok {
			s.drag = nil
			s.overlay.Deselect()
			return nil
		}
		if err := s.overlay.Select(id); err != nil {
			return err
		}
		s.drag = &drag{id: id, last: at}
		return nil
	}

	if s.overlay.Editing() != "" {
		if err := s.overlay.EndEdit(); err != nil {
			return err
		}
	}

	s.gesture.Reset()
	vp := s.view.State()
	committed, err := s.gesture.Begin(state, vp.CurrentPage, vp.Scale, s.gesturePoint(at))
	if err != nil {
		return err
	}
	if committed != nil {
		id, err := s.commit(*committed)
		if err != nil {
			return err
		}
		s.gesture.Reset()
		s.sync()
		return s.overlay.BeginEdit(id)
	}
	s.sync()
	return nil
}

func (s *Session) PointerMove(at models.Point) error {
	if s.drag != nil {
		return s.dragTo(at)
	}
	if s.gesture.State() != drawing.Active {
		return nil
	}
	s.lastMove = at
	s.gesture.Move(s.gesturePoint(at))
	s.sync()
	return nil
}

// PointerUp commits the pending shape or ends a drag. A release away from
// the last move counts as a final move.
func (s *Session) PointerUp(at models.Point) error {
	if s.drag != nil {
		err := s.dragTo(at)
		s.drag = nil
		return err
	}
	if s.gesture.State() != drawing.Active {
		return nil
	}
	if at != s.lastMove {
		s.gesture.Move(s.gesturePoint(at))
	}
	r, err := s.gesture.End()
	if err != nil {
		return err
	}
	s.gesture.Reset()
	if _, err := s.commit(*r); err != nil {
		return err
	}
	s.sync()
	return nil
}

func (s *Session) dragTo(at models.Point) error {
	dx, dy := at.X-s.drag.last.X, at.Y-s.drag.last.Y
	s.drag.last = at
	if dx == 0 && dy == 0 {
		return nil
	}
	if err := s.overlay.Move(s.drag.id, dx, dy); err != nil {
		return err
	}
	s.sync()
	return nil
}

func (s *Session) commit(r models.Record) (string, error) {
	r.ID = s.store.NextID(r.Page)
	if err := s.store.AddOrReplace(r); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", r.ID, err)
	}
	s.logger.Debug("Committed %s %s on page %d", r.Kind(), r.ID, r.Page)
	s.autosave()
	return r.ID, nil
}

// pageModified receives the overlay's full object list after a move, resize
// or text edit.
func (s *Session) pageModified(page int, objects []models.Record) error {
	if err := s.store.ReplacePage(page, objects); err != nil {
		return err
	}
	s.autosave()
	return nil
}

func (s *Session) autosave() {
	if s.archive == nil || s.document == "" {
		return
	}
	if err := s.archive.Save(s.document, s.store.All()); err != nil {
		s.logger.Error("Failed to archive annotations for %s: %v", s.document, err)
	}
}

func (s *Session) SetTool(t models.ToolType) error {
	_, err := s.tools.SetType(t)
	return err
}

func (s *Session) SetColor(color string) error {
	_, err := s.tools.SetColor(color)
	return err
}

func (s *Session) SetStrokeWidth(width float64) error {
	_, err := s.tools.SetStrokeWidth(width)
	return err
}

func (s *Session) NextPage(ctx context.Context) error {
	return s.navigate(ctx, s.view.NextPage)
}

func (s *Session) PrevPage(ctx context.Context) error {
	return s.navigate(ctx, s.view.PrevPage)
}

func (s *Session) GoTo(ctx context.Context, page int) error {
	return s.navigate(ctx, func() bool { return s.view.GoTo(page) })
}

func (s *Session) ZoomIn(ctx context.Context) error {
	return s.navigate(ctx, s.view.ZoomIn)
}

func (s *Session) ZoomOut(ctx context.Context) error {
	return s.navigate(ctx, s.view.ZoomOut)
}

func (s *Session) Rotate(ctx context.Context) error {
	return s.navigate(ctx, s.view.Rotate)
}

// navigate applies a viewport change and re-renders when it took effect.
func (s *Session) navigate(ctx context.Context, change func() bool) error {
	if s.source == nil {
		return ErrNoDocument
	}
	if !change() {
		return nil
	}
	s.interrupt()
	return s.render(ctx)
}

// BeginTextEdit puts an existing text annotation on the current page into
// editing mode.
func (s *Session) BeginTextEdit(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.overlay.BeginEdit(id)
}

func (s *Session) EditText(content string) error {
	return s.overlay.EditText(content)
}

func (s *Session) FinishText() error {
	if err := s.overlay.EndEdit(); err != nil {
		return err
	}
	s.sync()
	return nil
}

// ResizeSelected scales the selected object by surface-space factors.
func (s *Session) ResizeSelected(sx, sy float64) error {
	id := s.overlay.Selected()
	if id == "" {
		return ErrNoSelection
	}
	if err := s.overlay.Resize(id, sx, sy); err != nil {
		return err
	}
	s.sync()
	return nil
}

// Export encodes every annotation of the document and returns the data with
// the suggested file name.
func (s *Session) Export() ([]byte, string, error) {
	if s.source == nil {
		return nil, "", ErrNoDocument
	}
	data, err := export.Encode(export.Document{
		FileName:    s.source.Name,
		Timestamp:   s.now(),
		Annotations: s.store.All(),
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("Exported %d annotations from %s", s.store.Len(), s.source.Name)
	return data, export.FileName(s.source.Name), nil
}

// Import replaces the store with the annotations of an export. Records that
// fail to decode, duplicate an earlier id or fall outside the document are
// skipped.
func (s *Session) Import(data []byte) (ImportReport, error) {
	if s.source == nil {
		return ImportReport{}, ErrNoDocument
	}
	res, err := export.Decode(data)
	if err != nil {
		s.notifier.Notify(LevelError, "Failed to read annotations")
		return ImportReport{}, err
	}
	for _, skipErr := range res.Skipped {
		s.logger.Warn("Skipped annotation: %v", skipErr)
	}

	kept, dropped := s.admissible(res.Records)
	report := ImportReport{Loaded: len(kept), Skipped: len(res.Skipped) + dropped}
	if err := s.replace(kept); err != nil {
		return ImportReport{}, err
	}
	s.notifier.Notify(LevelInfo, fmt.Sprintf("Loaded %d annotations", report.Loaded))
	return report, nil
}

// Resume restores the archived snapshot of the open document.
func (s *Session) Resume() (int, error) {
	if s.archive == nil {
		return 0, ErrNoArchive
	}
	if s.source == nil {
		return 0, ErrNoDocument
	}
	records, skipped, err := s.archive.Load(s.document)
	if err != nil {
		return 0, err
	}
	kept, dropped := s.admissible(records)
	if skipped+dropped > 0 {
		s.logger.Warn("Skipped %d archived annotations", skipped+dropped)
	}
	if err := s.replace(kept); err != nil {
		return 0, err
	}
	s.logger.Info("Resumed %d annotations for %s", len(kept), s.source.Name)
	return len(kept), nil
}

func (s *Session) admissible(records []models.Record) ([]models.Record, int) {
	seen := make(map[string]bool, len(records))
	kept := make([]models.Record, 0, len(records))
	dropped := 0
	for _, r := range records {
		if r.Page > s.view.PageCount() || seen[r.ID] {
			s.logger.Warn("Skipped annotation %s on page %d", r.ID, r.Page)
			dropped++
			continue
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}
	return kept, dropped
}

func (s *Session) replace(records []models.Record) error {
	s.interrupt()
	if err := s.store.ReplaceAll(records); err != nil {
		return err
	}
	s.autosave()
	s.sync()
	return nil
}

// Frame returns the current overlay render instructions.
func (s *Session) Frame() []overlay.Instruction {
	return s.overlay.Frame()
}

// Snapshot composes the rendered page and its annotations into a new image.
func (s *Session) Snapshot() (*image.RGBA, error) {
	if s.page == nil {
		return nil, ErrNoPage
	}
	img := image.NewRGBA(image.Rect(0, 0, s.page.PixelWidth, s.page.PixelHeight))
	if s.page.Surface != nil {
		draw.Draw(img, img.Bounds(), s.page.Surface, s.page.Surface.Bounds().Min, draw.Src)
	}
	overlay.Paint(img, s.overlay.Frame())
	return img, nil
}

func (s *Session) Records() []models.Record {
	return s.store.All()
}

func (s *Session) PageRecords() []models.Record {
	return s.store.ByPage(s.view.State().CurrentPage)
}

func (s *Session) ToolState() models.ToolState {
	return s.tools.State()
}

func (s *Session) Viewport() models.ViewportState {
	return s.view.State()
}

func (s *Session) PageCount() int {
	return s.view.PageCount()
}

func (s *Session) Selected() string {
	return s.overlay.Selected()
}

func (s *Session) Editing() string {
	return s.overlay.Editing()
}

func (s *Session) GestureState() drawing.State {
	return s.gesture.State()
}

// Annotating reports whether the overlay is live on the current page.
func (s *Session) Annotating() bool {
	return s.page != nil && s.overlay.Mounted()
}

func (s *Session) Close() error {
	s.interrupt()
	s.overlay.Unmount()
	return s.renderer.Close()
}
