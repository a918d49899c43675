package overlay

import (
	"errors"
	"fmt"
	"image"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var ErrSurfaceUnavailable = errors.New("overlay surface unavailable")

type EventKind int

const (
	// ObjectModified fires after a move, resize or text edit with the full
	// object list of the page.
	ObjectModified EventKind = iota
	SelectionChanged
)

type Event struct {
	Kind    EventKind
	Page    int
	Target  string
	Objects []models.Record
}

type Handler func(Event)

// Surface is the render target laid over one page.
type Surface struct {
	img      *image.RGBA
	handlers map[EventKind]map[int]Handler
	nextID   int
	disposed bool
}

// Acquirer allocates a surface of the given pixel size.
type Acquirer func(width, height int) (*Surface, error)

func AcquireSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrSurfaceUnavailable, width, height)
	}
	return &Surface{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		handlers: make(map[EventKind]map[int]Handler),
	}, nil
}

func (s *Surface) Size() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Surface) Image() *image.RGBA {
	return s.img
}

// On subscribes h to events of kind and returns the matching unsubscribe.
func (s *Surface) On(kind EventKind, h Handler) func() {
	if s.disposed {
		return func() {}
	}
	if s.handlers[kind] == nil {
		s.handlers[kind] = make(map[int]Handler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[kind][id] = h
	return func() {
		delete(s.handlers[kind], id)
	}
}

func (s *Surface) Subscriptions() int {
	n := 0
	for _, hs := range s.handlers {
		n += len(hs)
	}
	return n
}

func (s *Surface) emit(e Event) {
	hs := s.handlers[e.Kind]
	for id := 0; id < s.nextID; id++ {
		if h, ok := hs[id]; ok {
			h(e)
		}
	}
}

func (s *Surface) clear() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

func (s *Surface) Disposed() bool {
	return s.disposed
}

// Dispose drops all subscriptions and the pixel buffer. It is idempotent.
func (s *Surface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.handlers = nil
	s.img = nil
}
