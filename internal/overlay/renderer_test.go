package overlay_test

import (
	"errors"
	"image"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/pdfannotate/internal/overlay"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
	"github.com/kpauljoseph/pdfannotate/pkg/utils"
)

func overlayTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[overlay-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	log.SetLevel(logger.LevelTrace)
	return log
}

var (
	page     = models.PageSize{Width: 200, Height: 100}
	selectOn = models.ToolState{Type: models.ToolSelect, Color: "#000000", StrokeWidth: 2}
	drawOn   = models.ToolState{Type: models.ToolRectangle, Color: "#000000", StrokeWidth: 2}
)

func viewportAt(p int, scale float64) models.ViewportState {
	return models.ViewportState{CurrentPage: p, Scale: scale}
}

func sampleRecords() []models.Record {
	return []models.Record{
		{ID: "1-0", Page: 1, Style: models.Style{Color: "#ef4444", StrokeWidth: 2},
			Geometry: models.Rect{Left: 10, Top: 10, Width: 40, Height: 20}},
		{ID: "2-0", Page: 2, Style: models.DefaultStyle(),
			Geometry: models.Line{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{ID: "1-1", Page: 1, Style: models.DefaultStyle(),
			Geometry: models.Circle{CenterLeft: 100, CenterTop: 50, Radius: 10}},
	}
}

var _ = Describe("Derive", func() {
	It("emits only the current page in order", func() {
		frame := overlay.Derive(selectOn, viewportAt(1, 1), page, sampleRecords(), nil)
		Expect(frame).To(HaveLen(2))
		Expect(frame[0].ID).To(Equal("1-0"))
		Expect(frame[1].ID).To(Equal("1-1"))
	})

	It("scales geometry at draw time without touching the records", func() {
		records := sampleRecords()
		frame := overlay.Derive(selectOn, viewportAt(1, 2), page, records, nil)
		Expect(frame[0].Shape).To(Equal(models.Rect{Left: 20, Top: 20, Width: 80, Height: 40}))
		Expect(frame[0].StrokeWidth).To(Equal(4.0))
		Expect(frame[1].Shape).To(Equal(models.Circle{CenterLeft: 200, CenterTop: 100, Radius: 20}))
		Expect(records).To(Equal(sampleRecords()))
	})

	It("rotates rectangles into the turned surface", func() {
		vp := models.ViewportState{CurrentPage: 1, Scale: 1, Rotation: 90}
		frame := overlay.Derive(selectOn, vp, page, sampleRecords(), nil)
		Expect(frame[0].Shape).To(Equal(models.Rect{Left: 70, Top: 10, Width: 20, Height: 40}))
	})

	It("toggles selectability with the tool", func() {
		for _, in := range overlay.Derive(selectOn, viewportAt(1, 1), page, sampleRecords(), nil) {
			Expect(in.Selectable).To(BeTrue())
			Expect(in.Evented).To(BeTrue())
		}
		for _, in := range overlay.Derive(drawOn, viewportAt(1, 1), page, sampleRecords(), nil) {
			Expect(in.Selectable).To(BeFalse())
			Expect(in.Evented).To(BeFalse())
		}
	})

	It("appends the in-progress shape last and never selectable", func() {
		pending := &models.Record{Page: 1, Style: models.DefaultStyle(),
			Geometry: models.Rect{Left: 1, Top: 1, Width: 1, Height: 1}}
		frame := overlay.Derive(selectOn, viewportAt(1, 1), page, sampleRecords(), pending)
		Expect(frame).To(HaveLen(3))
		Expect(frame[2].Pending).To(BeTrue())
		Expect(frame[2].Selectable).To(BeFalse())

		frame = overlay.Derive(selectOn, viewportAt(2, 1), page, sampleRecords(), pending)
		Expect(frame).To(HaveLen(1))
	})

	It("is deterministic", func() {
		a := overlay.Derive(selectOn, viewportAt(1, 1.5), page, sampleRecords(), nil)
		b := overlay.Derive(selectOn, viewportAt(1, 1.5), page, sampleRecords(), nil)
		Expect(a).To(Equal(b))
	})
})

var _ = Describe("Renderer", func() {
	var (
		renderer *overlay.Renderer
		stored   map[int][]models.Record
	)

	BeforeEach(func() {
		stored = map[int][]models.Record{}
		renderer = overlay.NewRenderer(func(p int, objects []models.Record) error {
			stored[p] = objects
			return nil
		}, overlay.WithLogger(overlayTestLogger()))
	})

	Context("surface lifecycle", func() {
		It("stays absent until a size is known", func() {
			Expect(renderer.Ensure(0, 0)).To(Succeed())
			Expect(renderer.Mounted()).To(BeFalse())
		})

		It("releases the old surface before acquiring a new one", func() {
			Expect(renderer.Ensure(200, 100)).To(Succeed())
			first := renderer.Surface()
			Expect(first.Subscriptions()).To(Equal(1))

			Expect(renderer.Ensure(200, 100)).To(Succeed())
			Expect(renderer.Surface()).To(BeIdenticalTo(first))

			Expect(renderer.Ensure(400, 200)).To(Succeed())
			Expect(first.Disposed()).To(BeTrue())
			Expect(first.Subscriptions()).To(BeZero())
			w, h := renderer.Surface().Size()
			Expect([]int{w, h}).To(Equal([]int{400, 200}))
		})

		It("reports acquisition failures and stays unmounted", func() {
			failing := overlay.NewRenderer(nil, overlay.WithAcquirer(func(w, h int) (*overlay.Surface, error) {
				return nil, errors.New("no canvas")
			}))
			err := failing.Mount(10, 10)
			Expect(err).To(MatchError(overlay.ErrSurfaceUnavailable))
			Expect(failing.Mounted()).To(BeFalse())
		})

		It("releases a surface that fails setup", func() {
			var acquired *overlay.Surface
			wrongSize := overlay.NewRenderer(nil, overlay.WithAcquirer(func(w, h int) (*overlay.Surface, error) {
				s, err := overlay.AcquireSurface(w+1, h)
				acquired = s
				return s, err
			}))
			Expect(wrongSize.Mount(10, 10)).To(MatchError(overlay.ErrSurfaceUnavailable))
			Expect(acquired.Disposed()).To(BeTrue())
			Expect(wrongSize.Mounted()).To(BeFalse())
		})

		It("unmounts idempotently", func() {
			Expect(renderer.Mount(10, 10)).To(Succeed())
			s := renderer.Surface()
			renderer.Unmount()
			renderer.Unmount()
			Expect(s.Disposed()).To(BeTrue())
			Expect(renderer.Mounted()).To(BeFalse())
		})
	})

	Context("selection", func() {
		BeforeEach(func() {
			Expect(renderer.Ensure(200, 100)).To(Succeed())
			var onPage []models.Record
			for _, r := range sampleRecords() {
				if r.Page == 1 {
					onPage = append(onPage, r)
				}
			}
			renderer.Sync(selectOn, viewportAt(1, 1), page, onPage, nil)
		})

		It("hits the top-most object under the pointer", func() {
			id, ok := renderer.HitTest(models.Point{X: 30, Y: 20})
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("1-0"))

			_, ok = renderer.HitTest(models.Point{X: 180, Y: 90})
			Expect(ok).To(BeFalse())
		})

		It("moves an object and reports the whole page", func() {
			Expect(renderer.Move("1-0", 10, 10)).To(Succeed())
			Expect(stored[1]).To(HaveLen(2))
			Expect(stored[1][0].ID).To(Equal("1-0"))
			Expect(stored[1][0].Geometry).To(Equal(models.Rect{Left: 20, Top: 20, Width: 40, Height: 20}))
			Expect(stored[1][1]).To(Equal(sampleRecords()[2]))
		})

		It("converts surface deltas back to page space", func() {
			renderer.Sync(selectOn, viewportAt(1, 2), page, renderer.Objects(), nil)
			Expect(renderer.Move("1-0", 10, 10)).To(Succeed())
			Expect(stored[1][0].Geometry).To(Equal(models.Rect{Left: 15, Top: 15, Width: 40, Height: 20}))
		})

		It("resizes an object", func() {
			Expect(renderer.Resize("1-0", 2, 1.5)).To(Succeed())
			Expect(stored[1][0].Geometry).To(Equal(models.Rect{Left: 10, Top: 10, Width: 80, Height: 30}))
		})

		It("refuses interaction when the tool is not select", func() {
			renderer.Sync(drawOn, viewportAt(1, 1), page, renderer.Objects(), nil)
			Expect(renderer.Move("1-0", 1, 1)).To(MatchError(overlay.ErrNotSelectable))
			_, ok := renderer.HitTest(models.Point{X: 30, Y: 20})
			Expect(ok).To(BeFalse())
			Expect(stored).To(BeEmpty())
		})

		It("refuses unknown objects", func() {
			Expect(renderer.Move("2-0", 1, 1)).To(MatchError(overlay.ErrUnknownObject))
		})

		It("clears the selection and announces it", func() {
			var events []overlay.Event
			off := renderer.Surface().On(overlay.SelectionChanged, func(e overlay.Event) {
				events = append(events, e)
			})
			defer off()

			Expect(renderer.Select("1-0")).To(Succeed())
			renderer.Deselect()
			renderer.Deselect()
			Expect(renderer.Selected()).To(BeEmpty())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Target).To(Equal("1-0"))
			Expect(events[1].Target).To(BeEmpty())
		})

		It("tracks the selected object until the tool changes", func() {
			Expect(renderer.Select("1-1")).To(Succeed())
			Expect(renderer.Selected()).To(Equal("1-1"))
			renderer.Sync(drawOn, viewportAt(1, 1), page, renderer.Objects(), nil)
			Expect(renderer.Selected()).To(BeEmpty())
		})
	})

	Context("zoomed text", func() {
		It("hit-tests the whole scaled text box", func() {
			Expect(renderer.Ensure(600, 300)).To(Succeed())
			text := models.Record{ID: "1-0", Page: 1, Style: models.DefaultStyle(),
				Geometry: models.Text{Left: 10, Top: 10, Content: "Hello", FontSize: 16}}
			renderer.Sync(selectOn, viewportAt(1, 3), page, []models.Record{text}, nil)

			id, ok := renderer.HitTest(models.Point{X: 40, Y: 60})
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("1-0"))

			_, ok = renderer.HitTest(models.Point{X: 40, Y: 120})
			Expect(ok).To(BeFalse())
		})
	})

	Context("text editing", func() {
		BeforeEach(func() {
			Expect(renderer.Ensure(200, 100)).To(Succeed())
			text := models.Record{ID: "1-0", Page: 1, Style: models.DefaultStyle(),
				Geometry: models.Text{Left: 5, Top: 5, Content: models.TextPlaceholder, FontSize: 16}}
			renderer.Sync(models.ToolState{Type: models.ToolText, Color: "#000000", StrokeWidth: 1},
				viewportAt(1, 1), page, []models.Record{text}, nil)
		})

		It("reports the edited content when editing ends", func() {
			Expect(renderer.BeginEdit("1-0")).To(Succeed())
			Expect(renderer.EditText("reviewed")).To(Succeed())
			Expect(stored).To(BeEmpty())

			Expect(renderer.EndEdit()).To(Succeed())
			Expect(renderer.Editing()).To(BeEmpty())
			Expect(stored[1][0].Geometry.(models.Text).Content).To(Equal("reviewed"))
		})

		It("rejects edits outside editing mode", func() {
			Expect(renderer.EditText("x")).To(MatchError(overlay.ErrNotEditing))
			Expect(renderer.EndEdit()).To(MatchError(overlay.ErrNotEditing))
		})
	})
})

var _ = Describe("Paint", func() {
	It("draws strokes in the record colour and is reproducible", func() {
		frame := overlay.Derive(selectOn, viewportAt(1, 1), page, sampleRecords(), nil)

		first := image.NewRGBA(image.Rect(0, 0, 200, 100))
		overlay.Paint(first, frame)
		second := image.NewRGBA(image.Rect(0, 0, 200, 100))
		overlay.Paint(second, frame)

		h1, err := utils.GenerateImageHash(first)
		Expect(err).NotTo(HaveOccurred())
		h2, err := utils.GenerateImageHash(second)
		Expect(err).NotTo(HaveOccurred())
		Expect(h1).To(Equal(h2))

		// top edge of the red rectangle
		Expect(first.RGBAAt(30, 10)).To(Equal(color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}))
		// inside the rectangle stays transparent
		Expect(first.RGBAAt(30, 20).A).To(BeZero())
	})

	It("renders text", func() {
		frame := overlay.Derive(selectOn, viewportAt(1, 1), page, []models.Record{{
			ID: "1-0", Page: 1, Style: models.Style{Color: "#000000", StrokeWidth: 1},
			Geometry: models.Text{Left: 2, Top: 2, Content: "WWWW", FontSize: 16},
		}}, nil)
		img := image.NewRGBA(image.Rect(0, 0, 60, 20))
		overlay.Paint(img, frame)

		painted := 0
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 0 {
				painted++
			}
		}
		Expect(painted).To(BeNumerically(">", 0))
	})

	It("scales text with the zoom", func() {
		record := models.Record{
			ID: "1-0", Page: 1, Style: models.Style{Color: "#000000", StrokeWidth: 1},
			Geometry: models.Text{Left: 10, Top: 10, Content: "Hello", FontSize: 16},
		}

		small := image.NewRGBA(image.Rect(0, 0, 200, 100))
		overlay.Paint(small, overlay.Derive(selectOn, viewportAt(1, 1), page, []models.Record{record}, nil))
		large := image.NewRGBA(image.Rect(0, 0, 600, 300))
		overlay.Paint(large, overlay.Derive(selectOn, viewportAt(1, 3), page, []models.Record{record}, nil))

		s, l := paintedArea(small), paintedArea(large)
		Expect(s.Empty()).To(BeFalse())
		Expect(s.Dy()).To(BeNumerically("<=", 16))
		Expect(l.Dy()).To(BeNumerically(">", 30))
		Expect(l.Dx()).To(BeNumerically(">", 2*s.Dx()))
		Expect(l.Min.Y).To(BeNumerically(">=", 30))
	})

	It("turns text with the page", func() {
		vp := models.ViewportState{CurrentPage: 1, Scale: 1, Rotation: 90}
		frame := overlay.Derive(selectOn, vp, page, []models.Record{{
			ID: "1-0", Page: 1, Style: models.Style{Color: "#000000", StrokeWidth: 1},
			Geometry: models.Text{Left: 10, Top: 10, Content: "Hello world", FontSize: 16},
		}}, nil)
		Expect(frame[0].Rotation).To(Equal(90))

		img := image.NewRGBA(image.Rect(0, 0, 100, 200))
		overlay.Paint(img, frame)

		area := paintedArea(img)
		Expect(area.Empty()).To(BeFalse())
		Expect(area.Dy()).To(BeNumerically(">", area.Dx()))
		Expect(area.Max.X).To(BeNumerically("<=", 90))
		Expect(area.Min.Y).To(BeNumerically(">=", 10))
	})
})

// paintedArea is the smallest rectangle holding every non-transparent pixel.
func paintedArea(img *image.RGBA) image.Rectangle {
	var area image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			area = area.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return area
}
