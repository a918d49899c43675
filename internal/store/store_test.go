package store_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/pdfannotate/internal/store"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

func rect(id string, page int, left float64) models.Record {
	return models.Record{
		ID:       id,
		Page:     page,
		Style:    models.DefaultStyle(),
		Geometry: models.Rect{Left: left, Top: left, Width: 10, Height: 10},
	}
}

func ids(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

var _ = Describe("Store", func() {
	var s *store.Store

	BeforeEach(func() {
		s = store.New()
	})

	Context("id allocation", func() {
		It("derives ids from page and insertion order", func() {
			Expect(s.NextID(1)).To(Equal("1-0"))
			Expect(s.NextID(1)).To(Equal("1-1"))
			Expect(s.NextID(2)).To(Equal("2-0"))
		})

		It("never reissues an id after a record is removed", func() {
			Expect(s.AddOrReplace(rect(s.NextID(1), 1, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect(s.NextID(1), 1, 0))).To(Succeed())
			Expect(s.ReplacePage(1, s.ByPage(1)[:1])).To(Succeed())
			Expect(s.NextID(1)).To(Equal("1-2"))
		})

		It("skips past imported ids", func() {
			Expect(s.ReplaceAll([]models.Record{rect("4-7", 4, 0)})).To(Succeed())
			Expect(s.NextID(4)).To(Equal("4-8"))
		})

		It("parses its own id format", func() {
			page, n, ok := store.ParseID("12-3")
			Expect(ok).To(BeTrue())
			Expect(page).To(Equal(12))
			Expect(n).To(Equal(3))

			_, _, ok = store.ParseID("custom")
			Expect(ok).To(BeFalse())
		})
	})

	Context("AddOrReplace", func() {
		It("upserts by id keeping the original position", func() {
			Expect(s.AddOrReplace(rect("1-0", 1, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect("1-1", 1, 5))).To(Succeed())
			Expect(s.AddOrReplace(rect("1-0", 1, 99))).To(Succeed())

			Expect(s.Len()).To(Equal(2))
			Expect(ids(s.All())).To(Equal([]string{"1-0", "1-1"}))
			r, ok := s.Get("1-0")
			Expect(ok).To(BeTrue())
			Expect(r.Geometry.(models.Rect).Left).To(Equal(99.0))
		})

		It("rejects records without id or page", func() {
			Expect(s.AddOrReplace(rect("", 1, 0))).To(MatchError(store.ErrMissingID))
			Expect(s.AddOrReplace(rect("x", 0, 0))).To(MatchError(store.ErrInvalidPage))
		})
	})

	Context("ReplaceAll", func() {
		It("refuses duplicate ids and leaves the store unchanged", func() {
			Expect(s.AddOrReplace(rect("1-0", 1, 0))).To(Succeed())
			err := s.ReplaceAll([]models.Record{rect("2-0", 2, 0), rect("2-0", 2, 1)})
			Expect(err).To(MatchError(store.ErrDuplicateID))
			Expect(ids(s.All())).To(Equal([]string{"1-0"}))
		})
	})

	Context("ByPage", func() {
		BeforeEach(func() {
			Expect(s.AddOrReplace(rect("1-0", 1, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect("2-0", 2, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect("1-1", 1, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect("3-0", 3, 0))).To(Succeed())
			Expect(s.AddOrReplace(rect("1-2", 1, 0))).To(Succeed())
		})

		It("returns only the page's records in insertion order", func() {
			Expect(ids(s.ByPage(1))).To(Equal([]string{"1-0", "1-1", "1-2"}))
			for _, r := range s.ByPage(2) {
				Expect(r.Page).To(Equal(2))
			}
			Expect(s.ByPage(9)).To(BeEmpty())
		})

		It("hands out copies", func() {
			page := s.ByPage(1)
			page[0].ID = "mutated"
			Expect(ids(s.ByPage(1))[0]).To(Equal("1-0"))
		})

		It("replaces one page without touching the others", func() {
			before2 := s.ByPage(2)
			before3 := s.ByPage(3)

			moved := s.ByPage(1)[1].Translate(10, 10)
			Expect(s.ReplacePage(1, []models.Record{moved})).To(Succeed())

			Expect(ids(s.ByPage(1))).To(Equal([]string{"1-1"}))
			Expect(s.ByPage(2)).To(Equal(before2))
			Expect(s.ByPage(3)).To(Equal(before3))
			Expect(ids(s.All())).To(Equal([]string{"1-1", "2-0", "3-0"}))
		})

		It("keeps the document order across repeated edits", func() {
			for i := 0; i < 3; i++ {
				page2 := s.ByPage(2)
				page2[0] = page2[0].Translate(1, 1)
				Expect(s.ReplacePage(2, page2)).To(Succeed())
			}
			Expect(ids(s.All())).To(Equal([]string{"1-0", "2-0", "1-1", "3-0", "1-2"}))
		})

		It("appends a page that had no records", func() {
			Expect(s.ReplacePage(4, []models.Record{rect("4-0", 4, 0)})).To(Succeed())
			Expect(ids(s.All())).To(Equal([]string{"1-0", "2-0", "1-1", "3-0", "1-2", "4-0"}))
		})

		It("pins page snapshots to their page", func() {
			stray := rect("9-0", 9, 0)
			Expect(s.ReplacePage(2, []models.Record{stray})).To(Succeed())
			r, ok := s.Get("9-0")
			Expect(ok).To(BeTrue())
			Expect(r.Page).To(Equal(2))
		})
	})

	It("clears records and counters", func() {
		Expect(s.AddOrReplace(rect(s.NextID(1), 1, 0))).To(Succeed())
		s.Clear()
		Expect(s.Len()).To(BeZero())
		Expect(s.NextID(1)).To(Equal("1-0"))
	})
})

var _ = Describe("Archive", func() {
	var (
		archive *store.Archive
		tempDir string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "pdfannotate-archive-*")
		Expect(err).NotTo(HaveOccurred())

		archive, err = store.OpenArchive(filepath.Join(tempDir, "nested", "annotations.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(archive.Close()).To(Succeed())
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	It("saves and restores a snapshot in order", func() {
		records := []models.Record{
			rect("2-0", 2, 1),
			{ID: "1-0", Page: 1, Style: models.DefaultStyle(),
				Geometry: models.Path{Points: []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}},
			{ID: "1-1", Page: 1, Style: models.Style{Color: "#000000", StrokeWidth: 1},
				Geometry: models.Text{Left: 3, Top: 4, Content: "hi", FontSize: 16}},
		}
		Expect(archive.Save("doc.pdf", records)).To(Succeed())

		loaded, skipped, err := archive.Load("doc.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(skipped).To(BeZero())
		Expect(loaded).To(Equal(records))
	})

	It("replaces the previous snapshot of the same document", func() {
		Expect(archive.Save("doc.pdf", []models.Record{rect("1-0", 1, 0), rect("1-1", 1, 0)})).To(Succeed())
		Expect(archive.Save("doc.pdf", []models.Record{rect("1-1", 1, 3)})).To(Succeed())
		Expect(archive.Save("other.pdf", []models.Record{rect("1-0", 1, 0)})).To(Succeed())

		loaded, _, err := archive.Load("doc.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(loaded)).To(Equal([]string{"1-1"}))

		docs, err := archive.Documents()
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(Equal([]string{"doc.pdf", "other.pdf"}))
	})

	It("returns nothing for an unknown document", func() {
		loaded, skipped, err := archive.Load("missing.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(BeEmpty())
		Expect(skipped).To(BeZero())
	})
})
