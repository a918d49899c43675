package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var (
	ErrDuplicateID = errors.New("duplicate annotation id")
	ErrInvalidPage = errors.New("invalid annotation page")
	ErrMissingID   = errors.New("annotation has no id")
)

// Store is the page-partitioned collection of committed annotations for one
// document session. It is owned by a single session and is not safe for
// concurrent use.
type Store struct {
	records []models.Record
	index   map[string]int
	// next per-page sequence number; never decreases within a session
	next map[int]int
}

func New() *Store {
	return &Store{
		index: make(map[string]int),
		next:  make(map[int]int),
	}
}

// NextID reserves the id for the next record committed on page.
func (s *Store) NextID(page int) string {
	n := s.next[page]
	s.next[page] = n + 1
	return FormatID(page, n)
}

func FormatID(page, n int) string {
	return fmt.Sprintf("%d-%d", page, n)
}

// ParseID splits ids of the form "<page>-<n>".
func ParseID(id string) (page, n int, ok bool) {
	p, rest, found := strings.Cut(id, "-")
	if !found {
		return 0, 0, false
	}
	page, err := strconv.Atoi(p)
	if err != nil {
		return 0, 0, false
	}
	n, err = strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, 0, false
	}
	return page, n, true
}

// AddOrReplace upserts by id. A replaced record keeps its position.
func (s *Store) AddOrReplace(r models.Record) error {
	if err := check(r); err != nil {
		return err
	}
	if i, ok := s.index[r.ID]; ok {
		s.records[i] = r
		return nil
	}
	s.index[r.ID] = len(s.records)
	s.records = append(s.records, r)
	s.reserve(r.ID)
	return nil
}

// ReplaceAll swaps the whole collection. The store is left untouched when the
// snapshot is invalid.
func (s *Store) ReplaceAll(records []models.Record) error {
	index := make(map[string]int, len(records))
	for i, r := range records {
		if err := check(r); err != nil {
			return err
		}
		if _, dup := index[r.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		index[r.ID] = i
	}

	s.records = append([]models.Record(nil), records...)
	s.index = index
	for _, r := range records {
		s.reserve(r.ID)
	}
	return nil
}

// ReplacePage replaces the records of one page with the given list. The new
// list takes the slot of the page's first record, so editing a page never
// reorders the document; a page without records is appended. Every other
// page is unchanged and each record is pinned to page.
func (s *Store) ReplacePage(page int, records []models.Record) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	merged := make([]models.Record, 0, len(s.records)+len(records))
	placed := false
	place := func() {
		for _, r := range records {
			r.Page = page
			merged = append(merged, r)
		}
		placed = true
	}
	for _, r := range s.records {
		if r.Page != page {
			merged = append(merged, r)
			continue
		}
		if !placed {
			place()
		}
	}
	if !placed {
		place()
	}
	return s.ReplaceAll(merged)
}

// ByPage returns the page's records in insertion order.
func (s *Store) ByPage(page int) []models.Record {
	var out []models.Record
	for _, r := range s.records {
		if r.Page == page {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) All() []models.Record {
	return append([]models.Record(nil), s.records...)
}

func (s *Store) Get(id string) (models.Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Record{}, false
	}
	return s.records[i], true
}

func (s *Store) Len() int {
	return len(s.records)
}

// Clear drops all records and id counters; used when a new document loads.
func (s *Store) Clear() {
	s.records = nil
	s.index = make(map[string]int)
	s.next = make(map[int]int)
}

// reserve advances the page counter past ids that follow our own format so
// imported records never collide with later commits.
func (s *Store) reserve(id string) {
	page, n, ok := ParseID(id)
	if !ok {
		return
	}
	if s.next[page] <= n {
		s.next[page] = n + 1
	}
}

func check(r models.Record) error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.Page < 1 {
		return fmt.Errorf("%w: %s on page %d", ErrInvalidPage, r.ID, r.Page)
	}
	return nil
}
