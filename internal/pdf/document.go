package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/pdfannotate/internal/upload"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

// PointsPerInch is the render resolution at scale 1.
const PointsPerInch = 72.0

// Document renders PDF pages with go-fitz after pdfcpu has validated the
// file and reported its page sizes.
type Document struct {
	logger *logger.Logger
	doc    *fitz.Document
	name   string
	sizes  []models.PageSize
}

func NewDocument(log *logger.Logger) *Document {
	if log == nil {
		log = logger.Discard()
	}
	return &Document{logger: log}
}

func (d *Document) LoadDocument(ctx context.Context, src upload.Source) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := d.Close(); err != nil {
		d.logger.Warn("Failed to close previous document %s: %v", d.name, err)
	}

	count, err := api.PageCount(bytes.NewReader(src.Data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDocumentLoad, src.Name, err)
	}
	dims, err := api.PageDims(bytes.NewReader(src.Data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read page sizes of %s: %v", ErrDocumentLoad, src.Name, err)
	}

	doc, err := fitz.NewFromMemory(src.Data)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDocumentLoad, src.Name, err)
	}
	if doc.NumPage() != count {
		d.logger.Warn("Page count mismatch for %s: pdfcpu %d, fitz %d", src.Name, count, doc.NumPage())
		count = min(count, doc.NumPage())
	}

	sizes := make([]models.PageSize, count)
	for i := range sizes {
		if i < len(dims) {
			sizes[i] = models.PageSize{Width: dims[i].Width, Height: dims[i].Height}
		}
	}

	d.doc = doc
	d.name = src.Name
	d.sizes = sizes
	d.logger.Info("Loaded %s with %d pages", src.Name, count)
	return count, nil
}

// RenderPage rasterises a 1-based page at scale and rotation.
func (d *Document) RenderPage(ctx context.Context, page int, scale float64, rotation int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if d.doc == nil {
		return Page{}, fmt.Errorf("%w %d: no document loaded", ErrPageLoad, page)
	}
	if page < 1 || page > len(d.sizes) {
		return Page{}, fmt.Errorf("%w %d: document has %d pages", ErrPageLoad, page, len(d.sizes))
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Page{}, fmt.Errorf("%w %d: %w", ErrPageLoad, page, models.ErrInvalidScale)
	}

	// fitz page numbers are zero indexed
	idx := page - 1
	size := d.sizes[idx]
	if size.IsZero() {
		bounds, err := d.doc.Bound(idx)
		if err != nil {
			return Page{}, fmt.Errorf("%w %d: %v", ErrPageLoad, page, err)
		}
		size = models.PageSize{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}
		d.sizes[idx] = size
	}

	img, err := d.doc.ImageDPI(idx, PointsPerInch*scale)
	if err != nil {
		return Page{}, fmt.Errorf("%w %d: %v", ErrPageLoad, page, err)
	}
	rotated := Rotate(img, rotation)
	b := rotated.Bounds()
	d.logger.Debug("Rendered page %d of %s at %.2fx, %d° (%dx%d px)", page, d.name, scale, rotation, b.Dx(), b.Dy())

	return Page{
		PixelWidth:  b.Dx(),
		PixelHeight: b.Dy(),
		Size:        size,
		Surface:     rotated,
	}, nil
}

func (d *Document) Close() error {
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	d.sizes = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", d.name, err)
	}
	return nil
}
