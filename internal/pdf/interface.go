package pdf

import (
	"context"
	"errors"
	"image"

	"github.com/kpauljoseph/pdfannotate/internal/upload"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var (
	ErrDocumentLoad = errors.New("failed to load PDF")
	ErrPageLoad     = errors.New("failed to load page")
)

// Renderer loads a document and rasterises its pages.
type Renderer interface {
	LoadDocument(ctx context.Context, src upload.Source) (int, error)
	RenderPage(ctx context.Context, page int, scale float64, rotation int) (Page, error)
	Close() error
}

// Page is a rendered page. Size is the unscaled, unrotated page size in
// points; PixelWidth and PixelHeight describe Surface after scale and rotation.
type Page struct {
	PixelWidth  int
	PixelHeight int
	Size        models.PageSize
	Surface     image.Image
}
