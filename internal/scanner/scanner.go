package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kpauljoseph/pdfannotate/internal/upload"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
)

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *DirectoryScanner {
	if log == nil {
		log = logger.Discard()
	}
	return &DirectoryScanner{logger: log}
}

// FindPDFs returns the paths of all PDF files under dir, sorted.
func (s *DirectoryScanner) FindPDFs(ctx context.Context, dir string) ([]string, error) {
	var pdfs []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			s.logger.Debug("Scanning directory: %s", path)
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), upload.PDFExtension) {
			return nil
		}

		pdfs = append(pdfs, path)
		s.logger.Trace("Found PDF (%d): %s", len(pdfs), path)
		return nil
	})

	if err != nil {
		return nil, err
	}

	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s or its subdirectories", dir)
	}

	sort.Strings(pdfs)
	return pdfs, nil
}
