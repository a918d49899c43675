package upload

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	PDFExtension = ".pdf"
	PDFMimeType  = "application/pdf"
)

var ErrInvalidUpload = errors.New("please select a valid PDF file")

// Source is a user supplied document that passed validation.
type Source struct {
	Name string
	Data []byte
}

// Accept checks the file name extension and the sniffed content type.
// Anything else never reaches the rendering pipeline.
func Accept(name string, data []byte) (Source, error) {
	if !strings.EqualFold(filepath.Ext(name), PDFExtension) {
		return Source{}, fmt.Errorf("%w: %s has no %s extension", ErrInvalidUpload, name, PDFExtension)
	}
	if len(data) == 0 {
		return Source{}, fmt.Errorf("%w: %s is empty", ErrInvalidUpload, name)
	}
	if mime := http.DetectContentType(data); mime != PDFMimeType {
		return Source{}, fmt.Errorf("%w: %s looks like %s", ErrInvalidUpload, name, mime)
	}
	return Source{Name: filepath.Base(name), Data: data}, nil
}

func FromFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Accept(path, data)
}
