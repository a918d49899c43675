package utils

import (
	"path/filepath"
	"strings"
)

// BaseName strips the directory and a trailing .pdf extension, in any case.
func BaseName(name string) string {
	base := filepath.Base(name)
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return base
}
