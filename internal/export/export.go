package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
	"github.com/kpauljoseph/pdfannotate/pkg/utils"
)

// TimestampFormat is RFC 3339 with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	schemaURL = "pdfannotate://export.schema.json"
	suffix    = "-annotations.json"
)

var ErrInvalidDocument = errors.New("invalid annotation export")

//go:embed schema.json
var schemaData []byte

var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("failed to add export schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

type Document struct {
	FileName    string
	Timestamp   time.Time
	Annotations []models.Record
}

type wireDocument struct {
	FileName    string           `json:"fileName"`
	Timestamp   string           `json:"timestamp"`
	Annotations []map[string]any `json:"annotations"`
}

// Result is a decoded export. Records that could not be read are left out
// and their errors collected in Skipped.
type Result struct {
	FileName  string
	Timestamp time.Time
	Records   []models.Record
	Skipped   []error
}

// FileName is the export name for a PDF: the name without its .pdf suffix
// followed by -annotations.json.
func FileName(pdfName string) string {
	return utils.BaseName(pdfName) + suffix
}

// Encode writes doc as two-space indented JSON.
func Encode(doc Document) ([]byte, error) {
	wire := wireDocument{
		FileName:    doc.FileName,
		Timestamp:   doc.Timestamp.UTC().Format(TimestampFormat),
		Annotations: make([]map[string]any, 0, len(doc.Annotations)),
	}
	for _, r := range doc.Annotations {
		wire.Annotations = append(wire.Annotations, models.Serialize(r))
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotations: %w", err)
	}
	return data, nil
}

// Decode validates the envelope and reconstructs every readable record.
func Decode(data []byte) (Result, error) {
	var res Result

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	schema, err := loadSchema()
	if err != nil {
		return res, err
	}
	if err := schema.Validate(instance); err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	envelope := instance.(map[string]any)
	res.FileName = envelope["fileName"].(string)
	// an unparseable timestamp does not invalidate the annotations
	if ts, err := time.Parse(time.RFC3339Nano, envelope["timestamp"].(string)); err == nil {
		res.Timestamp = ts
	}

	for i, raw := range envelope["annotations"].([]any) {
		r, err := models.Deserialize(raw.(map[string]any))
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("annotation %d: %w", i, err))
			continue
		}
		res.Records = append(res.Records, r)
	}
	return res, nil
}
