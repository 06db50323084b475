package export

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/renameio/v2"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// Writer persists export documents as pretty-printed JSON.
type Writer struct {
	path   string
	indent int
	opts   EncodeOptions
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithIndent sets the number of spaces per nesting level.
func WithIndent(n int) WriterOption {
	return func(w *Writer) {
		if n >= 0 {
			w.indent = n
		}
	}
}

// WithMockMarker emits "mock": true on predictions from the mock predictor.
func WithMockMarker(enabled bool) WriterOption {
	return func(w *Writer) {
		w.opts.MarkMock = enabled
	}
}

func NewWriter(path string, opts ...WriterOption) *Writer {
	w := &Writer{path: path, indent: 2}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Path() string { return w.path }

// EncodeOptions returns the wire options this writer applies.
func (w *Writer) EncodeOptions() EncodeOptions { return w.opts }

// Encode renders doc exactly as Write would store it.
func (w *Writer) Encode(doc models.ExportDocument) ([]byte, error) {
	b, err := json.MarshalIndent(DocumentDTO(doc, w.opts), "", strings.Repeat(" ", w.indent))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(b, '\n'), nil
}

// Write replaces the target file atomically. On failure the previous file, if any,
// is untouched.
func (w *Writer) Write(doc models.ExportDocument) error {
	b, err := w.Encode(doc)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(w.path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// ReadDocument parses an exported file.
func ReadDocument(path string) ([]RecordDTO, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var records []RecordDTO
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return records, nil
}
