// Package readers provides per-format readers that parse source files into
// the pipeline's single internal tabular type.
package readers

import (
	"context"
	"sync"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// Reader parses one file into a RawTable.
type Reader interface {
	// Read parses the file at path. A file that cannot be parsed into any
	// table at all yields a format-coded error.
	Read(ctx context.Context, path string) (*model.RawTable, error)

	// Formats returns the formats this reader supports.
	Formats() []classify.Format
}

// Registry manages reader registration by format.
type Registry struct {
	mu      sync.RWMutex
	readers map[classify.Format]Reader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[classify.Format]Reader)}
}

// Register registers a reader for all of its formats.
func (r *Registry) Register(reader Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range reader.Formats() {
		r.readers[format] = reader
	}
}

// Get returns the reader for a format.
func (r *Registry) Get(format classify.Format) (Reader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if reader, ok := r.readers[format]; ok {
		return reader, nil
	}
	return nil, errors.New(errors.CodeUnknownFormat, "no reader for format").
		WithContext("format", format.String())
}

// Formats returns all registered formats.
func (r *Registry) Formats() []classify.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]classify.Format, 0, len(r.readers))
	for f := range r.readers {
		formats = append(formats, f)
	}
	return formats
}

// Default returns a registry with every built-in reader registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewCSVReader())
	r.Register(NewJSONReader())
	r.Register(NewParquetReader())
	r.Register(NewFeatherReader())
	r.Register(NewDuckDBReader(model.TableName))
	return r
}
