package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocuments is returned when a batch names no documents.
	ErrNoDocuments = errors.New("no documents to convert")
	// ErrNoReadableDocuments is returned when every document in a batch failed
	// to read. A batch that was read but matched nothing is not an error.
	ErrNoReadableDocuments = errors.New("no readable documents")
	// ErrNoDetector is returned by New when the auto dialect is requested
	// without a detector to resolve it.
	ErrNoDetector = errors.New("auto dialect requires a detector")
)

// ReadError records a document that could not be read.
type ReadError struct {
	Document string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Document, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
