package crawler

import (
	"context"
	"io"
)

// RecordLog is the durable, append-only sequence of state assignments.
type RecordLog interface {
	// Append persists one record durably before returning.
	Append(ctx context.Context, rec Record) error
	// LoadAll returns every acknowledged record in append order.
	LoadAll(ctx context.Context) ([]Record, error)
}

// Fetcher fetches a URL and returns the body plus metadata. A returned error
// means no structured HTTP response was received.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Object is one exported artifact.
type Object struct {
	Path        string
	ContentType string
	// Metadata is attached where the store supports it.
	Metadata map[string]string
	Body     io.Reader
}

// BlobStore writes exported artifacts and returns a URI.
type BlobStore interface {
	Put(ctx context.Context, obj Object) (string, error)
}
