package ai

import (
	"context"

	"github.com/sovdef/filesearch/core"
)

// Document is one store file's extracted text, as presented to the model.
type Document struct {
	Name   string
	Chunks []string
}

// StoreContext carries the grounding material for a generation call.
type StoreContext struct {
	StoreName string
	Documents []Document
}

// Generation is the upstream model's answer with its supporting citations.
// Citation order is the model's own; ranking and capping happen downstream.
type Generation struct {
	Answer    string
	Citations []core.Citation
}

// Generator answers natural-language queries grounded in store documents.
// Implementations must be thread-safe for concurrent use. Calls may take
// seconds; implementations must honor context cancellation.
type Generator interface {
	// Generate produces a grounded answer for the query.
	// The call must not be assumed idempotent by implementations; retry
	// policy belongs to the caller.
	Generate(ctx context.Context, query string, storeCtx StoreContext, params core.GenerationParams) (*Generation, error)
}

// Extractor converts uploaded file bytes into plain text chunks.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract returns the text chunks of the document.
	// Returns ErrUnsupportedExtraction for formats the implementation
	// cannot decode.
	Extract(ctx context.Context, data []byte, mimeType string) ([]string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Generator returns the answer generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Extractor returns the document text extraction service.
	// The returned Extractor is safe for concurrent use.
	Extractor() Extractor

	// Close releases resources held by the provider and its services.
	Close() error
}
