package ai

import "errors"

var (
	// ErrGeneration indicates the upstream generation call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrUnsupportedExtraction indicates a document format the extractor
	// cannot decode.
	ErrUnsupportedExtraction = errors.New("unsupported document format for extraction")

	// ErrEmptyDocument indicates an extraction that produced no text.
	ErrEmptyDocument = errors.New("document produced no text")
)
