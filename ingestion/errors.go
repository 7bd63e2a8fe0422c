package ingestion

import "errors"

var (
	// ErrRegistryRequired is returned when a store registry is not provided.
	ErrRegistryRequired = errors.New("store registry required")

	// ErrRepositoryRequired is returned when a storage repository is not provided.
	ErrRepositoryRequired = errors.New("storage repository required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrEmptyBatch is returned when a batch upload contains no files.
	ErrEmptyBatch = errors.New("batch contains no files")
)
