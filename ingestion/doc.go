// Package ingestion handles validated uploads of documents into stores.
//
// The Pipeline type validates filename, size, and MIME type, confirms the
// document is extractable, and only then registers the file descriptor and
// persists the bytes. Batch uploads run concurrently on a worker pool with
// per-file results.
package ingestion
