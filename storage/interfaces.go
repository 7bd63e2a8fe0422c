package storage

import (
	"context"

	"github.com/sovdef/filesearch/core"
)

// StoreRepository persists document store metadata and uploaded file bytes.
// Implementations must be thread-safe and support concurrent access.
type StoreRepository interface {
	// PutStore writes or replaces a store's metadata, including its file
	// descriptors.
	PutStore(ctx context.Context, store *core.Store) error

	// GetStore retrieves a store's metadata by name.
	// Returns ErrNotFound if the store doesn't exist.
	GetStore(ctx context.Context, name string) (*core.Store, error)

	// ListStores retrieves metadata for every persisted store.
	ListStores(ctx context.Context) ([]*core.Store, error)

	// DeleteStore removes a store's metadata and all of its file data.
	// Returns ErrNotFound if the store doesn't exist.
	DeleteStore(ctx context.Context, name string) error

	// PutFileData writes the raw bytes of an uploaded file.
	PutFileData(ctx context.Context, storeName, filename string, data []byte) error

	// GetFileData retrieves the raw bytes of an uploaded file.
	// Returns ErrNotFound if the file doesn't exist.
	GetFileData(ctx context.Context, storeName, filename string) ([]byte, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
