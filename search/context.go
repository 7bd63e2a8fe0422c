package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
)

// ContextSource assembles the grounding documents for a generation call.
type ContextSource interface {
	// StoreContext returns the extracted documents of the store.
	StoreContext(ctx context.Context, store *core.Store) (ai.StoreContext, error)
}

// StorageContextSource builds generation context by reading uploaded file
// bytes back from the repository and extracting their text on demand.
type StorageContextSource struct {
	repository storage.StoreRepository
	extractor  ai.Extractor
	logger     *slog.Logger
}

var _ ContextSource = (*StorageContextSource)(nil)

// NewStorageContextSource creates a context source backed by the given
// repository and extractor.
func NewStorageContextSource(repository storage.StoreRepository, extractor ai.Extractor) *StorageContextSource {
	return &StorageContextSource{
		repository: repository,
		extractor:  extractor,
		logger:     slog.Default().With("component", "context-source"),
	}
}

// StoreContext extracts every readable file in the store. Files whose format
// the extractor cannot decode are skipped with a debug log rather than
// failing the whole search.
func (s *StorageContextSource) StoreContext(ctx context.Context, store *core.Store) (ai.StoreContext, error) {
	storeCtx := ai.StoreContext{StoreName: store.Name}

	for _, fd := range store.Files {
		data, err := s.repository.GetFileData(ctx, store.Name, fd.Name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("file bytes missing for descriptor", "store", store.Name, "file", fd.Name)
				continue
			}
			return ai.StoreContext{}, fmt.Errorf("reading %q: %w", fd.Name, err)
		}

		chunks, err := s.extractor.Extract(ctx, data, fd.MimeType)
		if err != nil {
			if errors.Is(err, ai.ErrUnsupportedExtraction) || errors.Is(err, ai.ErrEmptyDocument) {
				s.logger.Debug("skipping unextractable file", "store", store.Name, "file", fd.Name, "err", err)
				continue
			}
			return ai.StoreContext{}, fmt.Errorf("extracting %q: %w", fd.Name, err)
		}

		storeCtx.Documents = append(storeCtx.Documents, ai.Document{
			Name:   fd.Name,
			Chunks: chunks,
		})
	}

	return storeCtx, nil
}
