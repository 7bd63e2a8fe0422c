package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
)

func newTestRepo(t *testing.T) storage.StoreRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testStore(name string) *core.Store {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &core.Store{
		Name:      name,
		CreatedAt: now,
		Files: []core.FileDescriptor{
			{
				Name:        "contract.pdf",
				Size:        200,
				MimeType:    "application/pdf",
				ContentHash: core.IDFromContent("contract"),
				UploadedAt:  now,
			},
		},
	}
}

func TestPutGetStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	store := testStore("legal")
	require.NoError(t, repo.PutStore(ctx, store))

	got, err := repo.GetStore(ctx, "legal")
	require.NoError(t, err)
	assert.Equal(t, "legal", got.Name)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "contract.pdf", got.Files[0].Name)
}

func TestGetStore_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetStore(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutStore_Replaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	store := testStore("legal")
	require.NoError(t, repo.PutStore(ctx, store))

	store.Files = append(store.Files, core.FileDescriptor{
		Name: "appendix.txt", MimeType: "text/plain", UploadedAt: store.CreatedAt,
	})
	require.NoError(t, repo.PutStore(ctx, store))

	got, err := repo.GetStore(ctx, "legal")
	require.NoError(t, err)
	assert.Len(t, got.Files, 2)
}

func TestListStores(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)

	require.NoError(t, repo.PutStore(ctx, testStore("legal")))
	require.NoError(t, repo.PutStore(ctx, testStore("hr")))

	stores, err = repo.ListStores(ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 2)
}

func TestDeleteStore_RemovesMetadataAndFiles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutStore(ctx, testStore("legal")))
	require.NoError(t, repo.PutFileData(ctx, "legal", "contract.pdf", []byte("pdf bytes")))

	require.NoError(t, repo.DeleteStore(ctx, "legal"))

	_, err := repo.GetStore(ctx, "legal")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetFileData(ctx, "legal", "contract.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteStore_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	assert.ErrorIs(t, repo.DeleteStore(context.Background(), "missing"), storage.ErrNotFound)
}

func TestFileData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := []byte("file contents")
	require.NoError(t, repo.PutFileData(ctx, "legal", "doc.txt", data))

	got, err := repo.GetFileData(ctx, "legal", "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = repo.GetFileData(ctx, "legal", "other.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileData_StoreIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutFileData(ctx, "a", "doc.txt", []byte("from a")))
	require.NoError(t, repo.PutFileData(ctx, "b", "doc.txt", []byte("from b")))

	got, err := repo.GetFileData(ctx, "a", "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("from a"), got)
}

func TestClosedBackend(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = repo.GetStore(context.Background(), "any")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
