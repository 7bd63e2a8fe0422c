package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
	"github.com/sovdef/filesearch/storage/badger"
)

type recordingInvalidator struct {
	calls []string
}

// flakyRepo fails PutStore on demand to exercise persist-failure rollback.
type flakyRepo struct {
	storage.StoreRepository
	failPuts bool
}

func (f *flakyRepo) PutStore(ctx context.Context, store *core.Store) error {
	if f.failPuts {
		return errors.New("disk full")
	}
	return f.StoreRepository.PutStore(ctx, store)
}

func (ri *recordingInvalidator) InvalidateStore(storeName string) int {
	ri.calls = append(ri.calls, storeName)
	return 1
}

func testDescriptor(name string) core.FileDescriptor {
	return core.FileDescriptor{
		Name:        name,
		Size:        200,
		MimeType:    "application/pdf",
		ContentHash: core.IDFromContent(name),
		UploadedAt:  time.Now().UTC(),
	}
}

func TestCreate(t *testing.T) {
	r := New()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store, err := r.Create(ctx, "legal")
		require.NoError(t, err)
		assert.Equal(t, "legal", store.Name)
		assert.False(t, store.CreatedAt.IsZero())
	})

	t.Run("conflict", func(t *testing.T) {
		_, err := r.Create(ctx, "legal")
		assert.ErrorIs(t, err, ErrStoreConflict)
	})

	t.Run("names are case-sensitive", func(t *testing.T) {
		_, err := r.Create(ctx, "Legal")
		assert.NoError(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := r.Create(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyStoreName)

		_, err = r.Create(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyStoreName)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes store", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, "legal"))
		_, err = r.Get("legal")
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		r := New()
		assert.ErrorIs(t, r.Delete(ctx, "missing"), ErrStoreNotFound)
	})

	t.Run("triggers cache invalidation", func(t *testing.T) {
		inv := &recordingInvalidator{}
		r := New(WithInvalidator(inv))
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, "legal"))
		assert.Equal(t, []string{"legal"}, inv.calls)
	})

	t.Run("fails fast while referenced", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.Acquire("legal"))
		assert.ErrorIs(t, r.Delete(ctx, "legal"), ErrStoreBusy)

		r.Release("legal")
		assert.NoError(t, r.Delete(ctx, "legal"))
	})
}

func TestList(t *testing.T) {
	r := New()
	ctx := context.Background()

	assert.Empty(t, r.List())

	for _, name := range []string{"zeta", "alpha", "legal"} {
		_, err := r.Create(ctx, name)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"alpha", "legal", "zeta"}, r.List())
}

func TestAddFile(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, "contract.pdf", store.Files[0].Name)
	})

	t.Run("store not found", func(t *testing.T) {
		r := New()
		err := r.AddFile(ctx, "missing", testDescriptor("contract.pdf"), false)
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("duplicate filename conflicts", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))
		err = r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false)
		assert.ErrorIs(t, err, ErrFileConflict)
	})

	t.Run("overwrite replaces descriptor", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))

		updated := testDescriptor("contract.pdf")
		updated.Size = 999
		require.NoError(t, r.AddFile(ctx, "legal", updated, true))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, int64(999), store.Files[0].Size)
	})
}

func TestAddFilePersistFailureRollsBack(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	flaky := &flakyRepo{StoreRepository: repo}
	r := New(WithRepository(flaky))
	ctx := context.Background()

	_, err = r.Create(ctx, "legal")
	require.NoError(t, err)

	original := testDescriptor("contract.pdf")
	require.NoError(t, r.AddFile(ctx, "legal", original, false))

	t.Run("failed overwrite keeps the prior descriptor", func(t *testing.T) {
		flaky.failPuts = true
		defer func() { flaky.failPuts = false }()

		updated := testDescriptor("contract.pdf")
		updated.Size = 999
		updated.ContentHash = core.IDFromContent("updated contents")
		require.Error(t, r.AddFile(ctx, "legal", updated, true))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, original.Size, store.Files[0].Size)
		assert.Equal(t, original.ContentHash, store.Files[0].ContentHash)
	})

	t.Run("failed append leaves no descriptor behind", func(t *testing.T) {
		flaky.failPuts = true
		defer func() { flaky.failPuts = false }()

		require.Error(t, r.AddFile(ctx, "legal", testDescriptor("appendix.pdf"), false))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, "contract.pdf", store.Files[0].Name)
	})

	t.Run("registry still works once persistence recovers", func(t *testing.T) {
		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("appendix.pdf"), false))

		store, err := r.Get("legal")
		require.NoError(t, err)
		assert.Len(t, store.Files, 2)
	})
}

func TestRemoveFile(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)
		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))
		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("appendix.pdf"), false))

		require.NoError(t, r.RemoveFile(ctx, "legal", "contract.pdf"))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, "appendix.pdf", store.Files[0].Name)
	})

	t.Run("store not found", func(t *testing.T) {
		r := New()
		err := r.RemoveFile(ctx, "missing", "contract.pdf")
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("file not found", func(t *testing.T) {
		r := New()
		_, err := r.Create(ctx, "legal")
		require.NoError(t, err)

		err = r.RemoveFile(ctx, "legal", "ghost.pdf")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("failed persist restores the descriptor", func(t *testing.T) {
		repo, backend, err := badger.NewMemoryRepository()
		require.NoError(t, err)
		t.Cleanup(func() { backend.Close() })

		flaky := &flakyRepo{StoreRepository: repo}
		r := New(WithRepository(flaky))
		_, err = r.Create(ctx, "legal")
		require.NoError(t, err)
		require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))

		flaky.failPuts = true
		require.Error(t, r.RemoveFile(ctx, "legal", "contract.pdf"))

		store, err := r.Get("legal")
		require.NoError(t, err)
		require.Len(t, store.Files, 1)
		assert.Equal(t, "contract.pdf", store.Files[0].Name)
	})
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	ctx := context.Background()

	_, err := r.Create(ctx, "legal")
	require.NoError(t, err)
	require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))

	store, err := r.Get("legal")
	require.NoError(t, err)
	store.Files[0].Name = "mutated.pdf"

	fresh, err := r.Get("legal")
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", fresh.Files[0].Name)
}

func TestAcquireRelease(t *testing.T) {
	r := New()
	ctx := context.Background()

	assert.ErrorIs(t, r.Acquire("missing"), ErrStoreNotFound)

	_, err := r.Create(ctx, "legal")
	require.NoError(t, err)

	require.NoError(t, r.Acquire("legal"))
	require.NoError(t, r.Acquire("legal"))
	assert.ErrorIs(t, r.Delete(ctx, "legal"), ErrStoreBusy)

	r.Release("legal")
	assert.ErrorIs(t, r.Delete(ctx, "legal"), ErrStoreBusy)

	r.Release("legal")
	assert.NoError(t, r.Delete(ctx, "legal"))

	// Release after delete is a no-op.
	r.Release("legal")
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	r := New(WithRepository(repo))
	_, err = r.Create(ctx, "legal")
	require.NoError(t, err)
	require.NoError(t, r.AddFile(ctx, "legal", testDescriptor("contract.pdf"), false))

	// A fresh registry over the same repository sees the persisted state.
	r2 := New(WithRepository(repo))
	require.NoError(t, r2.Load(ctx))

	store, err := r2.Get("legal")
	require.NoError(t, err)
	require.Len(t, store.Files, 1)
	assert.Equal(t, "contract.pdf", store.Files[0].Name)

	// Deleting through the registry removes the persisted copy too.
	require.NoError(t, r2.Delete(ctx, "legal"))
	r3 := New(WithRepository(repo))
	require.NoError(t, r3.Load(ctx))
	_, err = r3.Get("legal")
	assert.ErrorIs(t, err, ErrStoreNotFound)
}
