package filesearch

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovdef/filesearch/ai/mock"
	"github.com/sovdef/filesearch/config"
	"github.com/sovdef/filesearch/ingestion"
	"github.com/sovdef/filesearch/ratelimit"
	"github.com/sovdef/filesearch/registry"
	"github.com/sovdef/filesearch/storage/badger"
)

func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, *mock.MockProvider) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cfg := config.Default()
	cfg.Search.Timeout = 5 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	provider := mock.NewMockProvider()
	svc, err := New(context.Background(), cfg,
		WithProvider(provider),
		WithRepository(repo),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return svc, provider
}

func TestEndToEndSearchScenario(t *testing.T) {
	svc, provider := newTestService(t, nil)
	ctx := context.Background()

	// Make generation visibly slower than a cache lookup.
	provider.GetMockGenerator().Delay = 20 * time.Millisecond

	_, err := svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)

	data := make([]byte, 200)
	copy(data, []byte("termination clauses require 30 days notice"))
	fd, err := svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "contract.pdf",
		MimeType: "application/pdf",
		Data:     data,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", fd.Name)
	assert.Equal(t, int64(200), fd.Size)

	first, err := svc.Search(ctx, "tenant-a", "legal", "What are the termination clauses?")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, provider.GetMockGenerator().CallCount())
	require.NotEmpty(t, first.Citations)
	assert.Equal(t, "contract.pdf", first.Citations[0].Source)

	second, err := svc.Search(ctx, "tenant-a", "legal", "What are the termination clauses?")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, provider.GetMockGenerator().CallCount())
	assert.Equal(t, first.Answer, second.Answer)
	assert.Less(t, second.Latency, first.Latency)
}

func TestDeleteStoreInvalidatesCachedResults(t *testing.T) {
	svc, provider := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "contract.txt", MimeType: "text/plain", Data: []byte("clauses"),
	}, false)
	require.NoError(t, err)

	_, err = svc.Search(ctx, "tenant-a", "legal", "summarize the contract")
	require.NoError(t, err)
	require.Equal(t, 1, provider.GetMockGenerator().CallCount())

	require.NoError(t, svc.DeleteStore(ctx, "tenant-a", "legal"))
	assert.Equal(t, 0, svc.CacheStats().Size)

	// The store is gone entirely, not just its cache entries.
	_, err = svc.Search(ctx, "tenant-a", "legal", "summarize the contract")
	assert.ErrorIs(t, err, registry.ErrStoreNotFound)
}

func TestRemoveFileInvalidatesCachedResults(t *testing.T) {
	svc, provider := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "contract.txt", MimeType: "text/plain", Data: []byte("clauses"),
	}, false)
	require.NoError(t, err)

	_, err = svc.Search(ctx, "tenant-a", "legal", "summarize")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFile(ctx, "tenant-a", "legal", "contract.txt"))
	assert.Equal(t, 0, svc.CacheStats().Size)

	// Next identical search regenerates against the remaining documents.
	_, err = svc.Search(ctx, "tenant-a", "legal", "summarize")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.GetMockGenerator().CallCount())
}

func TestRateLimitRejectsExcessRequests(t *testing.T) {
	svc, _ := newTestService(t, func(cfg *config.Config) {
		cfg.RateLimit.StoreManagement = 2
	})

	_, err := svc.ListStores("tenant-a")
	require.NoError(t, err)
	_, err = svc.ListStores("tenant-a")
	require.NoError(t, err)

	_, err = svc.ListStores("tenant-a")
	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
	var limitErr *ratelimit.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, ratelimit.CategoryManagement, limitErr.Category)
	assert.Greater(t, limitErr.RetryAfter, time.Duration(0))

	// Other clients are unaffected.
	_, err = svc.ListStores("tenant-b")
	assert.NoError(t, err)
}

func TestServiceRecoversPersistedStores(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cfg := config.Default()
	ctx := context.Background()

	svc, err := New(ctx, cfg, WithProvider(mock.NewMockProvider()), WithRepository(repo))
	require.NoError(t, err)

	_, err = svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "contract.txt", MimeType: "text/plain", Data: []byte("clauses"),
	}, false)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	// A new service over the same repository sees the persisted metadata.
	restarted, err := New(ctx, cfg, WithProvider(mock.NewMockProvider()), WithRepository(repo))
	require.NoError(t, err)
	t.Cleanup(func() { restarted.Close() })

	names, err := restarted.ListStores("tenant-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"legal"}, names)

	store, err := restarted.GetStore("tenant-a", "legal")
	require.NoError(t, err)
	require.Len(t, store.Files, 1)
	assert.Equal(t, "contract.txt", store.Files[0].Name)

	// The cache does not survive a restart: the first search regenerates.
	result, err := restarted.Search(ctx, "tenant-a", "legal", "summarize")
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
}

func TestMetricsSnapshotReflectsActivity(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "notes.txt", MimeType: "text/plain", Data: []byte("notes"),
	}, false)
	require.NoError(t, err)

	_, err = svc.Search(ctx, "tenant-a", "legal", "what do the notes say?")
	require.NoError(t, err)
	_, err = svc.Search(ctx, "tenant-a", "legal", "what do the notes say?")
	require.NoError(t, err)

	snap := svc.MetricsSnapshot()
	assert.Equal(t, uint64(2), snap.Counters["search_requests"])
	assert.Equal(t, uint64(1), snap.Counters["cache_hits"])
	assert.Equal(t, uint64(1), snap.Counters["ingest_uploads"])

	hist, ok := snap.Histograms["search_latency_seconds"]
	require.True(t, ok)
	assert.Equal(t, uint64(2), hist.Count)
}

func TestPrometheusCollectorScrapes(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateStore(ctx, "tenant-a", "legal")
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, "tenant-a", "legal", ingestion.Upload{
		Filename: "notes.txt", MimeType: "text/plain", Data: []byte("notes"),
	}, false)
	require.NoError(t, err)
	_, err = svc.Search(ctx, "tenant-a", "legal", "what do the notes say?")
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(svc.PrometheusCollector()))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "filesearch_search_requests_total")
	assert.Contains(t, names, "filesearch_ingest_uploads_total")
	assert.Contains(t, names, "filesearch_search_latency_seconds")
}
