// Copyright 2025 Sovdef Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package filesearch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/ai/openai"
	"github.com/sovdef/filesearch/cache"
	"github.com/sovdef/filesearch/config"
	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/ingestion"
	"github.com/sovdef/filesearch/metrics"
	"github.com/sovdef/filesearch/ratelimit"
	"github.com/sovdef/filesearch/registry"
	"github.com/sovdef/filesearch/search"
	"github.com/sovdef/filesearch/storage"
	"github.com/sovdef/filesearch/storage/badger"
)

// Service is the request-serving core: it owns the result cache, the rate
// limiter, the store registry, the metrics collector, the ingestion pipeline
// and the search orchestrator, and exposes the function-level operations a
// thin API layer maps to endpoints.
type Service struct {
	cfg          *config.Config
	backend      *badger.Backend
	repo         storage.StoreRepository
	provider     ai.Provider
	cache        *cache.Store[core.SearchResult]
	limiter      *ratelimit.Limiter
	registry     *registry.Registry
	collector    *metrics.Collector
	orchestrator *search.Orchestrator
	pipeline     *ingestion.Pipeline
	params       core.GenerationParams
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
	repo     storage.StoreRepository
	logger   *slog.Logger
}

// WithProvider overrides the AI provider. Default is an OpenAI-compatible
// provider built from the config's ai section.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithRepository overrides the storage repository. When set, the service
// does not open its own badger backend.
func WithRepository(repo storage.StoreRepository) ServiceOption {
	return func(o *serviceOptions) {
		o.repo = repo
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a fully wired service from the configuration. Persisted store
// metadata is loaded into the registry; cached results and rate-limiter
// state are volatile and start empty.
func New(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	var backend *badger.Backend
	repo := options.repo
	if repo == nil {
		var err error
		backend, err = badger.OpenBackend(cfg.DBPath, false)
		if err != nil {
			return nil, err
		}
		repo, err = badger.NewStoreRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithHost(cfg.AI.Host),
			ai.WithModel(cfg.AI.Model),
			ai.WithAPIKey(cfg.AI.APIKey),
			ai.WithTemperature(cfg.AI.Temperature),
			ai.WithMaxOutputTokens(cfg.AI.MaxOutputTokens),
			ai.WithMaxSources(cfg.Search.MaxCitations),
		)
		var err error
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			if backend != nil {
				backend.Close()
			}
			return nil, err
		}
	}

	collector := metrics.NewCollector()
	resultCache := cache.New[core.SearchResult](cfg.Cache.Capacity, cfg.Cache.TTL,
		cache.WithLogger[core.SearchResult](options.logger))
	limiter := ratelimit.New(cfg.RateLimit.Window, ratelimit.Limits{
		ratelimit.CategoryUpload:      cfg.RateLimit.Upload,
		ratelimit.CategoryBatchUpload: cfg.RateLimit.BatchUpload,
		ratelimit.CategorySearch:      cfg.RateLimit.Search,
		ratelimit.CategoryManagement:  cfg.RateLimit.StoreManagement,
	}, ratelimit.WithLogger(options.logger))

	reg := registry.New(
		registry.WithLogger(options.logger),
		registry.WithRepository(repo),
		registry.WithInvalidator(resultCache),
	)
	if err := reg.Load(ctx); err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}

	contextSource := search.NewStorageContextSource(repo, provider.Extractor())
	orchestrator, err := search.NewOrchestrator(reg, resultCache, provider.Generator(), contextSource,
		search.WithLogger(options.logger),
		search.WithMetrics(collector),
		search.WithMaxCitations(cfg.Search.MaxCitations),
		search.WithResultTTL(cfg.Cache.TTL),
	)
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithLogger(options.logger),
		ingestion.WithMetrics(collector),
		ingestion.WithMaxFileSize(cfg.Upload.MaxFileSize),
		ingestion.WithUploadTimeout(cfg.Upload.Timeout),
	}
	if cfg.Upload.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Upload.PoolSize))
	}
	pipeline, err := ingestion.NewPipeline(reg, repo, provider.Extractor(), pipelineOpts...)
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}

	return &Service{
		cfg:          cfg,
		backend:      backend,
		repo:         repo,
		provider:     provider,
		cache:        resultCache,
		limiter:      limiter,
		registry:     reg,
		collector:    collector,
		orchestrator: orchestrator,
		pipeline:     pipeline,
		params: core.GenerationParams{
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
		},
		logger: options.logger,
	}, nil
}

// allow checks the client's rate limit for the category. A rejection is
// returned as a *ratelimit.LimitError carrying the retry hint.
func (s *Service) allow(clientID string, category ratelimit.Category) error {
	decision := s.limiter.Allow(clientID, category)
	if !decision.Allowed {
		return &ratelimit.LimitError{Category: category, RetryAfter: decision.RetryAfter}
	}
	return nil
}

// CreateStore creates a new empty document store.
func (s *Service) CreateStore(ctx context.Context, clientID, name string) (*core.Store, error) {
	requestID := uuid.NewString()
	if err := s.allow(clientID, ratelimit.CategoryManagement); err != nil {
		return nil, err
	}

	store, err := s.registry.Create(ctx, name)
	if err != nil {
		s.logger.Warn("create store failed", "request_id", requestID, "store", name, "err", err)
		return nil, err
	}
	s.logger.Info("store created", "request_id", requestID, "store", name)
	return store, nil
}

// DeleteStore removes a store, its files, and any cached results that cite
// them. Fails fast with registry.ErrStoreBusy while uploads or searches
// hold the store.
func (s *Service) DeleteStore(ctx context.Context, clientID, name string) error {
	requestID := uuid.NewString()
	if err := s.allow(clientID, ratelimit.CategoryManagement); err != nil {
		return err
	}

	if err := s.registry.Delete(ctx, name); err != nil {
		s.logger.Warn("delete store failed", "request_id", requestID, "store", name, "err", err)
		return err
	}
	s.logger.Info("store deleted", "request_id", requestID, "store", name)
	return nil
}

// ListStores returns the names of all stores, sorted.
func (s *Service) ListStores(clientID string) ([]string, error) {
	if err := s.allow(clientID, ratelimit.CategoryManagement); err != nil {
		return nil, err
	}
	return s.registry.List(), nil
}

// GetStore returns a store's metadata including its file descriptors.
func (s *Service) GetStore(clientID, name string) (*core.Store, error) {
	if err := s.allow(clientID, ratelimit.CategoryManagement); err != nil {
		return nil, err
	}
	return s.registry.Get(name)
}

// UploadFile validates and ingests one file into the named store.
func (s *Service) UploadFile(ctx context.Context, clientID, storeName string, upload ingestion.Upload, overwrite bool) (*core.FileDescriptor, error) {
	requestID := uuid.NewString()
	if err := s.allow(clientID, ratelimit.CategoryUpload); err != nil {
		return nil, err
	}

	fd, err := s.pipeline.UploadFile(ctx, storeName, upload, overwrite)
	if err != nil {
		s.logger.Warn("upload failed", "request_id", requestID,
			"store", storeName, "file", upload.Filename, "err", err)
		return nil, err
	}
	return fd, nil
}

// UploadBatch ingests several files concurrently with per-file results.
func (s *Service) UploadBatch(ctx context.Context, clientID, storeName string, uploads []ingestion.Upload, overwrite bool) ([]ingestion.BatchResult, error) {
	if err := s.allow(clientID, ratelimit.CategoryBatchUpload); err != nil {
		return nil, err
	}
	return s.pipeline.UploadBatch(ctx, storeName, uploads, overwrite)
}

// RemoveFile deletes a file from a store and drops the store's cached
// results, which may cite the removed document.
func (s *Service) RemoveFile(ctx context.Context, clientID, storeName, filename string) error {
	requestID := uuid.NewString()
	if err := s.allow(clientID, ratelimit.CategoryManagement); err != nil {
		return err
	}

	if err := s.registry.RemoveFile(ctx, storeName, filename); err != nil {
		s.logger.Warn("remove file failed", "request_id", requestID,
			"store", storeName, "file", filename, "err", err)
		return err
	}
	invalidated := s.cache.InvalidateStore(storeName)
	s.logger.Info("file removed", "request_id", requestID,
		"store", storeName, "file", filename, "invalidated", invalidated)
	return nil
}

// Search answers a query against the named store. Identical concurrent
// requests collapse to a single upstream generation and successful answers
// are cached.
func (s *Service) Search(ctx context.Context, clientID, storeName, query string) (*core.SearchResult, error) {
	requestID := uuid.NewString()
	if err := s.allow(clientID, ratelimit.CategorySearch); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Search.Timeout)
	defer cancel()

	result, err := s.orchestrator.Search(ctx, search.Request{
		StoreName: storeName,
		Query:     query,
		Params:    s.params,
	})
	if err != nil {
		s.logger.Warn("search failed", "request_id", requestID, "store", storeName, "err", err)
		return nil, err
	}
	s.logger.Info("search answered", "request_id", requestID, "store", storeName,
		"cache_hit", result.CacheHit, "citations", len(result.Citations), "latency", result.Latency)
	return result, nil
}

// CacheStats returns a consistent view of the result cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Snapshot()
}

// MetricsSnapshot returns all counters and histograms, folding in the
// cache and rate-limiter state at call time.
func (s *Service) MetricsSnapshot() metrics.Snapshot {
	stats := s.cache.Snapshot()
	s.collector.Set("cache_hits", stats.Hits)
	s.collector.Set("cache_misses", stats.Misses)
	s.collector.Set("cache_size", uint64(stats.Size))
	for category, n := range s.limiter.Rejections() {
		s.collector.Set("ratelimit_rejections_"+string(category), n)
	}
	return s.collector.Snapshot()
}

// PrometheusCollector returns a prometheus-compatible view of the service
// metrics. Each scrape pulls a fresh snapshot including cache and limiter
// state.
func (s *Service) PrometheusCollector() prometheus.Collector {
	return metrics.NewBridge(s.MetricsSnapshot, "filesearch")
}

// Registry exposes the store registry for callers needing direct access.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Close releases the worker pool, the AI provider, and the storage backend.
// The service should not be used after calling Close.
func (s *Service) Close() error {
	s.pipeline.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing storage repository", "err", err)
		return err
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}
