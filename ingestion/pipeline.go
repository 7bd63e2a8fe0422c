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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/metrics"
	"github.com/sovdef/filesearch/registry"
	"github.com/sovdef/filesearch/storage"
)

// DefaultUploadTimeout bounds a single file upload.
const DefaultUploadTimeout = 60 * time.Second

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// BatchResult is the outcome for one file of a batch upload.
type BatchResult struct {
	Filename   string
	Descriptor *core.FileDescriptor
	Err        error
}

// Pipeline validates and ingests uploads into document stores.
// Validation occurs fully before any mutation: a file that fails any check
// leaves no trace in the registry or storage.
type Pipeline struct {
	registry      *registry.Registry
	repository    storage.StoreRepository
	extractor     ai.Extractor
	pool          *ants.Pool
	collector     *metrics.Collector
	maxFileSize   int64
	uploadTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for batch uploads.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics sets the collector that receives upload counters and latency
// observations.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) error {
		if collector != nil {
			p.collector = collector
		}
		return nil
	}
}

// WithMaxFileSize overrides the per-file size limit.
// Non-positive values keep the default.
func WithMaxFileSize(limit int64) Option {
	return func(p *Pipeline) error {
		if limit > 0 {
			p.maxFileSize = limit
		}
		return nil
	}
}

// WithUploadTimeout overrides the per-file upload deadline.
func WithUploadTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.uploadTimeout = timeout
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	reg *registry.Registry,
	repository storage.StoreRepository,
	extractor ai.Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry:      reg,
		repository:    repository,
		extractor:     extractor,
		pool:          pool,
		collector:     metrics.NewCollector(),
		maxFileSize:   core.DefaultMaxFileSize,
		uploadTimeout: DefaultUploadTimeout,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// UploadFile validates and ingests a single file into the named store.
// The store is held referenced for the duration so a concurrent delete fails
// fast with ErrStoreBusy instead of racing the upload.
func (p *Pipeline) UploadFile(ctx context.Context, storeName string, upload Upload, overwrite bool) (*core.FileDescriptor, error) {
	start := time.Now()
	p.collector.Inc("ingest_uploads")

	ctx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()

	clean, err := core.ValidateUpload(upload.Filename, int64(len(upload.Data)), upload.MimeType, p.maxFileSize)
	if err != nil {
		p.collector.Inc("ingest_errors_validation")
		return nil, err
	}
	mimeType := core.NormalizeMimeType(upload.MimeType)

	if err := p.registry.Acquire(storeName); err != nil {
		p.collector.Inc("ingest_errors_store")
		return nil, err
	}
	defer p.registry.Release(storeName)

	// Confirm the document is extractable before any mutation.
	if _, err := p.extractor.Extract(ctx, upload.Data, mimeType); err != nil {
		p.collector.Inc("ingest_errors_extraction")
		return nil, fmt.Errorf("extracting %q: %w", clean, err)
	}

	store, err := p.registry.Get(storeName)
	if err != nil {
		p.collector.Inc("ingest_errors_store")
		return nil, err
	}
	prior := store.FindFile(clean)

	fd := core.FileDescriptor{
		Name:        clean,
		Size:        int64(len(upload.Data)),
		MimeType:    mimeType,
		ContentHash: core.IDFromBytes(upload.Data),
		UploadedAt:  time.Now().UTC(),
	}

	if err := p.registry.AddFile(ctx, storeName, fd, overwrite); err != nil {
		p.collector.Inc("ingest_errors_conflict")
		return nil, err
	}

	if err := p.repository.PutFileData(ctx, storeName, clean, upload.Data); err != nil {
		// Undo the registration so the store never lists a file whose
		// bytes were not persisted.
		p.rollbackDescriptor(storeName, clean, prior)
		p.collector.Inc("ingest_errors_storage")
		return nil, fmt.Errorf("persisting %q: %w", clean, err)
	}

	p.collector.Add("ingest_bytes", uint64(fd.Size))
	p.collector.ObserveDuration("upload_latency_seconds", time.Since(start))
	p.logger.Info("file ingested", "store", storeName, "file", clean, "size", fd.Size, "mime", mimeType)
	return &fd, nil
}

// rollbackDescriptor restores the store's file list after a failed bytes
// persist: the fresh descriptor is removed, or the prior one reinstated.
func (p *Pipeline) rollbackDescriptor(storeName, filename string, prior *core.FileDescriptor) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if prior != nil {
		err = p.registry.AddFile(ctx, storeName, *prior, true)
	} else {
		err = p.registry.RemoveFile(ctx, storeName, filename)
	}
	if err != nil {
		p.logger.Error("rollback after failed persist", "store", storeName, "file", filename, "err", err)
	}
}

// UploadBatch ingests several files concurrently on the worker pool.
// Results are returned in input order; each file succeeds or fails on its
// own, and a failed file never aborts the rest of the batch.
func (p *Pipeline) UploadBatch(ctx context.Context, storeName string, uploads []Upload, overwrite bool) ([]BatchResult, error) {
	if len(uploads) == 0 {
		return nil, ErrEmptyBatch
	}
	p.collector.Inc("ingest_batches")

	results := make([]BatchResult, len(uploads))
	var wg sync.WaitGroup
	for i := range uploads {
		i := i
		results[i].Filename = uploads[i].Filename
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			fd, err := p.UploadFile(ctx, storeName, uploads[i], overwrite)
			results[i].Descriptor = fd
			results[i].Err = err
		}); err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	return results, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
