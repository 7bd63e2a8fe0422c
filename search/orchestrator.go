package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/cache"
	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/metrics"
	"github.com/sovdef/filesearch/registry"
)

const (
	// DefaultMaxCitations bounds the citation list returned to callers.
	DefaultMaxCitations = 5

	// DefaultResultTTL is how long a generated answer stays cached.
	DefaultResultTTL = 15 * time.Minute
)

// Request describes one search against a document store.
type Request struct {
	StoreName string
	Query     string
	Params    core.GenerationParams
}

// flight is one in-progress generation shared between a leader and its
// waiters. The leader fills result/err and closes done exactly once.
type flight struct {
	done   chan struct{}
	result core.SearchResult
	err    error
}

// Orchestrator answers search requests, de-duplicating identical concurrent
// requests and caching successful results.
type Orchestrator struct {
	registry      *registry.Registry
	cache         *cache.Store[core.SearchResult]
	generator     ai.Generator
	contextSource ContextSource
	collector     *metrics.Collector
	maxCitations  int
	resultTTL     time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	inflight map[core.ID]*flight
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithMetrics sets the collector that receives request counters and latency
// observations.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Orchestrator) error {
		if collector != nil {
			o.collector = collector
		}
		return nil
	}
}

// WithMaxCitations overrides the citation cap. Non-positive values keep the
// default.
func WithMaxCitations(n int) Option {
	return func(o *Orchestrator) error {
		if n > 0 {
			o.maxCitations = n
		}
		return nil
	}
}

// WithResultTTL overrides how long generated answers stay cached.
func WithResultTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) error {
		if ttl > 0 {
			o.resultTTL = ttl
		}
		return nil
	}
}

// NewOrchestrator creates a new search orchestrator.
func NewOrchestrator(
	reg *registry.Registry,
	resultCache *cache.Store[core.SearchResult],
	generator ai.Generator,
	contextSource ContextSource,
	opts ...Option,
) (*Orchestrator, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if contextSource == nil {
		return nil, ErrContextSourceRequired
	}
	if resultCache == nil {
		resultCache = cache.New[core.SearchResult](cache.DefaultCapacity, DefaultResultTTL)
	}

	o := &Orchestrator{
		registry:      reg,
		cache:         resultCache,
		generator:     generator,
		contextSource: contextSource,
		collector:     metrics.NewCollector(),
		maxCitations:  DefaultMaxCitations,
		resultTTL:     DefaultResultTTL,
		logger:        slog.Default(),
		inflight:      make(map[core.ID]*flight),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Search answers the request, consulting the result cache first.
func (o *Orchestrator) Search(ctx context.Context, req Request) (*core.SearchResult, error) {
	return o.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor answers the request with lifecycle monitoring.
// The monitor receives callbacks at each stage of the request.
func (o *Orchestrator) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	monitor.Start(req.StoreName, req.Query)
	o.collector.Inc("search_requests")

	query, err := core.ValidateQuery(req.Query)
	if err != nil {
		o.collector.Inc("search_errors_validation")
		monitor.Failed(err)
		return nil, err
	}

	store, err := o.registry.Get(req.StoreName)
	if err != nil {
		o.collector.Inc("search_errors_store")
		monitor.Failed(err)
		return nil, err
	}

	normalized := normalizeQuery(query)
	key := core.Fingerprint(store.Name, normalized, req.Params)

	if cached, ok := o.cache.Get(key); ok {
		monitor.CacheHit(key)
		result := cached
		result.CacheHit = true
		result.Latency = time.Since(start)
		o.collector.ObserveDuration("search_latency_seconds", result.Latency)
		monitor.Finish(&result)
		return &result, nil
	}
	monitor.CacheMiss(key)

	o.mu.Lock()
	if f, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		monitor.Attached(key)
		o.collector.Inc("search_coalesced")
		return o.await(ctx, f, start, monitor)
	}
	f := &flight{done: make(chan struct{})}
	o.inflight[key] = f
	o.mu.Unlock()

	// Leader path. The slot must be cleared and done closed on every exit.
	result, err := o.lead(ctx, query, store, req.Params, monitor)
	f.err = err
	if err == nil {
		f.result = *result
		o.cache.Put(key, store.Name, *result, o.resultTTL)
	}
	o.mu.Lock()
	delete(o.inflight, key)
	o.mu.Unlock()
	close(f.done)

	if err != nil {
		o.logger.Error("search failed", "store", req.StoreName, "err", err)
		monitor.Failed(err)
		return nil, err
	}

	out := *result
	out.Latency = time.Since(start)
	o.collector.ObserveDuration("search_latency_seconds", out.Latency)
	monitor.Finish(&out)
	return &out, nil
}

// await blocks until the leader completes or the caller's context ends.
func (o *Orchestrator) await(ctx context.Context, f *flight, start time.Time, monitor SearchMonitor) (*core.SearchResult, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		monitor.Failed(ctx.Err())
		return nil, ctx.Err()
	}
	if f.err != nil {
		monitor.Failed(f.err)
		return nil, f.err
	}
	result := f.result
	result.Latency = time.Since(start)
	o.collector.ObserveDuration("search_latency_seconds", result.Latency)
	monitor.Finish(&result)
	return &result, nil
}

// lead runs the generation for a cache miss: build the store context, call
// the generator (retrying once on a transient failure), and rank citations.
func (o *Orchestrator) lead(ctx context.Context, query string, store *core.Store, params core.GenerationParams, monitor SearchMonitor) (*core.SearchResult, error) {
	// Hold a reference so the store cannot be deleted mid-generation.
	if err := o.registry.Acquire(store.Name); err != nil {
		o.collector.Inc("search_errors_store")
		return nil, err
	}
	defer o.registry.Release(store.Name)

	storeCtx, err := o.contextSource.StoreContext(ctx, store)
	if err != nil {
		o.collector.Inc("search_errors_context")
		return nil, fmt.Errorf("building store context: %w", err)
	}

	genStart := time.Now()
	generation, attempts, err := o.generate(ctx, query, storeCtx, params)
	o.collector.ObserveDuration("generation_latency_seconds", time.Since(genStart))
	if err != nil {
		return nil, err
	}
	monitor.Generated(attempts)

	return &core.SearchResult{
		Answer:    generation.Answer,
		Citations: o.rankCitations(generation.Citations),
	}, nil
}

// generate calls the collaborator, retrying exactly once on a transient
// failure. Deadline and cancellation errors are terminal and never retried.
func (o *Orchestrator) generate(ctx context.Context, query string, storeCtx ai.StoreContext, params core.GenerationParams) (*ai.Generation, int, error) {
	attempts := 0
	var lastErr error
	for attempts < 2 {
		attempts++
		generation, err := o.generator.Generate(ctx, query, storeCtx, params)
		if err == nil {
			return generation, attempts, nil
		}
		lastErr = err

		if errors.Is(err, context.DeadlineExceeded) {
			o.collector.Inc("search_errors_timeout")
			return nil, attempts, fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
		}
		if errors.Is(err, context.Canceled) {
			o.collector.Inc("search_errors_canceled")
			return nil, attempts, err
		}
		o.logger.Warn("generation attempt failed", "attempt", attempts, "err", err)
		if attempts < 2 {
			o.collector.Inc("search_upstream_retries")
		}
	}
	o.collector.Inc("search_errors_upstream")
	return nil, attempts, fmt.Errorf("%w: %w", ErrUpstream, lastErr)
}

// rankCitations orders citations by relevance descending, keeping the
// upstream order for equal scores, and caps the list.
func (o *Orchestrator) rankCitations(citations []core.Citation) []core.Citation {
	ranked := make([]core.Citation, len(citations))
	copy(ranked, citations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > o.maxCitations {
		ranked = ranked[:o.maxCitations]
	}
	return ranked
}

// InflightCount reports the number of in-progress generations.
func (o *Orchestrator) InflightCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}
