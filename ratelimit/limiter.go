package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Category classifies a request for limiting purposes. Each category has an
// independent limit.
type Category string

// Request categories.
const (
	CategoryUpload      Category = "upload"
	CategoryBatchUpload Category = "batch_upload"
	CategorySearch      Category = "search"
	CategoryManagement  Category = "store_management"
)

// DefaultWindow is the counting window used when none is configured.
const DefaultWindow = time.Minute

// Limits maps categories to their per-window request limits.
type Limits map[Category]int

// DefaultLimits returns the standard per-minute limits.
func DefaultLimits() Limits {
	return Limits{
		CategoryUpload:      10,
		CategoryBatchUpload: 5,
		CategorySearch:      100,
		CategoryManagement:  20,
	}
}

// Decision is the outcome of an Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int           // Requests left in the current window
	RetryAfter time.Duration // Time until the window resets; zero when allowed
}

// LimitError reports a rejected request with its retry hint.
type LimitError struct {
	Category   Category
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %ds",
		e.Category, int(e.RetryAfter.Seconds()))
}

func (e *LimitError) Unwrap() error { return ErrRateLimited }

type bucketKey struct {
	client   string
	category Category
}

type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter is a fixed-window request counter keyed by (client, category).
type Limiter struct {
	mu         sync.Mutex
	window     time.Duration
	limits     Limits
	buckets    map[bucketKey]*bucket
	rejections map[Category]uint64
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a limiter. A non-positive window falls back to DefaultWindow;
// nil limits fall back to DefaultLimits.
func New(window time.Duration, limits Limits, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limits == nil {
		limits = DefaultLimits()
	}
	l := &Limiter{
		window:     window,
		limits:     limits,
		buckets:    make(map[bucketKey]*bucket),
		rejections: make(map[Category]uint64),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request for the (client, category) pair and reports
// whether it is within the limit. Rejections carry the time until the
// current window resets. Crossing the window boundary resets the count to
// zero before counting the request.
func (l *Limiter) Allow(clientID string, category Category) Decision {
	limit, ok := l.limits[category]
	if !ok || limit <= 0 {
		// Unconfigured categories are unlimited.
		return Decision{Allowed: true, Remaining: -1}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := bucketKey{client: clientID, category: category}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	} else if now.Sub(b.windowStart) >= l.window {
		// Window boundary crossed: compare-and-reset.
		b.windowStart = now
		b.count = 0
	}

	if b.count >= limit {
		retryAfter := b.windowStart.Add(l.window).Sub(now)
		l.rejections[category]++
		l.logger.Debug("rate limit exceeded",
			"client", clientID, "category", string(category),
			"limit", limit, "retry_after", retryAfter)
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	b.count++
	return Decision{Allowed: true, Remaining: limit - b.count}
}

// Rejections returns the number of rejected requests per category since
// construction.
func (l *Limiter) Rejections() map[Category]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[Category]uint64, len(l.rejections))
	for c, n := range l.rejections {
		out[c] = n
	}
	return out
}

// Prune drops buckets whose window elapsed at least one full window ago.
// Callers may invoke this periodically to bound memory on long-running
// processes with many distinct clients.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	pruned := 0
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= 2*l.window {
			delete(l.buckets, key)
			pruned++
		}
	}
	return pruned
}
