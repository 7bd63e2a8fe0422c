package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/sovdef/filesearch/core"
)

// DefaultCapacity is the entry limit used when none is configured.
const DefaultCapacity = 1000

// Store is a thread-safe LRU cache with per-entry TTL and store-scoped
// invalidation. The zero value is not usable; construct with New.
type Store[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[core.ID]*list.Element
	order    *list.List // front = most recently used
	hits     uint64
	misses   uint64
	now      func() time.Time
	logger   *slog.Logger
}

type entry[V any] struct {
	key        core.ID
	owner      string // owning document store, for scoped invalidation
	value      V
	createdAt  time.Time
	lastAccess time.Time
	expiresAt  time.Time
}

// Stats is a point-in-time snapshot of cache bookkeeping.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(s *Store[V]) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(s *Store[V]) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a cache with the given capacity and default TTL.
// A non-positive capacity falls back to DefaultCapacity.
func New[V any](capacity int, defaultTTL time.Duration, opts ...Option[V]) *Store[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store[V]{
		capacity: capacity,
		ttl:      defaultTTL,
		entries:  make(map[core.ID]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value for key. An entry past its TTL counts as a
// miss: it is removed and never returned. Exactly one hit or miss counter is
// incremented per call. Recency is updated only on a successful hit.
func (s *Store[V]) Get(key core.ID) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	el, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}

	e := el.Value.(*entry[V])
	if !s.now().Before(e.expiresAt) {
		// Expired. Found-then-evicted is not an access.
		s.removeLocked(el)
		s.misses++
		return zero, false
	}

	e.lastAccess = s.now()
	s.order.MoveToFront(el)
	s.hits++
	return e.value, true
}

// Put inserts or replaces the value for key with the given TTL.
// A non-positive ttl falls back to the store default. When the cache is at
// capacity, the least-recently-used entry is evicted before insertion.
// Concurrent puts for the same key are last-writer-wins.
func (s *Store[V]) Put(key core.ID, owner string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry[V])
		e.owner = owner
		e.value = value
		e.createdAt = now
		e.lastAccess = now
		e.expiresAt = now.Add(ttl)
		s.order.MoveToFront(el)
		return
	}

	if s.order.Len() >= s.capacity {
		if back := s.order.Back(); back != nil {
			evicted := back.Value.(*entry[V])
			s.removeLocked(back)
			s.logger.Debug("evicted least-recently-used cache entry",
				"key", uint64(evicted.key), "owner", evicted.owner)
		}
	}

	el := s.order.PushFront(&entry[V]{
		key:        key,
		owner:      owner,
		value:      value,
		createdAt:  now,
		lastAccess: now,
		expiresAt:  now.Add(ttl),
	})
	s.entries[key] = el
}

// InvalidateStore removes every entry owned by the named document store.
// Returns the number of entries removed.
func (s *Store[V]) InvalidateStore(storeName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry[V]).owner == storeName {
			s.removeLocked(el)
			removed++
		}
		el = next
	}
	if removed > 0 {
		s.logger.Debug("invalidated cache entries for store",
			"store", storeName, "count", removed)
	}
	return removed
}

// Invalidate removes a single entry by key. Reports whether it was present.
func (s *Store[V]) Invalidate(key core.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(el)
	return true
}

// Clear removes all entries. Statistics are preserved.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[core.ID]*list.Element, s.capacity)
	s.order.Init()
}

// Len returns the current number of entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Snapshot returns current size and hit/miss counters.
func (s *Store[V]) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Size:     s.order.Len(),
		Capacity: s.capacity,
		Hits:     s.hits,
		Misses:   s.misses,
	}
}

// ResetStats zeroes the hit/miss counters without touching entries.
func (s *Store[V]) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = 0
	s.misses = 0
}

func (s *Store[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(s.entries, e.key)
	s.order.Remove(el)
}
