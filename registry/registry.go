package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
)

// ResultInvalidator drops cached search results owned by a store.
// Satisfied by the result cache.
type ResultInvalidator interface {
	InvalidateStore(storeName string) int
}

type storeEntry struct {
	store core.Store
	refs  int // in-flight uploads/searches referencing this store
}

// Registry manages named document stores and their file descriptors.
type Registry struct {
	mu          sync.RWMutex
	stores      map[string]*storeEntry
	invalidator ResultInvalidator
	repo        storage.StoreRepository // optional persistence
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// WithInvalidator wires the cache invalidation hook fired on store deletion.
func WithInvalidator(inv ResultInvalidator) Option {
	return func(r *Registry) {
		r.invalidator = inv
	}
}

// WithRepository wires a persistence backend for store metadata.
// Without one, the registry is purely in-memory.
func WithRepository(repo storage.StoreRepository) Option {
	return func(r *Registry) {
		r.repo = repo
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		stores: make(map[string]*storeEntry),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load populates the registry from the persistence backend.
// Call once at startup, before serving requests.
func (r *Registry) Load(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	stores, err := r.repo.ListStores(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted stores: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stores {
		r.stores[s.Name] = &storeEntry{store: *s}
	}
	r.logger.Info("loaded persisted stores", "count", len(stores))
	return nil
}

// Create registers a new store. Names are case-sensitive and must be
// non-empty; anything else is unconstrained. Returns ErrStoreConflict if the
// name is taken.
func (r *Registry) Create(ctx context.Context, name string) (*core.Store, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyStoreName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrStoreConflict, name)
	}

	entry := &storeEntry{store: core.Store{Name: name, CreatedAt: r.now().UTC()}}
	if r.repo != nil {
		if err := r.repo.PutStore(ctx, &entry.store); err != nil {
			return nil, fmt.Errorf("persisting store %q: %w", name, err)
		}
	}
	r.stores[name] = entry
	r.logger.Info("created store", "store", name)

	s := entry.store
	return &s, nil
}

// Delete removes a store and all its file descriptors, then invalidates
// every cached result owned by it. If the store is referenced by an
// in-flight upload or search, Delete fails fast with ErrStoreBusy; the
// caller may retry.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, exists := r.stores[name]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStoreNotFound, name)
	}
	if entry.refs > 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q has %d in-flight references", ErrStoreBusy, name, entry.refs)
	}
	delete(r.stores, name)
	r.mu.Unlock()

	// Invalidation and persistence happen outside the lock; the store is
	// already unreachable, so no new references can form.
	if r.invalidator != nil {
		removed := r.invalidator.InvalidateStore(name)
		r.logger.Debug("invalidated cached results", "store", name, "count", removed)
	}
	if r.repo != nil {
		if err := r.repo.DeleteStore(ctx, name); err != nil {
			return fmt.Errorf("removing persisted store %q: %w", name, err)
		}
	}
	r.logger.Info("deleted store", "store", name)
	return nil
}

// List returns a sorted snapshot of store names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named store's metadata.
func (r *Registry) Get(name string) (*core.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrStoreNotFound, name)
	}
	s := entry.store
	s.Files = append([]core.FileDescriptor(nil), entry.store.Files...)
	return &s, nil
}

// AddFile appends a descriptor to the named store. A descriptor whose
// filename already exists is rejected with ErrFileConflict unless overwrite
// is requested.
func (r *Registry) AddFile(ctx context.Context, storeName string, fd core.FileDescriptor, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.stores[storeName]
	if !exists {
		return fmt.Errorf("%w: %q", ErrStoreNotFound, storeName)
	}

	replaced := -1
	var prior core.FileDescriptor
	for i := range entry.store.Files {
		if entry.store.Files[i].Name == fd.Name {
			if !overwrite {
				return fmt.Errorf("%w: %q in store %q", ErrFileConflict, fd.Name, storeName)
			}
			prior = entry.store.Files[i]
			entry.store.Files[i] = fd
			replaced = i
			break
		}
	}
	if replaced < 0 {
		entry.store.Files = append(entry.store.Files, fd)
	}

	if r.repo != nil {
		if err := r.repo.PutStore(ctx, &entry.store); err != nil {
			// Roll back the in-memory mutation so state stays consistent.
			if replaced >= 0 {
				entry.store.Files[replaced] = prior
			} else {
				entry.store.Files = entry.store.Files[:len(entry.store.Files)-1]
			}
			return fmt.Errorf("persisting store %q: %w", storeName, err)
		}
	}
	r.logger.Debug("added file to store", "store", storeName, "file", fd.Name, "overwrite", replaced >= 0)
	return nil
}

// RemoveFile deletes the named descriptor from the store.
// Returns ErrStoreNotFound if the store does not exist and ErrFileNotFound
// if the file is not in the store.
func (r *Registry) RemoveFile(ctx context.Context, storeName, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.stores[storeName]
	if !exists {
		return fmt.Errorf("%w: %q", ErrStoreNotFound, storeName)
	}

	idx := -1
	for i := range entry.store.Files {
		if entry.store.Files[i].Name == filename {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q in store %q", ErrFileNotFound, filename, storeName)
	}

	removed := entry.store.Files[idx]
	entry.store.Files = append(entry.store.Files[:idx], entry.store.Files[idx+1:]...)

	if r.repo != nil {
		if err := r.repo.PutStore(ctx, &entry.store); err != nil {
			entry.store.Files = append(entry.store.Files, core.FileDescriptor{})
			copy(entry.store.Files[idx+1:], entry.store.Files[idx:])
			entry.store.Files[idx] = removed
			return fmt.Errorf("persisting store %q: %w", storeName, err)
		}
	}
	r.logger.Debug("removed file from store", "store", storeName, "file", filename)
	return nil
}

// Acquire takes an in-flight reference on the store, blocking deletion until
// released. Returns ErrStoreNotFound if the store does not exist.
func (r *Registry) Acquire(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.stores[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrStoreNotFound, name)
	}
	entry.refs++
	return nil
}

// Release drops an in-flight reference taken with Acquire.
// Releasing an unknown or unreferenced store is a no-op.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.stores[name]; exists && entry.refs > 0 {
		entry.refs--
	}
}
