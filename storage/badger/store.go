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


package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
)

// StoreRepository implements storage.StoreRepository on BadgerDB.
type StoreRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.StoreRepository = (*StoreRepository)(nil)

// NewStoreRepository creates a repository over the given backend.
func NewStoreRepository(backend *Backend) (*StoreRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &StoreRepository{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store-repository"),
	}, nil
}

// PutStore writes or replaces a store's metadata.
func (r *StoreRepository) PutStore(_ context.Context, store *core.Store) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set(makeStoreKey(store.Name), storage.MarshalStore(store))
	}, true)
}

// GetStore retrieves a store's metadata by name.
func (r *StoreRepository) GetStore(_ context.Context, name string) (*core.Store, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var store *core.Store
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeStoreKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			store, err = storage.UnmarshalStore(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ListStores retrieves metadata for every persisted store.
func (r *StoreRepository) ListStores(_ context.Context) ([]*core.Store, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var stores []*core.Store
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(storeMetaPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				store, err := storage.UnmarshalStore(val)
				if err != nil {
					return err
				}
				stores = append(stores, store)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stores, nil
}

// DeleteStore removes a store's metadata and all of its file data.
func (r *StoreRepository) DeleteStore(_ context.Context, name string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeStoreKey(name)
		if _, err := tx.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		} else if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}

		// Collect file data keys first; deleting during iteration is unsafe.
		var fileKeys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeFileDataScanPrefix(name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			fileKeys = append(fileKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, fk := range fileKeys {
			if err := tx.Delete(fk); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// PutFileData writes the raw bytes of an uploaded file.
func (r *StoreRepository) PutFileData(_ context.Context, storeName, filename string, data []byte) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set(makeFileDataKey(storeName, filename), data)
	}, true)
}

// GetFileData retrieves the raw bytes of an uploaded file.
func (r *StoreRepository) GetFileData(_ context.Context, storeName, filename string) ([]byte, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var data []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFileDataKey(storeName, filename))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close closes the repository. The backend is shared and closed by its owner.
func (r *StoreRepository) Close() error {
	return nil
}
