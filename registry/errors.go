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


package registry

import "errors"

var (
	// ErrEmptyStoreName indicates a store name that is empty or whitespace.
	ErrEmptyStoreName = errors.New("store name cannot be empty")

	// ErrStoreNotFound indicates the named store does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrStoreConflict indicates the store name is already taken.
	ErrStoreConflict = errors.New("store already exists")

	// ErrStoreBusy indicates a delete was attempted while the store is
	// referenced by an in-flight upload or search. The caller may retry.
	ErrStoreBusy = errors.New("store busy")

	// ErrFileConflict indicates the filename already exists in the store
	// and overwrite was not requested.
	ErrFileConflict = errors.New("file already exists in store")

	// ErrFileNotFound indicates the named file is not in the store.
	ErrFileNotFound = errors.New("file not found in store")
)
