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


// Package registry manages the lifecycle of named document stores.
//
// A Registry owns the authoritative in-memory view of every store and its
// file descriptors. Structural operations (create, delete, add-file) are
// serialized; lookups proceed concurrently. Deleting a store invalidates
// every cached search result derived from it, so no stale answer can
// reference deleted documents.
//
// Deletion under contention fails fast: while an upload or search holds a
// reference to a store, Delete returns ErrStoreBusy instead of blocking.
// Callers retry. This keeps delete latency bounded at the cost of requiring
// retries, which is the policy this package commits to.
package registry
