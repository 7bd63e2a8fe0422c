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


// Package cache provides an in-memory LRU cache with per-entry TTL.
//
// Entries are keyed by content fingerprints and carry the name of the
// document store that produced them, so that deleting a store can invalidate
// every cached answer derived from it. The cache tracks hit/miss statistics
// and never exceeds its configured capacity: inserting into a full cache
// evicts the least-recently-used entry first.
//
// The cache is volatile. Nothing survives a process restart.
package cache
