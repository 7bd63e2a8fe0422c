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


// Package storage defines persistence interfaces for document store metadata
// and uploaded file bytes, along with the binary serialization used by
// implementations.
//
// Only store metadata and file data persist across restarts. The result
// cache and the rate limiter are explicitly volatile and live elsewhere.
//
// The concrete BadgerDB implementation lives in storage/badger.
package storage
