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


// Package search orchestrates answering queries against document stores.
//
// The Orchestrator type drives each request through a fixed sequence:
//   - Query validation and normalization
//   - Cached-result lookup keyed by a deterministic fingerprint
//   - Single-flight de-duplication of concurrent identical requests
//   - Answer generation through the AI collaborator
//   - Citation ranking and capping
//
// Successful results are cached with a TTL; errors never are. When several
// callers issue the same request concurrently, exactly one of them (the
// leader) calls the generator and the rest attach as waiters, receiving the
// leader's result or error.
package search
