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


// Package ai provides abstractions for the external model collaborators.
//
// The request-serving core treats answer generation and document text
// extraction as opaque, moderately slow, possibly-failing remote calls. This
// package defines their contracts:
//
//   - Generator: answers a query grounded in a store's documents, with
//     citations
//   - Extractor: converts uploaded file bytes into plain text chunks
//   - Provider: aggregates both for convenient initialization
//
// Implementation packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors return interface types to prevent coupling to a
// concrete provider; mock constructors return concrete types so tests can
// assert on call counts and inject behavior.
package ai
