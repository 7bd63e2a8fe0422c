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


package search

import "errors"

var (
	// ErrRegistryRequired is returned when a store registry is not provided.
	ErrRegistryRequired = errors.New("store registry required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrContextSourceRequired is returned when a context source is not provided.
	ErrContextSourceRequired = errors.New("context source required")

	// ErrUpstream is returned when the generation collaborator fails after
	// the automatic retry.
	ErrUpstream = errors.New("upstream generation failed")

	// ErrUpstreamTimeout is returned when the generation collaborator exceeds
	// the request deadline.
	ErrUpstreamTimeout = errors.New("upstream generation timed out")
)
