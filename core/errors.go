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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidFilename indicates a filename failed safety validation.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrFileSizeExceeded indicates a payload is larger than the configured maximum.
	ErrFileSizeExceeded = errors.New("file size exceeded")

	// ErrUnsupportedFileType indicates a MIME type outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyQuery indicates an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrInvalidQuery indicates a search query failed safety validation.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrInternal indicates an unexpected invariant violation.
	// Callers see this generic error; detail goes to the log only.
	ErrInternal = errors.New("internal error")
)
