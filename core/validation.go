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

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Validation limits and defaults.
const (
	// DefaultMaxFileSize is the default upload size limit (50 MB).
	DefaultMaxFileSize int64 = 50 << 20

	// MaxFilenameLength is the longest accepted filename.
	MaxFilenameLength = 255

	// MaxQueryLength is the longest accepted search query.
	MaxQueryLength = 1000

	// MaxSearchResults caps the number of results a search request may ask for.
	MaxSearchResults = 100
)

// AllowedMimeTypes is the default MIME allow-list for uploads.
var AllowedMimeTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/markdown",
}

// mimeAliases maps common alternate spellings to their canonical type.
var mimeAliases = map[string]string{
	"text/x-markdown":   "text/markdown",
	"text/md":           "text/markdown",
	"application/x-pdf": "application/pdf",
}

// reservedFilenames are device names rejected regardless of extension.
var reservedFilenames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// queryInjectionPatterns are rejected in search queries. Unicode text is
// otherwise accepted as-is.
var queryInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// ValidateFilename checks an upload filename for safety and returns the
// trimmed name.
//
// Rejected:
//   - empty or whitespace-only names
//   - any path separator or parent-directory sequence
//   - names beginning with "." (hidden files, including ".env")
//   - characters invalid on common filesystems, including control characters
//   - reserved device names such as "con" or "nul"
//   - names longer than MaxFilenameLength
func ValidateFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidFilename)
	}
	if len(name) > MaxFilenameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidFilename, MaxFilenameLength)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: path separator in %q", ErrInvalidFilename, name)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: parent directory sequence in %q", ErrInvalidFilename, name)
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: hidden file %q", ErrInvalidFilename, name)
	}
	if invalidFilenameChars.MatchString(name) {
		return "", fmt.Errorf("%w: invalid characters in %q", ErrInvalidFilename, name)
	}
	base := strings.ToLower(name)
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	if reservedFilenames[base] {
		return "", fmt.Errorf("%w: reserved name %q", ErrInvalidFilename, name)
	}
	return name, nil
}

// SanitizeFilename produces a safe basename from an arbitrary input.
// Path components and parent-directory sequences are dropped, leading dots
// are stripped, and invalid characters are replaced with underscores.
// Returns "unnamed" if nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.TrimLeft(name, ".")
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "/" {
		return "unnamed"
	}
	return name
}

// ValidateFileSize checks a payload size against the configured maximum.
// A maxSize of zero or below falls back to DefaultMaxFileSize.
func ValidateFileSize(size, maxSize int64, filename string) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size < 0 {
		return fmt.Errorf("%w: negative size for %q", ErrFileSizeExceeded, filename)
	}
	if size > maxSize {
		return fmt.Errorf("%w: %q is %.2f MB, limit is %.2f MB",
			ErrFileSizeExceeded, filename, bytesToMB(size), bytesToMB(maxSize))
	}
	return nil
}

func bytesToMB(n int64) float64 {
	return float64(n) / (1 << 20)
}

// NormalizeMimeType lowercases a MIME type, strips parameters, and resolves
// known aliases to their canonical form.
func NormalizeMimeType(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if semi := strings.IndexByte(mimeType, ';'); semi >= 0 {
		mimeType = strings.TrimSpace(mimeType[:semi])
	}
	if canonical, ok := mimeAliases[mimeType]; ok {
		return canonical
	}
	return mimeType
}

// ValidateMimeType checks a MIME type against the allow-list.
// If allowed is empty, AllowedMimeTypes is used.
func ValidateMimeType(mimeType string, allowed ...string) error {
	if len(allowed) == 0 {
		allowed = AllowedMimeTypes
	}
	normalized := NormalizeMimeType(mimeType)
	for _, a := range allowed {
		if normalized == NormalizeMimeType(a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFileType, mimeType)
}

// ValidateQuery checks a search query for emptiness, length, and unsafe
// content. Returns the trimmed query.
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return "", fmt.Errorf("%w: query exceeds %d characters", ErrInvalidQuery, MaxQueryLength)
	}
	for _, r := range query {
		if r < 0x20 && r != '\t' && r != '\n' || r == 0x7f {
			return "", fmt.Errorf("%w: control character in query", ErrInvalidQuery)
		}
	}
	for _, pattern := range queryInjectionPatterns {
		if pattern.MatchString(query) {
			return "", fmt.Errorf("%w: query contains suspicious patterns", ErrInvalidQuery)
		}
	}
	return query, nil
}

// ValidateUpload runs the upload validation chain in order: filename, size,
// MIME type. The first failure determines the returned error kind; nothing is
// mutated on failure. Returns the validated filename.
func ValidateUpload(filename string, size int64, mimeType string, maxSize int64, allowedMimes ...string) (string, error) {
	clean, err := ValidateFilename(filename)
	if err != nil {
		return "", err
	}
	if err := ValidateFileSize(size, maxSize, clean); err != nil {
		return "", err
	}
	if err := ValidateMimeType(mimeType, allowedMimes...); err != nil {
		return "", err
	}
	return clean, nil
}

// ValidateSearchRequest validates a query and caps the requested result count
// at MaxSearchResults. A non-positive maxResults falls back to the cap.
func ValidateSearchRequest(query string, maxResults int) (string, int, error) {
	clean, err := ValidateQuery(query)
	if err != nil {
		return "", 0, err
	}
	if maxResults <= 0 || maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}
	return clean, maxResults, nil
}
