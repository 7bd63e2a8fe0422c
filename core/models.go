package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	return IDFromBytes([]byte(text))
}

// IDFromBytes generates a deterministic ID from raw bytes using BLAKE2b hashing.
// Used for content hashes of uploaded file data.
func IDFromBytes(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// GenerationParams are the model parameters that shape a generated answer.
// They participate in cache fingerprinting: two requests with different
// parameters must never share a cached result.
type GenerationParams struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

// Fingerprint derives a deterministic cache key from the store name, the
// normalized query text, and the generation parameters. Identical requests
// collapse to the identical fingerprint.
func Fingerprint(storeName, normalizedQuery string, params GenerationParams) ID {
	// Length-framed fields so that ("ab","c") and ("a","bc") cannot collide.
	var b []byte
	for _, field := range []string{
		storeName,
		normalizedQuery,
		params.Model,
		strconv.FormatFloat(params.Temperature, 'g', -1, 64),
		strconv.Itoa(params.MaxOutputTokens),
	} {
		b = strconv.AppendInt(b, int64(len(field)), 10)
		b = append(b, ':')
		b = append(b, field...)
	}
	return IDFromBytes(b)
}

// FileDescriptor describes a single uploaded file within a store.
// It is created on successful upload validation and immutable thereafter.
type FileDescriptor struct {
	Name        string
	Size        int64
	MimeType    string
	ContentHash ID
	UploadedAt  time.Time
}

// Store is a named, isolated collection of uploaded documents.
// Store names are unique and case-sensitive.
type Store struct {
	Name      string
	CreatedAt time.Time
	Files     []FileDescriptor
}

// FindFile returns the descriptor with the given name, or nil if absent.
func (s *Store) FindFile(name string) *FileDescriptor {
	for i := range s.Files {
		if s.Files[i].Name == name {
			return &s.Files[i]
		}
	}
	return nil
}

// Citation references a source document fragment supporting a generated answer.
type Citation struct {
	Source  string  // Filename of the cited document
	Snippet string  // Supporting text fragment
	Score   float32 // Relevance score, higher is more relevant
}

// SearchResult is the answer to a search request with its supporting citations.
type SearchResult struct {
	Answer    string
	Citations []Citation
	CacheHit  bool
	Latency   time.Duration
}
