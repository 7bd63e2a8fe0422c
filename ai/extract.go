package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxChunkRunes bounds the size of a single extracted chunk.
const maxChunkRunes = 2000

// TextExtractor extracts chunks from plain-text document formats.
// Binary formats (PDF, DOCX) require an external extraction service and are
// rejected with ErrUnsupportedExtraction.
type TextExtractor struct{}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates an extractor for plain-text formats.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract splits a text document into paragraph chunks.
func (e *TextExtractor) Extract(_ context.Context, data []byte, mimeType string) ([]string, error) {
	switch normalizeMime(mimeType) {
	case "text/plain", "text/markdown":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtraction, mimeType)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrUnsupportedExtraction)
	}

	chunks := ChunkText(string(data))
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	return chunks, nil
}

// ChunkText splits text into paragraph-sized chunks, further splitting any
// paragraph longer than maxChunkRunes.
func ChunkText(text string) []string {
	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > 0 {
			runes := []rune(para)
			if len(runes) <= maxChunkRunes {
				chunks = append(chunks, para)
				break
			}
			chunks = append(chunks, string(runes[:maxChunkRunes]))
			para = strings.TrimSpace(string(runes[maxChunkRunes:]))
		}
	}
	return chunks
}

func normalizeMime(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if semi := strings.IndexByte(mimeType, ';'); semi >= 0 {
		mimeType = strings.TrimSpace(mimeType[:semi])
	}
	switch mimeType {
	case "text/x-markdown", "text/md":
		return "text/markdown"
	}
	return mimeType
}
