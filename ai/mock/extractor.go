package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/sovdef/filesearch/ai"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, uses default behavior: the data is treated as UTF-8 text
	// regardless of MIME type.
	ExtractFunc func(ctx context.Context, data []byte, mimeType string) ([]string, error)

	mu        sync.Mutex
	callCount int
}

var _ ai.Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with default behavior.
// Note: returns concrete type to allow test assertions.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract treats any payload as text, splitting it into paragraph chunks.
func (m *MockExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, data, mimeType)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return []string{}, nil
	}
	return ai.ChunkText(text), nil
}

// CallCount returns the number of Extract calls so far.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractFunc = nil
}
