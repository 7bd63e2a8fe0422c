package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default deterministic behavior.
	GenerateFunc func(ctx context.Context, query string, storeCtx ai.StoreContext, params core.GenerationParams) (*ai.Generation, error)

	// Delay is an artificial latency applied before answering.
	// Useful for exercising coalescing and timeout paths.
	Delay time.Duration

	mu        sync.Mutex
	callCount int
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default deterministic
// behavior.
// Note: returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate produces a deterministic answer citing every document in the
// store context.
func (m *MockGenerator) Generate(ctx context.Context, query string, storeCtx ai.StoreContext, params core.GenerationParams) (*ai.Generation, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, query, storeCtx, params)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gen := &ai.Generation{
		Answer: fmt.Sprintf("mock answer for %q in store %q", query, storeCtx.StoreName),
	}
	for i, doc := range storeCtx.Documents {
		snippet := ""
		if len(doc.Chunks) > 0 {
			snippet = doc.Chunks[0]
		}
		gen.Citations = append(gen.Citations, core.Citation{
			Source:  doc.Name,
			Snippet: snippet,
			Score:   1.0 - float32(i)*0.1,
		})
	}
	return gen, nil
}

// CallCount returns the number of Generate calls so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.GenerateFunc = nil
	m.Delay = 0
}
