package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.MaxSources)
	assert.Equal(t, 1024, cfg.MaxOutputTokens)
}

func TestNewConfig_AppliesOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://example:9000/v1"),
		WithModel("gpt-4o-mini"),
		WithAPIKey("sk-test"),
		WithTemperature(0.7),
		WithMaxOutputTokens(256),
		WithMaxSources(3),
	)

	assert.Equal(t, "http://example:9000/v1", cfg.Host)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 256, cfg.MaxOutputTokens)
	assert.Equal(t, 3, cfg.MaxSources)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"whitespace host", func(c *Config) { c.Host = "   " }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }},
		{"zero output tokens", func(c *Config) { c.MaxOutputTokens = 0 }},
		{"zero sources", func(c *Config) { c.MaxSources = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigParams(t *testing.T) {
	cfg := NewConfig(WithModel("m"), WithTemperature(0.5), WithMaxOutputTokens(128))
	params := cfg.Params()
	assert.Equal(t, "m", params.Model)
	assert.Equal(t, 0.5, params.Temperature)
	assert.Equal(t, 128, params.MaxOutputTokens)
}

func TestTextExtractor(t *testing.T) {
	e := NewTextExtractor()
	ctx := context.Background()

	t.Run("plain text", func(t *testing.T) {
		chunks, err := e.Extract(ctx, []byte("first paragraph\n\nsecond paragraph"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, []string{"first paragraph", "second paragraph"}, chunks)
	})

	t.Run("markdown alias", func(t *testing.T) {
		chunks, err := e.Extract(ctx, []byte("# Title"), "text/x-markdown")
		require.NoError(t, err)
		assert.Equal(t, []string{"# Title"}, chunks)
	})

	t.Run("binary format rejected", func(t *testing.T) {
		_, err := e.Extract(ctx, []byte("%PDF-1.4"), "application/pdf")
		assert.ErrorIs(t, err, ErrUnsupportedExtraction)
	})

	t.Run("invalid utf8 rejected", func(t *testing.T) {
		_, err := e.Extract(ctx, []byte{0xff, 0xfe}, "text/plain")
		assert.ErrorIs(t, err, ErrUnsupportedExtraction)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := e.Extract(ctx, []byte("   \n\n  "), "text/plain")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})
}

func TestChunkText_SplitsLongParagraphs(t *testing.T) {
	long := strings.Repeat("a", 4500)
	chunks := ChunkText(long)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 2000)
	assert.Len(t, chunks[2], 500)
}
