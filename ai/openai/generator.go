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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/core"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// answerEnvelope is the JSON structure requested from the model.
type answerEnvelope struct {
	Answer    string `json:"answer"`
	Citations []struct {
		Source  string  `json:"source"`
		Snippet string  `json:"snippet"`
		Score   float32 `json:"score"`
	} `json:"citations"`
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	token := config.APIKey
	if strings.TrimSpace(token) == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate produces a grounded answer with citations for the query.
func (g *Generator) Generate(ctx context.Context, query string, storeCtx ai.StoreContext, params core.GenerationParams) (*ai.Generation, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt(storeCtx)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	opts := []llms.CallOption{
		llms.WithTemperature(params.Temperature),
		llms.WithJSONMode(),
	}
	if params.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxOutputTokens))
	}
	if params.Model != "" {
		opts = append(opts, llms.WithModel(params.Model))
	}

	// Try up to 3 times in case of malformed JSON
	var envelope answerEnvelope
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			g.logger.Error("generation call failed", "attempt", attempt+1, "err", err)
			return nil, fmt.Errorf("%w: %w", ai.ErrGeneration, err)
		}
		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("%w: empty response", ai.ErrGeneration)
			continue
		}

		raw := response.Choices[0].Content
		if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
			return g.buildGeneration(&envelope, storeCtx), nil
		}

		// Attempt to repair common LLM JSON mistakes before retrying.
		repaired := repairJSON(raw)
		if err := json.Unmarshal([]byte(repaired), &envelope); err == nil {
			return g.buildGeneration(&envelope, storeCtx), nil
		} else {
			lastErr = fmt.Errorf("%w: malformed JSON: %w", ai.ErrGeneration, err)
			g.logger.Warn("malformed JSON from model", "attempt", attempt+1, "err", err)
		}
	}
	return nil, lastErr
}

// buildGeneration converts the model envelope into the domain result,
// dropping citations that do not reference a known document.
func (g *Generator) buildGeneration(envelope *answerEnvelope, storeCtx ai.StoreContext) *ai.Generation {
	known := make(map[string]bool, len(storeCtx.Documents))
	for _, doc := range storeCtx.Documents {
		known[doc.Name] = true
	}

	gen := &ai.Generation{Answer: envelope.Answer}
	for _, c := range envelope.Citations {
		if !known[c.Source] {
			g.logger.Debug("dropping citation with unknown source", "source", c.Source)
			continue
		}
		gen.Citations = append(gen.Citations, core.Citation{
			Source:  c.Source,
			Snippet: c.Snippet,
			Score:   c.Score,
		})
	}
	return gen
}
