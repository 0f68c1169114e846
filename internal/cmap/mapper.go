// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cmap turns paper sections into concept maps. Mapper holds the
// single-call operations (generate, merge and prune, incremental update,
// preprocess); Engine drives them over a loaded paper.
package cmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paper2cmap/internal/llm"
	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/internal/prompt"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Mapper runs one prompt per operation against an LLM client and decodes
// the answer. Every map it returns has been passed through Normalize.
type Mapper struct {
	client  llm.Client
	prompts *prompt.Builder
	log     *logging.Logger
}

// NewMapper creates a mapper.
func NewMapper(client llm.Client, prompts *prompt.Builder, log *logging.Logger) *Mapper {
	if log == nil {
		log = logging.Nop()
	}
	return &Mapper{client: client, prompts: prompts, log: log}
}

// Preprocess summarises text ahead of mapping. An empty summary is
// treated as malformed output.
func (m *Mapper) Preprocess(ctx context.Context, text string) (string, error) {
	messages, err := m.prompts.Preprocess(text)
	if err != nil {
		return "", fmt.Errorf("building preprocess prompt: %w", err)
	}
	raw, err := m.call(ctx, prompt.KindPreprocess, messages)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", types.ErrMalformedModelOutput)
	}
	return summary, nil
}

// Generate maps one piece of text within the given budgets.
func (m *Mapper) Generate(ctx context.Context, text string, maxConcepts, maxRelationships int) (types.ConceptMap, error) {
	messages, err := m.prompts.Generate(text, maxConcepts, maxRelationships)
	if err != nil {
		return types.ConceptMap{}, fmt.Errorf("building generate prompt: %w", err)
	}
	return m.mapCall(ctx, prompt.KindGenerate, messages)
}

// MergeAndPrune asks the model to fold a concatenation of partial maps into
// one map within the budgets.
func (m *Mapper) MergeAndPrune(ctx context.Context, cmap types.ConceptMap, maxConcepts, maxRelationships int) (types.ConceptMap, error) {
	messages, err := m.prompts.MergeAndPrune(cmap, maxConcepts, maxRelationships)
	if err != nil {
		return types.ConceptMap{}, fmt.Errorf("building merge prompt: %w", err)
	}
	return m.mapCall(ctx, prompt.KindMergeAndPrune, messages)
}

// Chat updates the running map with one more piece of text.
func (m *Mapper) Chat(ctx context.Context, text string, cmap types.ConceptMap, maxConcepts, maxRelationships int) (types.ConceptMap, error) {
	messages, err := m.prompts.Chat(text, cmap, maxConcepts, maxRelationships)
	if err != nil {
		return types.ConceptMap{}, fmt.Errorf("building chat prompt: %w", err)
	}
	return m.mapCall(ctx, prompt.KindChat, messages)
}

func (m *Mapper) mapCall(ctx context.Context, kind prompt.Kind, messages []llm.Message) (types.ConceptMap, error) {
	raw, err := m.call(ctx, kind, messages)
	if err != nil {
		return types.ConceptMap{}, err
	}
	decoded, err := Decode(raw)
	if err != nil {
		return types.ConceptMap{}, fmt.Errorf("%s response: %w", kind, err)
	}
	cmap := Normalize(decoded)
	if dropped := len(decoded.Relationships) - len(cmap.Relationships); dropped > 0 {
		m.log.Debug("dropped relationships", "op", kind, "count", dropped)
	}
	return cmap, nil
}

func (m *Mapper) call(ctx context.Context, kind prompt.Kind, messages []llm.Message) (string, error) {
	if m.log.DebugEnabled() {
		m.log.Debug("prompt", "op", kind, "prompt", llm.Transcript(messages))
	}
	raw, err := m.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	m.log.Debug("response", "op", kind, "response", raw)
	return raw, nil
}
