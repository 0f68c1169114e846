// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// defaultOllamaHost is used when LLMConfig.Endpoint is empty.
const defaultOllamaHost = "http://127.0.0.1:11434"

// ollamaClient calls a local Ollama server's chat endpoint. The Ollama
// client has no retry policy of its own, so attempts go through withRetry.
type ollamaClient struct {
	client     *api.Client
	model      string
	options    map[string]any
	maxRetries int
	log        *logging.Logger
}

func newOllamaClient(cfg types.LLMConfig, log *logging.Logger) (*ollamaClient, error) {
	host := cfg.Endpoint
	if host == "" {
		host = defaultOllamaHost
	}
	base, err := url.Parse(host)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid ollama endpoint %q", types.ErrConfiguration, host)
	}

	hc := &http.Client{Timeout: cfg.RequestTimeout}

	options := map[string]any{"temperature": cfg.Temperature}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}

	return &ollamaClient{
		client:     api.NewClient(base, hc),
		model:      cfg.Model,
		options:    options,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}, nil
}

// Complete sends a non-streaming chat request. Output format is left to
// the prompt, since not every operation answers in JSON.
func (o *ollamaClient) Complete(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options:  o.options,
	}

	return withRetry(ctx, o.log, o.maxRetries, func(ctx context.Context) (string, error) {
		var b strings.Builder
		err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			b.WriteString(resp.Message.Content)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("calling ollama chat: %w", err)
		}
		return b.String(), nil
	})
}
