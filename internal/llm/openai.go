// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"

	"github.com/pdiddy/paper2cmap/pkg/types"
)

// chatClient calls the Chat Completions API through the official SDK. The
// direct and managed-deployment variants differ only in how the SDK client
// is configured; retries and per-request timeouts are left to the SDK.
type chatClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// httpClient is used by both SDK variants. Package-level var for test
// substitution.
var httpClient = http.DefaultClient

func sdkOptions(cfg types.LLMConfig) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithHTTPClient(httpClient),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	return opts
}

// newDirectClient builds the DirectBackend variant.
func newDirectClient(cfg types.LLMConfig) *chatClient {
	opts := append(sdkOptions(cfg), option.WithAPIKey(cfg.APIKey))
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &chatClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// newManagedClient builds the ManagedDeploymentBackend variant. Azure
// routes by deployment name, which the SDK takes in place of the model.
func newManagedClient(cfg types.LLMConfig) *chatClient {
	opts := append(sdkOptions(cfg),
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	)
	return &chatClient{
		client:      openai.NewClient(opts...),
		model:       cfg.DeploymentName(),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends the messages as one chat completion request.
func (c *chatClient) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toChatMessages(messages),
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
