// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the request/response boundary to the language model.
// A Client takes an ordered, role-tagged message sequence and returns one
// text completion. The backend variant is chosen once, in New, from the
// explicit types.LLMConfig discriminator.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Role tags a message in a chat prompt.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat prompt. Few-shot examples are user and
// assistant messages placed between the system instruction and the final
// user instruction.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Client abstracts the completion API so tests can supply a mock.
// Implementations own their timeout and retry policy; an error means the
// call failed terminally.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ClientFunc adapts a plain function to Client.
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// New validates cfg and builds the client for cfg.Backend. Configuration
// problems wrap types.ErrConfiguration.
func New(cfg types.LLMConfig, log *logging.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}

	switch cfg.Backend {
	case types.BackendOpenAI:
		log.Info("using OpenAI model", "model", cfg.Model)
		return newDirectClient(cfg), nil
	case types.BackendAzure:
		log.Info("using Azure deployment", "deployment", cfg.DeploymentName(), "api_version", cfg.APIVersion)
		return newManagedClient(cfg), nil
	case types.BackendOllama:
		log.Info("using Ollama model", "model", cfg.Model)
		return newOllamaClient(cfg, log)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", types.ErrConfiguration, cfg.Backend)
}

// Transcript renders messages as plain text for debug logging.
func Transcript(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
	}
	return b.String()
}
