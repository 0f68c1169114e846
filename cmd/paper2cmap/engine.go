// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper2cmap/internal/cmap"
	"github.com/pdiddy/paper2cmap/internal/extract"
	"github.com/pdiddy/paper2cmap/internal/llm"
	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/internal/prompt"
	"github.com/pdiddy/paper2cmap/internal/segment"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// newEngine wires the extraction, segmentation and mapping stages behind
// one LLM client built from cfg.
func newEngine(cfg types.Config, log *logging.Logger) (*cmap.Engine, error) {
	prompts, err := loadPrompts(viper.GetString("prompts_dir"))
	if err != nil {
		return nil, err
	}

	client, err := llm.New(cfg.LLM, log)
	if err != nil {
		return nil, err
	}
	log.Debug("llm client ready", "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)

	extractor := extract.NewExtractor(nil, cfg.Extraction, log)
	reader := segment.NewReader(extractor, segment.NewSegmenter(client, prompts, log), log)
	return cmap.NewEngine(reader, cmap.NewMapper(client, prompts, log), log), nil
}

// loadPrompts reads the prompt pack in dir, or the built-in pack when dir
// is empty.
func loadPrompts(dir string) (*prompt.Builder, error) {
	if dir == "" {
		b, err := prompt.Default()
		if err != nil {
			return nil, fmt.Errorf("loading built-in prompt pack: %w", err)
		}
		return b, nil
	}
	b, err := prompt.Load(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("loading prompt pack %s: %w", dir, err)
	}
	return b, nil
}
