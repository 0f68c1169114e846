// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper2cmap/internal/secrets"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Config keys mapped to the flags that set them. Keys match the
// paper2cmap.yaml layout and, upper-cased with a PAPER2CMAP_ prefix, the
// environment variables.
var (
	llmFlagKeys = map[string]string{
		"llm.backend":         "backend",
		"llm.endpoint":        "endpoint",
		"llm.model":           "model",
		"llm.deployment":      "deployment",
		"llm.api_version":     "api-version",
		"llm.temperature":     "temperature",
		"llm.request_timeout": "timeout",
		"llm.max_retries":     "max-retries",
		"llm.max_tokens":      "max-tokens",
	}

	extractionFlagKeys = map[string]string{
		"extraction.title_min_len": "title-min-len",
		"extraction.title_max_len": "title-max-len",
	}

	generationFlagKeys = map[string]string{
		"generation.max_num_concepts":      "max-concepts",
		"generation.max_num_relationships": "max-relationships",
		"generation.max_num_iterations":    "max-iterations",
		"generation.section_scale":         "section-scale",
		"generation.strategy":              "strategy",
		"generation.preprocess":            "preprocess",
		"generation.truncate":              "truncate",
	}
)

// Flag defaults are zero values; real defaults live in viper so that a
// config file value is not shadowed by an unset flag.
func addLLMFlags(fs *pflag.FlagSet) {
	fs.String("backend", "", "LLM backend: openai, azure, or ollama (default openai)")
	fs.String("endpoint", "", "service base URL (required for azure)")
	fs.String("model", "", "model name (default gpt-4o-mini)")
	fs.String("deployment", "", "azure deployment name (default: the model name)")
	fs.String("api-version", "", "azure API version, e.g. 2024-06-01")
	fs.Float64("temperature", 0, "sampling temperature (default 0.7)")
	fs.Duration("timeout", 0, "per-request timeout (default 60s)")
	fs.Int("max-retries", 0, "retries after a failed request (default 6)")
	fs.Int("max-tokens", 0, "completion length cap (default: backend limit)")
}

func addExtractionFlags(fs *pflag.FlagSet) {
	fs.Int("title-min-len", 0, "candidate titles must be longer than this (default 5)")
	fs.Int("title-max-len", 0, "candidate titles must be at most this long (default 50)")
}

func addGenerationFlags(fs *pflag.FlagSet) {
	fs.Int("max-concepts", 0, "concept budget for the final map (default 10)")
	fs.Int("max-relationships", 0, "relationship budget for the final map (default 30)")
	fs.Int("max-iterations", 0, "sections to process, -1 for all (default -1)")
	fs.Float64("section-scale", 0, "per-section budget scale for two-phase (default 0.5)")
	fs.String("strategy", "", "two-phase or incremental (default two-phase)")
	fs.Bool("preprocess", false, "summarise each section before mapping")
	fs.Bool("truncate", false, "cut model output to the budgets")
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// setDefaults seeds v with types.DefaultConfig.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetDefault("llm.backend", string(d.LLM.Backend))
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.request_timeout", d.LLM.RequestTimeout)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("extraction.title_min_len", d.Extraction.TitleMinLen)
	v.SetDefault("extraction.title_max_len", d.Extraction.TitleMaxLen)
	v.SetDefault("generation.max_num_concepts", d.Generation.MaxNumConcepts)
	v.SetDefault("generation.max_num_relationships", d.Generation.MaxNumRelationships)
	v.SetDefault("generation.max_num_iterations", d.Generation.MaxNumIterations)
	v.SetDefault("generation.section_scale", d.Generation.SectionScale)
	v.SetDefault("generation.strategy", string(d.Generation.Strategy))
	v.SetDefault("secrets_dir", secrets.DefaultDir)
}

// buildConfig assembles a Config from v. The API key comes from
// llm.api_key when set, otherwise from the secrets store.
func buildConfig(v *viper.Viper, store secrets.Store) (types.Config, error) {
	cfg := types.Config{
		LLM: types.LLMConfig{
			Backend:        types.Backend(v.GetString("llm.backend")),
			APIKey:         v.GetString("llm.api_key"),
			Endpoint:       v.GetString("llm.endpoint"),
			Model:          v.GetString("llm.model"),
			Deployment:     v.GetString("llm.deployment"),
			APIVersion:     v.GetString("llm.api_version"),
			Temperature:    v.GetFloat64("llm.temperature"),
			RequestTimeout: v.GetDuration("llm.request_timeout"),
			MaxRetries:     v.GetInt("llm.max_retries"),
			MaxTokens:      v.GetInt("llm.max_tokens"),
		},
		Extraction: types.ExtractionConfig{
			TitleMinLen: v.GetInt("extraction.title_min_len"),
			TitleMaxLen: v.GetInt("extraction.title_max_len"),
		},
		Generation: types.GenerationConfig{
			MaxNumConcepts:      v.GetInt("generation.max_num_concepts"),
			MaxNumRelationships: v.GetInt("generation.max_num_relationships"),
			MaxNumIterations:    v.GetInt("generation.max_num_iterations"),
			SectionScale:        v.GetFloat64("generation.section_scale"),
			Strategy:            types.Strategy(v.GetString("generation.strategy")),
			Preprocess:          v.GetBool("generation.preprocess"),
			Truncate:            v.GetBool("generation.truncate"),
		},
		Verbose: v.GetBool("verbose"),
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = store.APIKey(cfg.LLM.Backend)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return types.Config{}, err
	}
	if err := cfg.Generation.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
