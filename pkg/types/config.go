package types

import (
	"fmt"
	"time"
)

// Backend selects which LLM service a client talks to. It is an explicit
// discriminator chosen once when the client is constructed.
type Backend string

const (
	// BackendOpenAI talks directly to the OpenAI API (or a compatible base URL).
	BackendOpenAI Backend = "openai"

	// BackendAzure talks to a managed Azure OpenAI deployment.
	BackendAzure Backend = "azure"

	// BackendOllama talks to a local Ollama server.
	BackendOllama Backend = "ollama"
)

// LLMConfig holds the credentials, model selection and request settings
// for the LLM capability. It is read once and passed to llm.New.
type LLMConfig struct {
	// Backend selects the client variant: openai, azure, or ollama.
	Backend Backend `json:"backend" yaml:"backend"`

	// APIKey is the authentication key. Not used by ollama.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint is the service base URL. Optional for openai and ollama,
	// required for azure (e.g. "https://myres.openai.azure.com").
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Model is the model identifier (e.g. "gpt-4o-mini", "llama3.1").
	Model string `json:"model" yaml:"model"`

	// Deployment is the azure deployment name. Defaults to Model.
	Deployment string `json:"deployment,omitempty" yaml:"deployment,omitempty"`

	// APIVersion is the azure API version (e.g. "2024-06-01").
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	// Temperature is the sampling temperature in [0, 2] (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// RequestTimeout bounds a single request attempt (default 60s).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// MaxRetries is the number of retries after a failed attempt (default 6).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxTokens caps the completion length. Zero leaves it to the backend.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// DeploymentName returns the azure deployment, falling back to Model.
func (c LLMConfig) DeploymentName() string {
	if c.Deployment != "" {
		return c.Deployment
	}
	return c.Model
}

// Validate checks that the configuration is complete for its backend.
// Errors wrap ErrConfiguration.
func (c LLMConfig) Validate() error {
	switch c.Backend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: openai backend requires an API key", ErrConfiguration)
		}
		if c.Model == "" {
			return fmt.Errorf("%w: openai backend requires a model name", ErrConfiguration)
		}
	case BackendAzure:
		if c.APIKey == "" {
			return fmt.Errorf("%w: azure backend requires an API key", ErrConfiguration)
		}
		if c.Endpoint == "" {
			return fmt.Errorf("%w: azure backend requires an endpoint", ErrConfiguration)
		}
		if c.APIVersion == "" {
			return fmt.Errorf("%w: azure backend requires an API version", ErrConfiguration)
		}
		if c.DeploymentName() == "" {
			return fmt.Errorf("%w: azure backend requires a deployment name", ErrConfiguration)
		}
	case BackendOllama:
		if c.Model == "" {
			return fmt.Errorf("%w: ollama backend requires a model name", ErrConfiguration)
		}
	case "":
		return fmt.Errorf("%w: backend not set (want openai, azure, or ollama)", ErrConfiguration)
	default:
		return fmt.Errorf("%w: unknown backend %q (want openai, azure, or ollama)", ErrConfiguration, c.Backend)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0,2]", ErrConfiguration, c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrConfiguration)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must not be negative", ErrConfiguration)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrConfiguration)
	}
	return nil
}

// ExtractionConfig holds settings for the text extractor.
type ExtractionConfig struct {
	// TitleMinLen is the exclusive lower bound on candidate title length (default 5).
	TitleMinLen int `json:"title_min_len" yaml:"title_min_len"`

	// TitleMaxLen is the inclusive upper bound on candidate title length (default 50).
	TitleMaxLen int `json:"title_max_len" yaml:"title_max_len"`
}

// Strategy selects how per-section maps are combined.
type Strategy string

const (
	// StrategyTwoPhase generates one map per section, then merges and
	// prunes the concatenation in a single call.
	StrategyTwoPhase Strategy = "two-phase"

	// StrategyIncremental folds each section into one running map.
	StrategyIncremental Strategy = "incremental"
)

// GenerationConfig holds settings for concept-map generation.
type GenerationConfig struct {
	// MaxNumConcepts is the concept budget for the final map (default 10).
	MaxNumConcepts int `json:"max_num_concepts" yaml:"max_num_concepts"`

	// MaxNumRelationships is the relationship budget for the final map (default 30).
	MaxNumRelationships int `json:"max_num_relationships" yaml:"max_num_relationships"`

	// MaxNumIterations caps the number of sections processed; -1 processes all.
	MaxNumIterations int `json:"max_num_iterations" yaml:"max_num_iterations"`

	// SectionScale scales the budgets for per-section maps in the
	// two-phase strategy (default 0.5).
	SectionScale float64 `json:"section_scale" yaml:"section_scale"`

	// Strategy is two-phase (default) or incremental.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// Preprocess summarises each section before it is mapped.
	Preprocess bool `json:"preprocess" yaml:"preprocess"`

	// Truncate caps each model output at its budget after normalisation.
	Truncate bool `json:"truncate" yaml:"truncate"`
}

// Validate checks budgets, the iteration cap and the section scale.
func (c GenerationConfig) Validate() error {
	if c.MaxNumConcepts <= 0 {
		return fmt.Errorf("%w: max_num_concepts must be positive", ErrConfiguration)
	}
	if c.MaxNumRelationships <= 0 {
		return fmt.Errorf("%w: max_num_relationships must be positive", ErrConfiguration)
	}
	if c.MaxNumIterations < -1 {
		return fmt.Errorf("%w: max_num_iterations must be -1 or non-negative", ErrConfiguration)
	}
	switch c.Strategy {
	case StrategyTwoPhase, "":
		if c.SectionScale <= 0 || c.SectionScale > 1 {
			return fmt.Errorf("%w: section_scale %.2f out of range (0,1]", ErrConfiguration, c.SectionScale)
		}
	case StrategyIncremental:
	default:
		return fmt.Errorf("%w: unknown strategy %q (want two-phase or incremental)", ErrConfiguration, c.Strategy)
	}
	return nil
}

// Config groups every stage configuration for one run.
type Config struct {
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	// Verbose enables debug-level tracing of prompts and responses.
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the defaults used when no file, env or flag value
// overrides them.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Backend:        BackendOpenAI,
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			RequestTimeout: 60 * time.Second,
			MaxRetries:     6,
		},
		Extraction: ExtractionConfig{
			TitleMinLen: 5,
			TitleMaxLen: 50,
		},
		Generation: GenerationConfig{
			MaxNumConcepts:      10,
			MaxNumRelationships: 30,
			MaxNumIterations:    -1,
			SectionScale:        0.5,
			Strategy:            StrategyTwoPhase,
		},
	}
}
