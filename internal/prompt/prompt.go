// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt turns an operation kind plus its variables into a
// ready-to-send chat prompt: one system instruction, the operation's
// few-shot examples, and one user instruction. Templates and examples are
// static data from a prompt pack; building a prompt does no I/O.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper2cmap/internal/llm"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Kind names an operation that has a prompt in the pack.
type Kind string

const (
	KindCatalogue     Kind = "catalogue"
	KindPreprocess    Kind = "preprocess"
	KindGenerate      Kind = "generate"
	KindMergeAndPrune Kind = "merge_and_prune"
	KindChat          Kind = "chat"
)

// Kinds lists every operation a pack must define.
var Kinds = []Kind{KindCatalogue, KindPreprocess, KindGenerate, KindMergeAndPrune, KindChat}

const (
	promptsFile = "prompts.yaml"
	examplesDir = "examples"
)

//go:embed pack
var embedded embed.FS

// templateSpec is one entry of prompts.yaml.
type templateSpec struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system   *template.Template
	user     *template.Template
	examples []llm.Message
}

// Builder renders prompts from a loaded pack. It is safe for concurrent use.
type Builder struct {
	prompts map[Kind]*compiled
}

// Default returns a builder over the embedded prompt pack.
func Default() (*Builder, error) {
	sub, err := fs.Sub(embedded, "pack")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads prompts.yaml and examples/<kind>.json from fsys. Every kind
// in Kinds must have a system and a user template; examples are optional.
func Load(fsys fs.FS) (*Builder, error) {
	data, err := fs.ReadFile(fsys, promptsFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", promptsFile, err)
	}

	var specs map[Kind]templateSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", promptsFile, err)
	}

	b := &Builder{prompts: make(map[Kind]*compiled, len(Kinds))}
	for _, kind := range Kinds {
		spec, ok := specs[kind]
		if !ok {
			return nil, fmt.Errorf("%s: missing prompt %q", promptsFile, kind)
		}
		if strings.TrimSpace(spec.System) == "" || strings.TrimSpace(spec.User) == "" {
			return nil, fmt.Errorf("%s: prompt %q needs both system and user templates", promptsFile, kind)
		}

		c := &compiled{}
		if c.system, err = parse(string(kind)+".system", spec.System); err != nil {
			return nil, err
		}
		if c.user, err = parse(string(kind)+".user", spec.User); err != nil {
			return nil, err
		}
		if c.examples, err = loadExamples(fsys, kind); err != nil {
			return nil, err
		}
		b.prompts[kind] = c
	}
	return b, nil
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return t, nil
}

// loadExamples reads the few-shot exchange for kind. A missing file means
// the operation has no examples.
func loadExamples(fsys fs.FS, kind Kind) ([]llm.Message, error) {
	name := path.Join(examplesDir, string(kind)+".json")
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var examples []llm.Message
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	for i, ex := range examples {
		if ex.Role != llm.RoleUser && ex.Role != llm.RoleAssistant {
			return nil, fmt.Errorf("%s: example %d has role %q (want user or assistant)", name, i, ex.Role)
		}
	}
	return examples, nil
}

// Build renders the prompt for kind. Every variable a template references
// must be present in vars.
func (b *Builder) Build(kind Kind, vars map[string]any) ([]llm.Message, error) {
	c, ok := b.prompts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown prompt kind %q", kind)
	}

	system, err := render(c.system, vars)
	if err != nil {
		return nil, err
	}
	user, err := render(c.user, vars)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(c.examples)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, c.examples...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: user})
	return messages, nil
}

func render(t *template.Template, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Catalogue asks the model which candidate fragments are section titles.
func (b *Builder) Catalogue(candidates []string) ([]llm.Message, error) {
	if candidates == nil {
		candidates = []string{}
	}
	return b.Build(KindCatalogue, map[string]any{"candidates": candidates})
}

// Preprocess asks the model to summarise text before mapping.
func (b *Builder) Preprocess(text string) ([]llm.Message, error) {
	return b.Build(KindPreprocess, map[string]any{"text": text})
}

// Generate asks for a concept map of text within the given budgets.
func (b *Builder) Generate(text string, maxConcepts, maxRelationships int) ([]llm.Message, error) {
	return b.Build(KindGenerate, map[string]any{
		"text":                  text,
		"max_num_concepts":      maxConcepts,
		"max_num_relationships": maxRelationships,
	})
}

// MergeAndPrune asks for one deduplicated map within the budgets.
func (b *Builder) MergeAndPrune(cmap types.ConceptMap, maxConcepts, maxRelationships int) ([]llm.Message, error) {
	return b.Build(KindMergeAndPrune, map[string]any{
		"cmap":                  cmap,
		"max_num_concepts":      maxConcepts,
		"max_num_relationships": maxRelationships,
	})
}

// Chat asks for cmap updated with text, within the budgets.
func (b *Builder) Chat(text string, cmap types.ConceptMap, maxConcepts, maxRelationships int) ([]llm.Message, error) {
	return b.Build(KindChat, map[string]any{
		"text":                  text,
		"cmap":                  cmap,
		"max_num_concepts":      maxConcepts,
		"max_num_relationships": maxRelationships,
	})
}
