// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cmap

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// State is the lifecycle position of an Engine.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateGenerating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateGenerating:
		return "generating"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PaperReader loads the paper state for a PDF path.
type PaperReader interface {
	Read(ctx context.Context, path string) (*types.Paper, error)
}

// Snapshot is the running map after one section of an incremental run.
type Snapshot struct {
	Section   types.Section
	Processed int
	Total     int
	Map       types.ConceptMap
}

// Engine holds one loaded paper and generates concept maps from it. A
// generation is rejected with types.ErrBusy while another is running.
type Engine struct {
	reader PaperReader
	mapper *Mapper
	log    *logging.Logger

	mu    sync.Mutex
	paper *types.Paper
	state State
}

// NewEngine creates an engine with no paper loaded.
func NewEngine(reader PaperReader, mapper *Mapper, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{reader: reader, mapper: mapper, log: log}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Paper returns the loaded paper, or nil before the first successful Load.
func (e *Engine) Paper() *types.Paper {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paper
}

// Load reads the PDF at path and replaces the loaded paper. On failure the
// previous paper and state are kept.
func (e *Engine) Load(ctx context.Context, path string) error {
	if e.State() == StateGenerating {
		return types.ErrBusy
	}

	paper, err := e.reader.Read(ctx, path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateGenerating {
		return types.ErrBusy
	}
	e.paper = paper
	e.state = StateLoaded
	e.log.Info("paper loaded", "path", path, "sections", len(paper.Sections))
	return nil
}

// Generate builds the concept map of the loaded paper with cfg's strategy.
func (e *Engine) Generate(ctx context.Context, cfg types.GenerationConfig) (types.ConceptMap, error) {
	if cfg.Strategy == types.StrategyIncremental {
		result := emptyMap()
		for snap, err := range e.Stream(ctx, cfg) {
			if err != nil {
				return types.ConceptMap{}, err
			}
			result = snap.Map
		}
		return result, nil
	}

	sections, prev, err := e.begin(cfg)
	if err != nil {
		return types.ConceptMap{}, err
	}
	result, err := e.twoPhase(ctx, cfg, sections)
	e.finish(prev, err == nil)
	if err != nil {
		return types.ConceptMap{}, err
	}
	return result, nil
}

// Stream runs the incremental strategy and yields the running map after
// each section. Breaking out of the loop stops generation after the
// current section; the snapshots already yielded stay valid. Cancellation
// is checked between sections.
func (e *Engine) Stream(ctx context.Context, cfg types.GenerationConfig) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		sections, prev, err := e.begin(cfg)
		if err != nil {
			yield(Snapshot{}, err)
			return
		}
		ok := false
		defer func() { e.finish(prev, ok) }()

		running := emptyMap()
		for i, sec := range sections {
			if err := ctx.Err(); err != nil {
				yield(Snapshot{}, err)
				return
			}
			text, err := e.sectionText(ctx, cfg, sec)
			if err != nil {
				yield(Snapshot{}, err)
				return
			}
			next, err := e.mapper.Chat(ctx, text, running, cfg.MaxNumConcepts, cfg.MaxNumRelationships)
			if err != nil {
				yield(Snapshot{}, fmt.Errorf("updating concept map with section %d: %w", sec.Index, err))
				return
			}
			if cfg.Truncate {
				next = Truncate(next, cfg.MaxNumConcepts, cfg.MaxNumRelationships)
			}
			running = next
			e.log.Info("section merged",
				"section", sec.Index, "title", sec.Title,
				"concepts", len(running.Concepts), "relationships", len(running.Relationships),
				"cmap", running)

			snap := Snapshot{Section: sec, Processed: i + 1, Total: len(sections), Map: running.Clone()}
			if !yield(snap, nil) {
				ok = true
				return
			}
		}
		ok = true
	}
}

func (e *Engine) twoPhase(ctx context.Context, cfg types.GenerationConfig, sections []types.Section) (types.ConceptMap, error) {
	if len(sections) == 0 {
		return emptyMap(), nil
	}

	maxC := scaled(cfg.MaxNumConcepts, cfg.SectionScale)
	maxR := scaled(cfg.MaxNumRelationships, cfg.SectionScale)

	partials := make([]types.ConceptMap, 0, len(sections))
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return types.ConceptMap{}, err
		}
		text, err := e.sectionText(ctx, cfg, sec)
		if err != nil {
			return types.ConceptMap{}, err
		}
		partial, err := e.mapper.Generate(ctx, text, maxC, maxR)
		if err != nil {
			return types.ConceptMap{}, fmt.Errorf("generating concept map for section %d: %w", sec.Index, err)
		}
		if cfg.Truncate {
			partial = Truncate(partial, maxC, maxR)
		}
		e.log.Info("section mapped",
			"section", sec.Index, "title", sec.Title,
			"concepts", len(partial.Concepts), "relationships", len(partial.Relationships),
			"cmap", partial)
		partials = append(partials, partial)
	}

	if err := ctx.Err(); err != nil {
		return types.ConceptMap{}, err
	}
	merged, err := e.mapper.MergeAndPrune(ctx, types.Concat(partials...), cfg.MaxNumConcepts, cfg.MaxNumRelationships)
	if err != nil {
		return types.ConceptMap{}, fmt.Errorf("merging %d partial maps: %w", len(partials), err)
	}
	if cfg.Truncate {
		merged = Truncate(merged, cfg.MaxNumConcepts, cfg.MaxNumRelationships)
	}
	e.log.Info("concept map merged", "concepts", len(merged.Concepts), "relationships", len(merged.Relationships))
	return merged, nil
}

func (e *Engine) sectionText(ctx context.Context, cfg types.GenerationConfig, sec types.Section) (string, error) {
	if !cfg.Preprocess {
		return sec.Text, nil
	}
	summary, err := e.mapper.Preprocess(ctx, sec.Text)
	if err != nil {
		return "", fmt.Errorf("preprocessing section %d: %w", sec.Index, err)
	}
	return summary, nil
}

// begin validates cfg, checks the engine can generate, and moves it to
// StateGenerating. It returns the sections to process and the state to
// restore if the run fails.
func (e *Engine) begin(cfg types.GenerationConfig) ([]types.Section, State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paper == nil {
		return nil, e.state, types.ErrNotLoaded
	}
	if e.state == StateGenerating {
		return nil, e.state, types.ErrBusy
	}
	if err := cfg.Validate(); err != nil {
		return nil, e.state, err
	}

	sections := e.paper.Sections
	if cfg.MaxNumIterations >= 0 && cfg.MaxNumIterations < len(sections) {
		e.log.Info("limiting sections", "processing", cfg.MaxNumIterations, "of", len(sections))
		sections = sections[:cfg.MaxNumIterations]
	}

	prev := e.state
	e.state = StateGenerating
	return sections, prev, nil
}

func (e *Engine) finish(prev State, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ok {
		e.state = StateDone
		return
	}
	e.state = prev
}

// scaled applies the per-section budget scale, never going below one.
func scaled(budget int, scale float64) int {
	return max(1, int(float64(budget)*scale))
}

func emptyMap() types.ConceptMap {
	return types.ConceptMap{Concepts: []types.Concept{}, Relationships: []types.Relationship{}}
}
