// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment identifies a paper's section titles and cuts its full
// text into ordered, non-overlapping sections at the title occurrences.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paper2cmap/internal/extract"
	"github.com/pdiddy/paper2cmap/internal/llm"
	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/internal/prompt"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Segmenter asks the model which candidate fragments are section titles.
type Segmenter struct {
	client  llm.Client
	prompts *prompt.Builder
	log     *logging.Logger
}

// NewSegmenter creates a segmenter that sends catalogue prompts to client.
func NewSegmenter(client llm.Client, prompts *prompt.Builder, log *logging.Logger) *Segmenter {
	if log == nil {
		log = logging.Nop()
	}
	return &Segmenter{client: client, prompts: prompts, log: log}
}

// catalogueResponse is the structure the catalogue prompt asks for.
type catalogueResponse struct {
	Titles *[]string `json:"titles"`
}

// IdentifyCatalogue returns the candidates the model marks as section
// titles, in the order the model lists them. Titles that are not among the
// candidates are dropped, as are repeats. A response that does not parse
// as {"titles": [...]} fails with types.ErrMalformedModelOutput. With no
// candidates the model is not called.
func (s *Segmenter) IdentifyCatalogue(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		s.log.Info("no title candidates, skipping catalogue identification")
		return []string{}, nil
	}

	messages, err := s.prompts.Catalogue(candidates)
	if err != nil {
		return nil, fmt.Errorf("building catalogue prompt: %w", err)
	}
	s.log.Debug("catalogue prompt", "prompt", llm.Transcript(messages))

	raw, err := s.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("identifying catalogue: %w", err)
	}
	s.log.Debug("catalogue response", "response", raw)

	var resp catalogueResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return nil, fmt.Errorf("%w: catalogue response: %v", types.ErrMalformedModelOutput, err)
	}
	if resp.Titles == nil {
		return nil, fmt.Errorf("%w: catalogue response has no \"titles\" array", types.ErrMalformedModelOutput)
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[strings.TrimSpace(c)] = true
	}

	seen := make(map[string]bool)
	catalogue := make([]string, 0, len(*resp.Titles))
	for _, title := range *resp.Titles {
		title = strings.TrimSpace(title)
		if !known[title] {
			s.log.Warn("dropping title not among candidates", "title", title)
			continue
		}
		if seen[title] {
			continue
		}
		seen[title] = true
		catalogue = append(catalogue, title)
	}
	return catalogue, nil
}

// Segment identifies the catalogue of ex and splits its full text.
func (s *Segmenter) Segment(ctx context.Context, ex *extract.Extraction) ([]string, []types.Section, error) {
	catalogue, err := s.IdentifyCatalogue(ctx, ex.Candidates())
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("catalogue", "titles", catalogue)

	sections := Split(ex.FullText, catalogue)
	if len(catalogue) > 0 && len(sections) == 1 && sections[0].Title == "" {
		s.log.Warn("no catalogue title occurs in the text, using the whole document as one section")
	}
	s.log.Info("sections", "count", len(sections))
	return catalogue, sections, nil
}

// Split cuts fullText at every occurrence of every catalogue title. Split
// positions are sorted, so sections follow reading order whatever the
// catalogue order. Each section runs from one position to the next (the
// last to the end of the text) and is trimmed; text before the first
// position belongs to no section.
//
// When no title occurs (including an empty catalogue) the whole text is
// returned as one untitled section, or no sections if it is blank.
func Split(fullText string, catalogue []string) []types.Section {
	titleAt := make(map[int]string)
	for _, title := range catalogue {
		if title == "" {
			continue
		}
		for _, pos := range findAll(fullText, title) {
			// Prefer the longer title when two start at the same offset.
			if len(title) > len(titleAt[pos]) {
				titleAt[pos] = title
			}
		}
	}

	if len(titleAt) == 0 {
		text := strings.TrimSpace(fullText)
		if text == "" {
			return []types.Section{}
		}
		return []types.Section{{Index: 0, Offset: 0, Text: text}}
	}

	positions := make([]int, 0, len(titleAt))
	for pos := range titleAt {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	sections := make([]types.Section, len(positions))
	for i, pos := range positions {
		end := len(fullText)
		if i+1 < len(positions) {
			end = positions[i+1]
		}
		sections[i] = types.Section{
			Index:  i,
			Title:  titleAt[pos],
			Offset: pos,
			Text:   strings.TrimSpace(fullText[pos:end]),
		}
	}
	return sections
}

// findAll returns the start offsets of the non-overlapping occurrences of
// token in text, scanning left to right.
func findAll(text, token string) []int {
	var positions []int
	for start := 0; start <= len(text)-len(token); {
		i := strings.Index(text[start:], token)
		if i < 0 {
			break
		}
		positions = append(positions, start+i)
		start += i + len(token)
	}
	return positions
}
