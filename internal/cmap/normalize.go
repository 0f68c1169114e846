// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/paper2cmap/pkg/types"
)

// wireMap mirrors types.ConceptMap with pointer fields so a response that
// omits either key can be told apart from one that sends an empty list.
type wireMap struct {
	Concepts      *[]types.Concept      `json:"concepts"`
	Relationships *[]types.Relationship `json:"relationships"`
}

// Decode parses a model response into a concept map. The response must be
// a single JSON object with "concepts" and "relationships" arrays; every
// concept needs a label and every relationship a source, target, and label.
// Anything else fails with types.ErrMalformedModelOutput.
func Decode(raw string) (types.ConceptMap, error) {
	var w wireMap
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &w); err != nil {
		return types.ConceptMap{}, fmt.Errorf("%w: %v", types.ErrMalformedModelOutput, err)
	}
	if w.Concepts == nil {
		return types.ConceptMap{}, fmt.Errorf("%w: missing \"concepts\" array", types.ErrMalformedModelOutput)
	}
	if w.Relationships == nil {
		return types.ConceptMap{}, fmt.Errorf("%w: missing \"relationships\" array", types.ErrMalformedModelOutput)
	}

	m := types.ConceptMap{Concepts: *w.Concepts, Relationships: *w.Relationships}
	for i, c := range m.Concepts {
		if strings.TrimSpace(c.Label) == "" {
			return types.ConceptMap{}, fmt.Errorf("%w: concept %d has no label", types.ErrMalformedModelOutput, i)
		}
	}
	for i, r := range m.Relationships {
		if strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.Target) == "" || strings.TrimSpace(r.Label) == "" {
			return types.ConceptMap{}, fmt.Errorf("%w: relationship %d needs source, target, and label", types.ErrMalformedModelOutput, i)
		}
	}
	return m, nil
}

// NormalizeLabel returns the key two labels share when they name the same
// concept: NFKC, case folded, inner whitespace collapsed, and trailing
// sentence punctuation removed.
func NormalizeLabel(label string) string {
	s := norm.NFKC.String(label)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, ".,;:")
}

// Normalize deduplicates m. Concepts whose labels normalize to the same key
// collapse into the first one, which keeps its label and takes the first
// non-empty description. Relationships are rewritten to the surviving
// labels; those whose source or target names no concept are dropped, as
// are repeats. Order is otherwise preserved.
func Normalize(m types.ConceptMap) types.ConceptMap {
	out := types.ConceptMap{
		Concepts:      make([]types.Concept, 0, len(m.Concepts)),
		Relationships: make([]types.Relationship, 0, len(m.Relationships)),
	}

	index := make(map[string]int, len(m.Concepts))
	for _, c := range m.Concepts {
		c.Label = strings.TrimSpace(c.Label)
		c.Description = strings.TrimSpace(c.Description)
		key := NormalizeLabel(c.Label)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if out.Concepts[i].Description == "" {
				out.Concepts[i].Description = c.Description
			}
			continue
		}
		index[key] = len(out.Concepts)
		out.Concepts = append(out.Concepts, c)
	}

	seen := make(map[[3]string]bool, len(m.Relationships))
	for _, r := range m.Relationships {
		si, ok := index[NormalizeLabel(r.Source)]
		if !ok {
			continue
		}
		ti, ok := index[NormalizeLabel(r.Target)]
		if !ok {
			continue
		}
		r.Source = out.Concepts[si].Label
		r.Target = out.Concepts[ti].Label
		r.Label = strings.TrimSpace(r.Label)

		key := [3]string{r.Source, r.Target, NormalizeLabel(r.Label)}
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Relationships = append(out.Relationships, r)
	}
	return out
}

// Truncate cuts m to at most maxConcepts concepts and maxRelationships
// relationships, keeping the earliest entries. Relationships that lose an
// endpoint are removed before the relationship cut.
func Truncate(m types.ConceptMap, maxConcepts, maxRelationships int) types.ConceptMap {
	concepts := m.Concepts
	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}
	kept := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		kept[c.Label] = true
	}

	out := types.ConceptMap{
		Concepts:      append([]types.Concept{}, concepts...),
		Relationships: make([]types.Relationship, 0, min(len(m.Relationships), maxRelationships)),
	}
	for _, r := range m.Relationships {
		if len(out.Relationships) == maxRelationships {
			break
		}
		if kept[r.Source] && kept[r.Target] {
			out.Relationships = append(out.Relationships, r)
		}
	}
	return out
}
