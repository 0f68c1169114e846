// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Concept is a node of a concept map. Label identifies the concept within
// its map; Description is optional.
type Concept struct {
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Relationship is a directed, labelled edge between two concept labels.
type Relationship struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

// ConceptMap is an ordered set of concepts plus the relationships between
// them. It is both the per-section intermediate artifact and the final output.
type ConceptMap struct {
	Concepts      []Concept      `json:"concepts" yaml:"concepts"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// IsEmpty reports whether the map holds neither concepts nor relationships.
func (m ConceptMap) IsEmpty() bool {
	return len(m.Concepts) == 0 && len(m.Relationships) == 0
}

// Clone returns a deep copy so callers can keep snapshots that later
// updates will not touch.
func (m ConceptMap) Clone() ConceptMap {
	out := ConceptMap{
		Concepts:      make([]Concept, len(m.Concepts)),
		Relationships: make([]Relationship, len(m.Relationships)),
	}
	copy(out.Concepts, m.Concepts)
	copy(out.Relationships, m.Relationships)
	return out
}

// Concat appends the concepts and relationships of every map in order.
// The result is not deduplicated.
func Concat(maps ...ConceptMap) ConceptMap {
	var out ConceptMap
	for _, m := range maps {
		out.Concepts = append(out.Concepts, m.Concepts...)
		out.Relationships = append(out.Relationships, m.Relationships...)
	}
	if out.Concepts == nil {
		out.Concepts = []Concept{}
	}
	if out.Relationships == nil {
		out.Relationships = []Relationship{}
	}
	return out
}
