// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Fragment is a short run of positioned text pulled from a PDF page layout.
// Fragments whose length falls in the title window are section-title
// candidates.
type Fragment struct {
	// Text is the trimmed fragment text.
	Text string `json:"text" yaml:"text"`

	// Page is the 1-based page number the fragment appears on.
	Page int `json:"page" yaml:"page"`

	// X and Y locate the first glyph of the fragment in PDF user space.
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`

	// FontSize is the size of the first glyph.
	FontSize float64 `json:"font_size" yaml:"font_size"`
}

// Section is a contiguous slice of a paper's full text bounded by two
// catalogue title occurrences, or by the end of the document.
type Section struct {
	// Index is the 0-based position of the section in reading order.
	Index int `json:"index" yaml:"index"`

	// Title is the catalogue entry found at Offset, empty when the section
	// was not opened by a title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Offset is the byte offset of the section start in the full text.
	Offset int `json:"offset" yaml:"offset"`

	// Text is the section span with surrounding whitespace trimmed.
	Text string `json:"text" yaml:"text"`
}

// Paper holds the state derived from one loaded PDF. It is created by a
// load and never modified afterwards.
type Paper struct {
	// Path is the filesystem path the paper was loaded from.
	Path string `json:"path" yaml:"path"`

	// FullText is the page-ordered concatenation of extracted page text.
	FullText string `json:"-" yaml:"-"`

	// Fragments are the title candidates that were offered to the model.
	Fragments []Fragment `json:"fragments,omitempty" yaml:"fragments,omitempty"`

	// Catalogue is the ordered list of recognised section titles.
	Catalogue []string `json:"catalogue" yaml:"catalogue"`

	// Sections are the segmented spans of FullText, in reading order.
	Sections []Section `json:"sections" yaml:"sections"`
}
