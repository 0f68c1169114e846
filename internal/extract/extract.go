// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls raw text and short positioned text fragments out of
// a PDF. Fragments in the title length window are the candidates the
// segmenter offers to the model as possible section titles.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

const (
	defaultTitleMinLen = 5
	defaultTitleMaxLen = 50
)

// Row is one line of positioned text on a page.
type Row struct {
	Text     string
	X, Y     float64
	FontSize float64
}

// Document is an opened PDF. Pages are numbered from 1.
type Document interface {
	NumPage() int
	PageText(page int) (string, error)
	PageRows(page int) ([]Row, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// Extraction is the result of reading one PDF.
type Extraction struct {
	// FullText is the page-ordered concatenation of page text.
	FullText string

	// Fragments are rows whose trimmed length lies in the title window.
	Fragments []types.Fragment
}

// Candidates returns the distinct fragment texts in first-seen order.
func (e *Extraction) Candidates() []string {
	seen := make(map[string]bool, len(e.Fragments))
	var out []string
	for _, f := range e.Fragments {
		if seen[f.Text] {
			continue
		}
		seen[f.Text] = true
		out = append(out, f.Text)
	}
	return out
}

// Extractor reads PDFs through an Opener.
type Extractor struct {
	open   Opener
	minLen int
	maxLen int
	log    *logging.Logger
}

// NewExtractor creates an extractor. A nil open uses OpenPDF; zero title
// bounds fall back to 5 (exclusive) and 50 (inclusive).
func NewExtractor(open Opener, cfg types.ExtractionConfig, log *logging.Logger) *Extractor {
	if open == nil {
		open = OpenPDF
	}
	if log == nil {
		log = logging.Nop()
	}
	minLen, maxLen := cfg.TitleMinLen, cfg.TitleMaxLen
	if minLen <= 0 {
		minLen = defaultTitleMinLen
	}
	if maxLen <= 0 {
		maxLen = defaultTitleMaxLen
	}
	return &Extractor{open: open, minLen: minLen, maxLen: maxLen, log: log}
}

// Extract reads every page of the PDF at path. Failures to open or read
// wrap types.ErrExtraction. A document without pages yields an empty
// Extraction and no error.
func (e *Extractor) Extract(path string) (result *Extraction, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: reading %s: %v", types.ErrExtraction, path, r)
		}
	}()

	doc, err := e.open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", types.ErrExtraction, path, err)
	}
	defer doc.Close()

	var text strings.Builder
	result = &Extraction{}

	for page := 1; page <= doc.NumPage(); page++ {
		pageText, err := doc.PageText(page)
		if err != nil {
			return nil, fmt.Errorf("%w: reading text of page %d: %v", types.ErrExtraction, page, err)
		}
		text.WriteString(pageText)

		rows, err := doc.PageRows(page)
		if err != nil {
			return nil, fmt.Errorf("%w: reading layout of page %d: %v", types.ErrExtraction, page, err)
		}
		for _, row := range rows {
			candidate := strings.TrimSpace(row.Text)
			if !e.inTitleWindow(candidate) {
				continue
			}
			result.Fragments = append(result.Fragments, types.Fragment{
				Text:     candidate,
				Page:     page,
				X:        row.X,
				Y:        row.Y,
				FontSize: row.FontSize,
			})
		}
	}

	result.FullText = text.String()
	e.log.Debug("extracted candidate catalogue", "path", path, "candidates", result.Candidates())
	e.log.Info("extracted paper text", "path", path, "pages", doc.NumPage(), "chars", len(result.FullText), "fragments", len(result.Fragments))
	return result, nil
}

func (e *Extractor) inTitleWindow(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > e.minLen && n <= e.maxLen
}
