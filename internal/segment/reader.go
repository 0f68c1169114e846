// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"context"
	"fmt"

	"github.com/pdiddy/paper2cmap/internal/extract"
	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Extractor is the text extraction capability a Reader depends on.
type Extractor interface {
	Extract(path string) (*extract.Extraction, error)
}

// Reader loads a paper: extract, identify the catalogue, split.
type Reader struct {
	extractor Extractor
	segmenter *Segmenter
	log       *logging.Logger
}

// NewReader creates a Reader from its two stages.
func NewReader(extractor Extractor, segmenter *Segmenter, log *logging.Logger) *Reader {
	if log == nil {
		log = logging.Nop()
	}
	return &Reader{extractor: extractor, segmenter: segmenter, log: log}
}

// Read builds the paper state for the PDF at path.
func (r *Reader) Read(ctx context.Context, path string) (*types.Paper, error) {
	ex, err := r.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	r.log.Info("full text size", "chars", len(ex.FullText))

	catalogue, sections, err := r.segmenter.Segment(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &types.Paper{
		Path:      path,
		FullText:  ex.FullText,
		Fragments: ex.Fragments,
		Catalogue: catalogue,
		Sections:  sections,
	}, nil
}
