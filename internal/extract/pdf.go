// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wordGap is the horizontal gap, as a fraction of the font size, above
// which two glyph runs on a row are joined with a space.
const wordGap = 0.15

// pdfDocument reads the embedded text layer with ledongthuc/pdf. Scanned
// (image-only) pages produce no text.
type pdfDocument struct {
	f     *os.File
	r     *pdf.Reader
	fonts map[string]*pdf.Font
}

// OpenPDF opens path with the pure-Go PDF reader.
func OpenPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfDocument{f: f, r: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (d *pdfDocument) NumPage() int {
	return d.r.NumPage()
}

func (d *pdfDocument) PageText(page int) (string, error) {
	p := d.r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			font := p.Font(name)
			d.fonts[name] = &font
		}
	}
	return p.GetPlainText(d.fonts)
}

func (d *pdfDocument) PageRows(page int) ([]Row, error) {
	p := d.r.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if len(row.Content) == 0 {
			continue
		}
		out = append(out, Row{
			Text:     joinGlyphs(row.Content),
			X:        row.Content[0].X,
			Y:        row.Content[0].Y,
			FontSize: row.Content[0].FontSize,
		})
	}
	return out, nil
}

func (d *pdfDocument) Close() error {
	return d.f.Close()
}

// joinGlyphs concatenates the glyph runs of one row, inserting a space
// where the gap to the previous run looks like a word break.
func joinGlyphs(texts pdf.TextHorizontal) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > wordGap*t.FontSize && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}
