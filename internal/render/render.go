// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes concept maps and paper outlines as JSON, YAML, or
// styled terminal text.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper2cmap/pkg/types"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml, or text)", s)
	}
}

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	edgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// Map writes m to w in format f.
func Map(w io.Writer, m types.ConceptMap, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, m)
	case FormatYAML:
		return writeYAML(w, m)
	case FormatText:
		_, err := io.WriteString(w, mapText(m))
		return err
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// outline is the serialised view of a loaded paper.
type outline struct {
	Path      string          `json:"path" yaml:"path"`
	Catalogue []string        `json:"catalogue" yaml:"catalogue"`
	Sections  []sectionDigest `json:"sections" yaml:"sections"`
}

type sectionDigest struct {
	Index  int    `json:"index" yaml:"index"`
	Title  string `json:"title" yaml:"title"`
	Offset int    `json:"offset" yaml:"offset"`
	Chars  int    `json:"chars" yaml:"chars"`
}

// Outline writes the catalogue and section layout of p to w in format f.
func Outline(w io.Writer, p *types.Paper, f Format) error {
	o := outline{Path: p.Path, Catalogue: p.Catalogue, Sections: make([]sectionDigest, len(p.Sections))}
	if o.Catalogue == nil {
		o.Catalogue = []string{}
	}
	for i, s := range p.Sections {
		o.Sections[i] = sectionDigest{Index: s.Index, Title: s.Title, Offset: s.Offset, Chars: len(s.Text)}
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, o)
	case FormatYAML:
		return writeYAML(w, o)
	case FormatText:
		_, err := io.WriteString(w, outlineText(o))
		return err
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func mapText(m types.ConceptMap) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", headingStyle.Render("Concepts"), dimStyle.Render(fmt.Sprintf("(%d)", len(m.Concepts))))
	for _, c := range m.Concepts {
		if c.Description != "" {
			fmt.Fprintf(&b, "  • %s  %s\n", labelStyle.Render(c.Label), dimStyle.Render(c.Description))
		} else {
			fmt.Fprintf(&b, "  • %s\n", labelStyle.Render(c.Label))
		}
	}

	fmt.Fprintf(&b, "\n%s %s\n", headingStyle.Render("Relationships"), dimStyle.Render(fmt.Sprintf("(%d)", len(m.Relationships))))
	for _, r := range m.Relationships {
		fmt.Fprintf(&b, "  %s %s %s\n", r.Source, edgeStyle.Render("--"+r.Label+"-->"), r.Target)
	}
	return b.String()
}

func outlineText(o outline) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", headingStyle.Render("Catalogue"), dimStyle.Render(o.Path))
	for _, title := range o.Catalogue {
		fmt.Fprintf(&b, "  • %s\n", title)
	}

	fmt.Fprintf(&b, "\n%s %s\n", headingStyle.Render("Sections"), dimStyle.Render(fmt.Sprintf("(%d)", len(o.Sections))))
	for _, s := range o.Sections {
		title := s.Title
		if title == "" {
			title = "(whole document)"
		}
		fmt.Fprintf(&b, "  %3d  %s %s\n", s.Index, labelStyle.Render(title),
			dimStyle.Render(fmt.Sprintf("@%d, %d chars", s.Offset, s.Chars)))
	}
	return b.String()
}
