package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Map builds the CLI and prints the concept map of pdf as text.
func Map(pdf string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "generate", "--format", "text", pdf)
}

// Sections builds the CLI and prints the section outline of pdf.
func Sections(pdf string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "sections", pdf)
}
