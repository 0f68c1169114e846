// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognised key files: openai-api-key, azure-openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper2cmap/internal/logging"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

const (
	OpenAIKey = "openai-api-key"
	AzureKey  = "azure-openai-api-key"
)

// Store is the set of secrets read from one directory.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty store. Unreadable files are logged and
// skipped.
func Load(dir string, log *logging.Logger) (Store, error) {
	if log == nil {
		log = logging.Nop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}
	return store, nil
}

// APIKey returns the stored key for backend, or "" when the backend needs
// none or the file is absent.
func (s Store) APIKey(backend types.Backend) string {
	switch backend {
	case types.BackendOpenAI:
		return s[OpenAIKey]
	case types.BackendAzure:
		return s[AzureKey]
	default:
		return ""
	}
}
