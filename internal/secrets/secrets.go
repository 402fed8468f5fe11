// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. Each file is one secret: the filename is the key name
// and the trimmed file contents are the value.
//
// Supported key files: anthropic-api-key, embedder-api-key, postgres-dsn.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mximoph/mximoph/internal/log"
)

// Names of the secrets the assistant understands.
const (
	KeyAnthropic   = "anthropic-api-key"
	KeyEmbedder    = "embedder-api-key"
	KeyPostgresDSN = "postgres-dsn"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning but do not abort. Dotfiles and empty
// values are skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	logger := log.WithComponent("secrets")
	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Str("secret", name).Err(err).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
