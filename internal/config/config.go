// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates the application configuration.
// Defaults assume the local pgvector container on port 5532 and a local
// embedding server; a config file or MXIMOPH_* environment variables
// override them.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/mximoph/mximoph/pkg/types"
)

// Default returns the built-in configuration.
func Default() types.Config {
	return types.Config{
		Storage: types.StorageConfig{
			Backend:      types.BackendPgvector,
			DSN:          "postgres://ai:ai@localhost:5532/ai?sslmode=disable",
			Path:         "data/mximoph.db",
			Collection:   "science_docs",
			SessionTable: "science_assistant",
		},
		Embedding: types.EmbeddingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "mximoph/0.1",
			},
			ServerURL: "http://localhost:8080",
			Model:     "all-MiniLM-L6-v2",
			Dimension: 384,
			BatchSize: 32,
		},
		Ingestion: types.IngestionConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "mximoph/0.1",
			},
			DocumentsDir:  "documents",
			DownloadDelay: time.Second,
			Converter:     types.ConverterPdftotext,
			ChunkSize:     1500,
			ChunkOverlap:  200,
		},
		Retrieval: types.RetrievalConfig{
			MaxResults: 5,
		},
		Assistant: types.AssistantConfig{
			Model:        "claude-sonnet-4-5-20250929",
			MaxTokens:    4096,
			HistoryLimit: 20,
		},
		Log: types.LogConfig{
			Level: "info",
		},
	}
}

// Load unmarshals the configuration from v on top of the defaults and
// validates the result. Field-level validation failures are reported with
// their config path.
func Load(v *viper.Viper) (types.Config, error) {
	cfg := Default()

	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks structural constraints on cfg.
func Validate(cfg types.Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config: field %s fails %q", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Ingestion.ChunkOverlap >= cfg.Ingestion.ChunkSize {
		return fmt.Errorf("invalid config: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.Ingestion.ChunkOverlap, cfg.Ingestion.ChunkSize)
	}

	if cfg.Storage.Backend == types.BackendPgvector && cfg.Storage.DSN == "" {
		return fmt.Errorf("invalid config: storage.dsn is required for the pgvector backend")
	}
	if cfg.Storage.Backend == types.BackendSQLite && cfg.Storage.Path == "" {
		return fmt.Errorf("invalid config: storage.path is required for the sqlite backend")
	}

	return nil
}
