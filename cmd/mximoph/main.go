// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mximoph CLI.
// Implements: prd001-ingestion, prd003-storage, prd004-sessions,
//             prd005-assistant (CLI surface).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mximoph/mximoph/internal/config"
	"github.com/mximoph/mximoph/internal/log"
	"github.com/mximoph/mximoph/internal/secrets"
	"github.com/mximoph/mximoph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the mximoph CLI.
var rootCmd = &cobra.Command{
	Use:   "mximoph",
	Short: "Chat with a private library of research papers",
	Long: `mximoph ingests research-paper PDFs into a vector knowledge base and
answers questions about them through a Claude-backed chat assistant.

Ingestion downloads PDFs, extracts their text, chunks and embeds it, and
stores the vectors in Postgres (pgvector) or SQLite. The chat assistant
retrieves the most relevant chunks for each question and grounds its
answers in them, with sessions persisted across restarts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

// loadConfig resolves the effective configuration: defaults, config file,
// environment, then secrets for credentials the file omits.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}

	if cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = loadedSecrets[secrets.KeyAnthropic]
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = loadedSecrets[secrets.KeyEmbedder]
	}
	if dsn, ok := loadedSecrets[secrets.KeyPostgresDSN]; ok && dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if err := config.Validate(cfg); err != nil {
		return types.Config{}, err
	}
	if err := log.Configure(cfg.Log); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mximoph.yaml or ~/.config/mximoph/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mximoph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mximoph"))
		}
	}

	viper.SetEnvPrefix("MXIMOPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
