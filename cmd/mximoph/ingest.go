// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/ingest"
	"github.com/mximoph/mximoph/internal/vectordb"
	"github.com/mximoph/mximoph/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url-or-path...]",
	Short: "Download, convert, embed, and index research papers",
	Long: `Ingest processes PDF sources into the knowledge base. Sources are given
as arguments (URLs or local file paths) or listed in a YAML file via
--sources. Each PDF is downloaded if remote, converted to text, split
into overlapping chunks, embedded, and stored.

Already-ingested documents are skipped; use --force to reprocess them,
or --recreate to drop the whole collection first.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sources, err := collectSources(cmd, args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources: pass URLs or paths as arguments, or --sources FILE")
	}

	applyIngestFlags(cmd, &cfg)

	embedder := embed.NewServerEmbedder(cfg.Embedding)
	store, err := vectordb.Open(cmd.Context(), cfg.Storage, embedder.Dimension())
	if err != nil {
		return err
	}
	defer store.Close()

	if recreate, _ := cmd.Flags().GetBool("recreate"); recreate {
		if err := store.DropCollection(cmd.Context()); err != nil {
			return fmt.Errorf("recreating collection: %w", err)
		}
	}
	if err := store.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	converter, err := ingest.NewConverter(cfg.Ingestion.Converter)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	pipeline := &ingest.Pipeline{
		Client:    &http.Client{Timeout: cfg.Ingestion.Timeout},
		Converter: converter,
		Embedder:  embedder,
		Store:     store,
		Config:    cfg.Ingestion,
		Force:     force,
	}

	summary, err := pipeline.Run(cmd.Context(), sources, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d source(s) failed", summary.Failed)
	}
	return nil
}

func collectSources(cmd *cobra.Command, args []string) ([]ingest.Source, error) {
	sources := ingest.ParseArgs(args)

	sourcesFile, _ := cmd.Flags().GetString("sources")
	if sourcesFile != "" {
		fromFile, err := ingest.LoadSources(sourcesFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile...)
	}
	return sources, nil
}

// applyIngestFlags overlays command-line flags onto the resolved config.
func applyIngestFlags(cmd *cobra.Command, cfg *types.Config) {
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		cfg.Ingestion.Timeout = timeout
	}
	if cmd.Flags().Changed("delay") {
		delay, _ := cmd.Flags().GetDuration("delay")
		cfg.Ingestion.DownloadDelay = delay
	}
	if cmd.Flags().Changed("converter") {
		converter, _ := cmd.Flags().GetString("converter")
		cfg.Ingestion.Converter = types.ConverterBackend(converter)
	}
}

func init() {
	ingestCmd.Flags().String("sources", "", "YAML file listing sources to ingest")
	ingestCmd.Flags().Bool("recreate", false, "drop and rebuild the collection before ingesting")
	ingestCmd.Flags().Bool("force", false, "reprocess documents that were already ingested")
	ingestCmd.Flags().Duration("timeout", 0, "HTTP timeout for downloads (0 = config default)")
	ingestCmd.Flags().Duration("delay", 0, "delay between downloads (0 = config default)")
	ingestCmd.Flags().String("converter", "", "PDF converter backend: pdftotext or container")

	rootCmd.AddCommand(ingestCmd)
}
