// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mximoph/mximoph/internal/container"
	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/vectordb"
)

const (
	pgvectorContainer = "mximoph-pgvector"
	pgvectorImage     = "pgvector/pgvector:pg16"
)

// pgvectorSpec matches the DSN defaults: Postgres on host port 5532 with
// user, password, and database all "ai".
func pgvectorSpec() container.ServiceSpec {
	return container.ServiceSpec{
		Name:  pgvectorContainer,
		Image: pgvectorImage,
		Ports: []string{"5532:5432"},
		Env: []string{
			"POSTGRES_USER=ai",
			"POSTGRES_PASSWORD=ai",
			"POSTGRES_DB=ai",
		},
		Volumes: []string{"mximoph-pgdata:/var/lib/postgresql/data"},
	}
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the vector store and its database container",
	Long: `Store manages the pgvector database container the assistant uses by
default, and the vector collection inside it. The sqlite backend needs
no container; up and down are pgvector-only.`,
}

var storeUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the pgvector database container",
	RunE:  runStoreUp,
}

func runStoreUp(cmd *cobra.Command, args []string) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}

	running, err := rt.Running(pgvectorContainer)
	if err != nil {
		return err
	}
	if running {
		fmt.Printf("%s is already running.\n", pgvectorContainer)
		return nil
	}

	if err := rt.RunDetached(pgvectorSpec()); err != nil {
		return fmt.Errorf("starting pgvector: %w", err)
	}
	fmt.Printf("Started %s (%s) on port 5532.\n", pgvectorContainer, pgvectorImage)
	return nil
}

var storeDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the pgvector database container",
	RunE:  runStoreDown,
}

func runStoreDown(cmd *cobra.Command, args []string) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	if err := rt.Stop(pgvectorContainer); err != nil {
		return fmt.Errorf("stopping pgvector: %w", err)
	}
	fmt.Printf("Stopped %s.\n", pgvectorContainer)
	return nil
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container state and collection statistics",
	RunE:  runStoreStatus,
}

func runStoreStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if rt, err := container.DetectRuntime(); err == nil {
		running, err := rt.Running(pgvectorContainer)
		switch {
		case err != nil:
			fmt.Printf("Container: unknown (%v)\n", err)
		case running:
			fmt.Printf("Container: %s running (%s)\n", pgvectorContainer, rt.Name())
		default:
			fmt.Printf("Container: %s not running\n", pgvectorContainer)
		}
	}

	store, err := vectordb.Open(cmd.Context(), cfg.Storage, cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Backend:   %s\n", cfg.Storage.Backend)
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	return nil
}

var storeDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the vector collection",
	Long: `Drop removes the vector collection and all indexed chunks. The next
ingest rebuilds the schema from scratch. Requires --yes.`,
	RunE: runStoreDrop,
}

func runStoreDrop(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("refusing to drop collection without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder := embed.NewServerEmbedder(cfg.Embedding)
	store, err := vectordb.Open(cmd.Context(), cfg.Storage, embedder.Dimension())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DropCollection(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("Dropped collection %s.\n", cfg.Storage.Collection)
	return nil
}

func init() {
	storeDropCmd.Flags().Bool("yes", false, "confirm dropping the collection")

	storeCmd.AddCommand(storeUpCmd)
	storeCmd.AddCommand(storeDownCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeDropCmd)

	rootCmd.AddCommand(storeCmd)
}
