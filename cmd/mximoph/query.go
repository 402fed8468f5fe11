// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/vectordb"
	"github.com/mximoph/mximoph/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the knowledge base by semantic similarity",
	Long: `Query embeds the search text and returns the most similar chunks from
the knowledge base, ranked by cosine similarity. Results include the
source document and chunk position for provenance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	queryText := strings.Join(args, " ")

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Retrieval.MaxResults
	}

	embedder := embed.NewServerEmbedder(cfg.Embedding)
	store, err := vectordb.Open(cmd.Context(), cfg.Storage, embedder.Dimension())
	if err != nil {
		return err
	}
	defer store.Close()

	vec, err := embed.EmbedOne(cmd.Context(), embedder, queryText)
	if err != nil {
		return err
	}

	results, err := store.Search(cmd.Context(), vec, queryText, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []types.ScoredChunk, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-30s  %-5s  %s\n",
		"Rank", "Score", "Document", "Chunk", "Content")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		title := r.DocumentTitle
		if title == "" {
			title = r.DocumentID
		}
		content := strings.Join(strings.Fields(r.Content), " ")
		fmt.Fprintf(w, "%-4d  %-6.3f  %-30s  %-5d  %s\n",
			i+1, r.Score, truncate(title, 30), r.Position, truncate(content, 60))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most max runes, replacing the tail with an
// ellipsis. Truncation counts runes so multibyte text is never cut
// mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = config default)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}
