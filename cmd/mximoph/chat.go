// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mximoph/mximoph/internal/assistant"
	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/session"
	"github.com/mximoph/mximoph/internal/vectordb"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant about the ingested papers",
	Long: `Chat starts an interactive session with the assistant. Each question is
answered from the most relevant chunks in the knowledge base, with the
source documents listed under the answer.

The most recent session for the user is resumed unless --new-session is
given. Inside the session, /new starts a fresh session, /history prints
the conversation so far, and /quit exits.

Use --ask for a single question without entering the interactive loop.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Assistant.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: set assistant.api_key or .secrets/anthropic-api-key")
	}

	embedder := embed.NewServerEmbedder(cfg.Embedding)
	store, err := vectordb.Open(cmd.Context(), cfg.Storage, embedder.Dimension())
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := session.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}
	defer sessions.Close()

	a := &assistant.Assistant{
		Backend: &assistant.ClaudeBackend{
			APIKey:    cfg.Assistant.APIKey,
			Model:     cfg.Assistant.Model,
			MaxTokens: cfg.Assistant.MaxTokens,
		},
		Embedder:     embedder,
		Store:        store,
		Sessions:     sessions,
		MaxResults:   cfg.Retrieval.MaxResults,
		HistoryLimit: cfg.Assistant.HistoryLimit,
	}

	user, _ := cmd.Flags().GetString("user")
	newSession, _ := cmd.Flags().GetBool("new-session")

	resumed, err := a.Start(cmd.Context(), user, newSession)
	if err != nil {
		return err
	}

	if ask, _ := cmd.Flags().GetString("ask"); ask != "" {
		answer, _, err := a.Ask(cmd.Context(), ask)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	if resumed {
		fmt.Fprintf(os.Stdout, "Resumed session %s (%d messages). Type /quit to exit.\n",
			a.Run().ID, len(a.Run().Messages))
	} else {
		fmt.Fprintf(os.Stdout, "Started session %s. Type /quit to exit.\n", a.Run().ID)
	}

	return a.REPL(cmd.Context(), os.Stdin, os.Stdout, user)
}

func init() {
	chatCmd.Flags().String("user", "default_user", "user ID for session scoping")
	chatCmd.Flags().Bool("new-session", false, "start a fresh session instead of resuming")
	chatCmd.Flags().String("ask", "", "ask a single question and exit")

	rootCmd.AddCommand(chatCmd)
}
