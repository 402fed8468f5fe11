// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mximoph/mximoph/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted chat sessions",
	Long: `Sessions lists, inspects, and removes persisted chat runs. Runs are
scoped to a user ID and listed newest first.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List session run IDs for a user, newest first",
	RunE:  runSessionsList,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openSessions(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	user, _ := cmd.Flags().GetString("user")
	ids, err := store.ListRunIDs(cmd.Context(), user)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ids)
	}

	if len(ids) == 0 {
		fmt.Printf("No sessions for user %q.\n", user)
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openSessions(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Run %s (user %s, %d messages, created %s)\n\n",
		run.ID, run.UserID, len(run.Messages), run.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, m := range run.Messages {
		fmt.Printf("[%s] %s\n\n", m.Role, m.Content)
	}
	return nil
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <run-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRm,
}

func runSessionsRm(cmd *cobra.Command, args []string) error {
	store, err := openSessions(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s.\n", args[0])
	return nil
}

func openSessions(cmd *cobra.Command) (*session.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.Open(cmd.Context(), cfg.Storage)
}

func init() {
	sessionsCmd.PersistentFlags().String("user", "default_user", "user ID for session scoping")
	sessionsCmd.PersistentFlags().Bool("json", false, "output as JSON")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)

	rootCmd.AddCommand(sessionsCmd)
}
