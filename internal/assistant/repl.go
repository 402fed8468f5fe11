// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mximoph/mximoph/pkg/types"
)

const prompt = ">>> "

// REPL runs the interactive chat loop until /quit or EOF. Input lines
// starting with "/" are commands; everything else is sent to the model.
func (a *Assistant) REPL(ctx context.Context, in io.Reader, out io.Writer, userID string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := a.command(ctx, out, userID, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		answer, chunks, err := a.Ask(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, answer)
		printSources(out, chunks)
	}
}

func (a *Assistant) command(ctx context.Context, out io.Writer, userID, line string) (quit bool, err error) {
	switch line {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		if _, err := a.Start(ctx, userID, true); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "started session %s\n", a.run.ID)
	case "/history":
		if len(a.run.Messages) == 0 {
			fmt.Fprintln(out, "no messages yet")
			break
		}
		for _, m := range a.run.Messages {
			fmt.Fprintf(out, "[%s] %s\n", m.Role, m.Content)
		}
	default:
		fmt.Fprintf(out, "unknown command %q (try /new, /history, /quit)\n", line)
	}
	return false, nil
}

// printSources lists the documents behind the answer, deduplicated and
// in retrieval order.
func printSources(out io.Writer, chunks []types.ScoredChunk) {
	if len(chunks) == 0 {
		return
	}
	seen := make(map[string]bool)
	var titles []string
	for _, c := range chunks {
		title := c.DocumentTitle
		if title == "" {
			title = c.DocumentID
		}
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}
	fmt.Fprintf(out, "\nsources: %s\n", strings.Join(titles, "; "))
}
