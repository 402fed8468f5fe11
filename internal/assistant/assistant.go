// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant answers questions grounded in the knowledge base. Each
// question is embedded, the nearest chunks are retrieved, and the chat
// model is prompted with those excerpts plus the session history.
// Per prd005-assistant R1-R4.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/log"
	"github.com/mximoph/mximoph/internal/session"
	"github.com/mximoph/mximoph/internal/vectordb"
	"github.com/mximoph/mximoph/pkg/types"
)

// systemPromptTmpl grounds the model in retrieved excerpts. Without
// excerpts the model is told to say so rather than invent sources.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are a research assistant answering questions about a private library of research papers.
{{if .Excerpts}}
Ground your answers in the numbered excerpts below. Cite excerpts inline as [1], [2], and so on. If the excerpts do not cover the question, say so before answering from general knowledge.

Excerpts:
{{range .Excerpts}}
[{{.Number}}] ({{.Title}}, chunk {{.Position}})
{{.Content}}
{{end}}{{else}}
The document library returned no relevant excerpts for this question. Say so, then answer from general knowledge if you can.
{{end}}
Format your answers in Markdown.`))

type promptExcerpt struct {
	Number   int
	Title    string
	Position int
	Content  string
}

// Assistant holds the wiring for one chat session.
type Assistant struct {
	Backend    ChatBackend
	Embedder   embed.Embedder
	Store      vectordb.VectorDB
	Sessions   *session.Store
	MaxResults int

	// HistoryLimit caps how many prior messages are replayed per
	// request. Zero replays the whole run.
	HistoryLimit int

	run *types.Run
}

// Start resolves the assistant's run: the user's most recent run unless
// newSession is set or none exists. It returns whether an existing run
// was resumed. Per prd004-sessions R3.1-R3.3.
func (a *Assistant) Start(ctx context.Context, userID string, newSession bool) (resumed bool, err error) {
	if !newSession {
		run, err := a.Sessions.Resume(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("resuming session: %w", err)
		}
		if run != nil {
			a.run = run
			return true, nil
		}
	}

	run, err := a.Sessions.Create(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("starting session: %w", err)
	}
	a.run = run
	return false, nil
}

// Run returns the active run. Nil before Start.
func (a *Assistant) Run() *types.Run {
	return a.run
}

// Ask answers one question: retrieve, prompt, persist. The retrieved
// chunks are returned for source display. Retrieval is best-effort; an
// empty or unreachable store degrades to an ungrounded answer (R2.3).
func (a *Assistant) Ask(ctx context.Context, question string) (string, []types.ScoredChunk, error) {
	if a.run == nil {
		return "", nil, fmt.Errorf("no active session: call Start first")
	}

	chunks := a.retrieve(ctx, question)
	system, err := renderSystemPrompt(chunks)
	if err != nil {
		return "", nil, err
	}

	userMsg := types.Message{
		Role:      types.RoleUser,
		Content:   question,
		CreatedAt: time.Now().UTC(),
	}

	msgs := append(a.historyWindow(), userMsg)
	answer, err := a.Backend.Converse(ctx, system, msgs)
	if err != nil {
		return "", nil, fmt.Errorf("chat request: %w", err)
	}

	assistantMsg := types.Message{
		Role:      types.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Sessions.Append(ctx, a.run.ID, userMsg, assistantMsg); err != nil {
		return "", nil, fmt.Errorf("persisting turn: %w", err)
	}
	a.run.Messages = append(a.run.Messages, userMsg, assistantMsg)

	return answer, chunks, nil
}

// retrieve embeds the question and queries the vector store. Failures are
// logged and degrade to no excerpts.
func (a *Assistant) retrieve(ctx context.Context, question string) []types.ScoredChunk {
	logger := log.WithComponent("assistant")

	vec, err := embed.EmbedOne(ctx, a.Embedder, question)
	if err != nil {
		logger.Warn().Err(err).Msg("query embedding failed, answering without excerpts")
		return nil
	}

	limit := a.MaxResults
	if limit <= 0 {
		limit = 5
	}
	// Pure vector search: a lexical hint here would narrow candidates to
	// chunks sharing the question's words and could exclude the true
	// nearest neighbours.
	chunks, err := a.Store.Search(ctx, vec, "", limit)
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval failed, answering without excerpts")
		return nil
	}
	return chunks
}

// historyWindow returns the most recent messages of the run, bounded by
// HistoryLimit (R4.1).
func (a *Assistant) historyWindow() []types.Message {
	history := a.run.Messages
	if a.HistoryLimit > 0 && len(history) > a.HistoryLimit {
		history = history[len(history)-a.HistoryLimit:]
	}
	out := make([]types.Message, len(history))
	copy(out, history)
	return out
}

func renderSystemPrompt(chunks []types.ScoredChunk) (string, error) {
	excerpts := make([]promptExcerpt, 0, len(chunks))
	for i, c := range chunks {
		title := c.DocumentTitle
		if title == "" {
			title = c.DocumentID
		}
		excerpts = append(excerpts, promptExcerpt{
			Number:   i + 1,
			Title:    title,
			Position: c.Position,
			Content:  strings.TrimSpace(c.Content),
		})
	}

	var b strings.Builder
	if err := systemPromptTmpl.Execute(&b, struct{ Excerpts []promptExcerpt }{excerpts}); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return b.String(), nil
}
