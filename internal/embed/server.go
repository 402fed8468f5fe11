// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mximoph/mximoph/internal/httputil"
	"github.com/mximoph/mximoph/pkg/types"
)

// ServerEmbedder calls a text-embeddings-inference compatible server.
// The server hosts the sentence-transformer model (all-MiniLM-L6-v2 by
// default); this process only ships text over HTTP.
type ServerEmbedder struct {
	cfg    types.EmbeddingConfig
	client *http.Client
}

// NewServerEmbedder builds an embedder for the configured server.
func NewServerEmbedder(cfg types.EmbeddingConfig) *ServerEmbedder {
	return &ServerEmbedder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Dimension returns the configured vector length.
func (s *ServerEmbedder) Dimension() int { return s.cfg.Dimension }

// embedRequest is the text-embeddings-inference request body.
type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed posts texts to the server in configured batch sizes and
// concatenates the results. Every vector is validated against the
// configured dimension before being returned (R2.2).
func (s *ServerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := s.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}

	if err := checkDimensions(out, len(texts), s.cfg.Dimension); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ServerEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	url := strings.TrimRight(s.cfg.ServerURL, "/") + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling embedding server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding server returned %d: %s", resp.StatusCode, string(msg))
	}

	var vecs [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vecs); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	return vecs, nil
}
