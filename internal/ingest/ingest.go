// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads PDF documents into the knowledge base: download,
// text extraction, chunking, embedding, and vector upsert.
// Per prd001-ingestion R1-R5.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mximoph/mximoph/internal/embed"
	"github.com/mximoph/mximoph/internal/log"
	"github.com/mximoph/mximoph/internal/vectordb"
	"github.com/mximoph/mximoph/pkg/types"
)

const (
	rawDir  = "raw"
	textDir = "text"
	metaDir = "metadata"
)

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	Client    *http.Client
	Converter Converter
	Embedder  embed.Embedder
	Store     vectordb.VectorDB
	Config    types.IngestionConfig

	// Force reprocesses documents whose text output already exists.
	Force bool
}

// Summary holds counts from a batch ingestion run (R5.3).
type Summary struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Total returns the number of sources processed.
func (s Summary) Total() int {
	return s.Ingested + s.Skipped + s.Failed
}

// HasFailures reports whether any sources failed (R5.4).
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Run processes all sources, printing per-source status to w and
// returning a summary. Individual failures are reported and counted but
// do not abort the batch (R5.2).
func (p *Pipeline) Run(ctx context.Context, sources []Source, w io.Writer) (Summary, error) {
	for _, dir := range []string{
		filepath.Join(p.Config.DocumentsDir, rawDir),
		filepath.Join(p.Config.DocumentsDir, textDir),
		filepath.Join(p.Config.DocumentsDir, metaDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	var summary Summary
	for i, src := range sources {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if i > 0 && p.Config.DownloadDelay > 0 && src.URL != "" {
			time.Sleep(p.Config.DownloadDelay)
		}

		skipped, err := p.ingestSource(ctx, src, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:   %s (%v)\n", src.Slug(), err)
			summary.Failed++
		case skipped:
			summary.Skipped++
		default:
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d ingested, %d skipped, %d failed (total: %d)\n",
		summary.Ingested, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

// ingestSource runs one document through the pipeline. A document whose
// extracted text already exists is considered ingested and skipped unless
// Force is set (R2.5).
func (p *Pipeline) ingestSource(ctx context.Context, src Source, w io.Writer) (skipped bool, err error) {
	slug := src.Slug()
	if slug == "" {
		return false, fmt.Errorf("cannot derive document id from source")
	}

	textPath := filepath.Join(p.Config.DocumentsDir, textDir, slug+".txt")
	if !p.Force {
		if _, statErr := os.Stat(textPath); statErr == nil {
			fmt.Fprintf(w, "skipped:  %s (already ingested)\n", slug)
			return true, nil
		}
	}

	pdfPath, err := p.localPDF(ctx, src, slug, w)
	if err != nil {
		return false, err
	}

	text, err := p.Converter.Convert(pdfPath)
	if err != nil {
		return false, fmt.Errorf("extracting text: %w", err)
	}

	chunks := ChunkText(slug, text, p.Config.ChunkSize, p.Config.ChunkOverlap)
	if len(chunks) == 0 {
		return false, fmt.Errorf("document produced no chunks")
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return false, err
	}

	// Chunk IDs are content hashes, so changed text produces new IDs and
	// would leave the old version's rows behind. Clear the document first
	// so re-ingest replaces it wholesale.
	if err := p.Store.DeleteDocument(ctx, slug); err != nil {
		return false, fmt.Errorf("clearing previous chunks: %w", err)
	}
	if err := p.Store.Upsert(ctx, chunks, src.DisplayTitle()); err != nil {
		return false, fmt.Errorf("storing chunks: %w", err)
	}

	if err := p.writeMetadata(src, slug, pdfPath); err != nil {
		return false, err
	}

	// The text file doubles as the ingestion marker; write it last so a
	// failed run is retried from scratch.
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return false, fmt.Errorf("writing text output: %w", err)
	}

	logger := log.WithComponent("ingest")
	logger.Info().
		Str("document", slug).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	fmt.Fprintf(w, "ingested: %s (%d chunks)\n", slug, len(chunks))
	return false, nil
}

// localPDF resolves the source to an on-disk PDF, downloading it when the
// source is a URL. Already-downloaded PDFs are reused (R2.3).
func (p *Pipeline) localPDF(ctx context.Context, src Source, slug string, w io.Writer) (string, error) {
	if src.URL == "" {
		if _, err := os.Stat(src.Path); err != nil {
			return "", fmt.Errorf("reading %s: %w", src.Path, err)
		}
		return src.Path, nil
	}

	pdfPath := filepath.Join(p.Config.DocumentsDir, rawDir, slug+".pdf")
	if _, err := os.Stat(pdfPath); err == nil {
		return pdfPath, nil
	}

	fmt.Fprintf(w, "downloading: %s\n", src.URL)
	if err := downloadFile(ctx, p.Client, src.URL, pdfPath, p.Config); err != nil {
		return "", fmt.Errorf("downloading %s: %w", src.URL, err)
	}
	return pdfPath, nil
}

// writeMetadata records the document's provenance as a YAML file under
// documents/metadata/, one record per document.
func (p *Pipeline) writeMetadata(src Source, slug, pdfPath string) error {
	doc := types.Document{
		ID:         slug,
		Title:      src.DisplayTitle(),
		SourceURL:  src.URL,
		PDFPath:    pdfPath,
		IngestedAt: time.Now().UTC(),
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document metadata: %w", err)
	}

	metaPath := filepath.Join(p.Config.DocumentsDir, metaDir, slug+".yaml")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("writing document metadata: %w", err)
	}
	return nil
}

// embedChunks fills in chunk embeddings in embedder-sized batches.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []types.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := p.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	return nil
}
