// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mximoph assistant.
package types

import "time"

// Document is a source document registered in the knowledge base.
// Per prd001-ingestion R1.1-R1.3.
type Document struct {
	// ID is the document slug derived from the source URL or filename.
	ID string `json:"id" yaml:"id"`

	// Title is the human-readable title, when known.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// SourceURL is the location the PDF was downloaded from, empty for
	// local files.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// PDFPath is the on-disk location of the raw PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// IngestedAt records when the document was last ingested.
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}

// Chunk is the unit of storage and retrieval: a contiguous span of a
// document's text together with its embedding.
// Per prd001-ingestion R3.1-R3.4, prd003-storage R2.1.
type Chunk struct {
	// ID is a stable content hash; re-ingesting unchanged text produces
	// the same ID so upserts are idempotent (R3.4).
	ID string `json:"id" yaml:"id"`

	// DocumentID links the chunk to its source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Content is the chunk text.
	Content string `json:"content" yaml:"content"`

	// Position is the zero-based ordinal of the chunk within the document.
	Position int `json:"position" yaml:"position"`

	// Embedding is the vector representation. Length must equal the
	// configured embedding dimension.
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// ScoredChunk is a retrieval result: a chunk with its similarity to the
// query and the source document for provenance. Per prd003-storage R3.2.
type ScoredChunk struct {
	Chunk

	// Score is cosine similarity in [-1, 1]; higher is more similar.
	Score float64 `json:"score" yaml:"score"`

	// DocumentTitle is the source document title for citation display.
	DocumentTitle string `json:"document_title,omitempty" yaml:"document_title,omitempty"`
}
