package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mximoph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StorageBackend identifies the vector and session storage engine.
// Per prd003-storage R1.1.
type StorageBackend string

const (
	BackendPgvector StorageBackend = "pgvector"
	BackendSQLite   StorageBackend = "sqlite"
)

// StorageConfig holds settings for the vector database and session store.
// Defaults match the pgvector container the assistant ships with.
type StorageConfig struct {
	// Backend selects the storage engine: pgvector or sqlite.
	Backend StorageBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=pgvector sqlite"`

	// DSN is the Postgres connection string for the pgvector backend
	// (default "postgres://ai:ai@localhost:5532/ai?sslmode=disable").
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// Path is the database file location for the sqlite backend.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`

	// Collection is the vector collection (table) name (default "science_docs").
	Collection string `json:"collection" yaml:"collection" mapstructure:"collection" validate:"required"`

	// SessionTable is the table name for assistant runs (default "science_assistant").
	SessionTable string `json:"session_table" yaml:"session_table" mapstructure:"session_table" validate:"required"`
}

// EmbeddingConfig holds settings for the embedding client.
// Per prd002-embedding R1.1-R1.4.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ServerURL is the base URL of the embedding inference server
	// (default "http://localhost:8080").
	ServerURL string `json:"server_url" yaml:"server_url" mapstructure:"server_url" validate:"required,url"`

	// Model is the sentence-embedding model name, informational only;
	// the server decides what it serves (default "all-MiniLM-L6-v2").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Dimension is the expected embedding vector length (default 384).
	// Vectors of any other length are rejected.
	Dimension int `json:"dimension" yaml:"dimension" mapstructure:"dimension" validate:"gt=0"`

	// APIKey is an optional bearer token for the inference server.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BatchSize is the number of texts sent per embed request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
}

// ConverterBackend identifies the PDF text-extraction tool.
type ConverterBackend string

const (
	ConverterPdftotext ConverterBackend = "pdftotext"
	ConverterContainer ConverterBackend = "container"
)

// IngestionConfig holds settings for the document ingestion pipeline.
// Per prd001-ingestion R2.1-R2.6.
type IngestionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DocumentsDir is the base directory for downloaded documents
	// (contains raw/ and text/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir" validate:"required"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// Converter selects the PDF text extraction backend.
	Converter ConverterBackend `json:"converter" yaml:"converter" mapstructure:"converter" validate:"oneof=pdftotext container"`

	// ChunkSize is the maximum chunk length in runes (default 1500).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0"`

	// ChunkOverlap is the number of trailing runes repeated at the start
	// of the next chunk (default 200). Must be smaller than ChunkSize.
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0"`
}

// RetrievalConfig holds settings for knowledge base queries.
type RetrievalConfig struct {
	// MaxResults is the default number of chunks returned per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gt=0"`
}

// AssistantConfig holds settings for the chat assistant.
// Per prd005-assistant R1.1-R1.3, R4.1.
type AssistantConfig struct {
	// Model is the chat model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// APIKey authenticates against the chat API. Usually supplied through
	// .secrets/anthropic-api-key rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens bounds the response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gt=0"`

	// HistoryLimit is the number of prior messages replayed into each
	// request (default 20, zero replays everything).
	HistoryLimit int `json:"history_limit" yaml:"history_limit" mapstructure:"history_limit" validate:"gte=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level emitted ("debug", "info", ...).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File is an optional path; when set, log output is written to the
	// file as well as the console.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// Config groups all component configurations.
type Config struct {
	Storage   StorageConfig   `json:"storage" yaml:"storage" mapstructure:"storage"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion" mapstructure:"ingestion"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant" mapstructure:"assistant"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
