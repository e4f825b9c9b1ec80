package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/justreadit/internal/embedding"
	"github.com/starford/justreadit/internal/parser"
	"github.com/starford/justreadit/internal/search"
	"github.com/starford/justreadit/internal/vectorindex"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Links       LinksConfig       `yaml:"links"`
	Search      SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.App),
		validation.Field(&c.SQLite),
		validation.Field(&c.Embedding),
		validation.Field(&c.VectorIndex),
		validation.Field(&c.Links),
		validation.Field(&c.Search),
	)
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	Events   SSEConfig  `yaml:"events"`
}

// Validate validates the application configuration.
func (c ApplicationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Events),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SSEConfig tunes the event stream.
type SSEConfig struct {
	GraphThrottle time.Duration `yaml:"graph_throttle"`
	KeepAlive     time.Duration `yaml:"keep_alive"`
	// History is the number of events kept for Last-Event-ID replay.
	History int `yaml:"history"`
}

// Validate validates the event stream configuration.
func (c SSEConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.GraphThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.KeepAlive, validation.Min(time.Duration(0))),
		validation.Field(&c.History, validation.Min(0), validation.Max(10000)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c SQLiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider       string        `yaml:"provider"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	Dimensions     int           `yaml:"dimensions"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// Validate validates the embedding configuration.
func (c EmbeddingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(embedding.ProviderOpenAI, embedding.ProviderOllama, embedding.ProviderHash)),
		validation.Field(&c.APIKey, validation.When(c.Provider == embedding.ProviderOpenAI, validation.Required)),
		validation.Field(&c.Dimensions, validation.Min(0)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.MaxConcurrency, validation.Min(0)),
	)
}

// EmbedderConfig converts the section for embedding.New.
func (c EmbeddingConfig) EmbedderConfig() embedding.Config {
	return embedding.Config{
		Provider:       c.Provider,
		BaseURL:        c.BaseURL,
		APIKey:         c.APIKey,
		Model:          c.Model,
		Dimensions:     c.Dimensions,
		Timeout:        c.Timeout,
		MaxRetries:     c.MaxRetries,
		MaxConcurrency: c.MaxConcurrency,
	}
}

// VectorIndexConfig selects the vector store.
type VectorIndexConfig struct {
	Backend   string         `yaml:"backend"`
	Namespace string         `yaml:"namespace"`
	Badger    BadgerConfig   `yaml:"badger"`
	Pinecone  PineconeConfig `yaml:"pinecone"`
	// LegacyDeleteCeiling bounds stale-ordinal deletes for notes saved before
	// vector counts were tracked. Zero skips those deletes.
	LegacyDeleteCeiling int `yaml:"legacy_delete_ceiling"`
}

// BadgerConfig configures the embedded badger backend.
type BadgerConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// PineconeConfig configures the hosted Pinecone backend.
type PineconeConfig struct {
	Host    string        `yaml:"host"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the vector index configuration.
func (c VectorIndexConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(vectorindex.BackendSQLite, vectorindex.BackendBadger, vectorindex.BackendPinecone)),
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.LegacyDeleteCeiling, validation.Min(0)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case vectorindex.BackendBadger:
		return validation.Errors{
			"badger": validation.ValidateStruct(&c.Badger,
				validation.Field(&c.Badger.Dir, validation.When(!c.Badger.InMemory, validation.Required)),
			),
		}.Filter()
	case vectorindex.BackendPinecone:
		return validation.Errors{
			"pinecone": validation.ValidateStruct(&c.Pinecone,
				validation.Field(&c.Pinecone.Host, validation.Required),
				validation.Field(&c.Pinecone.APIKey, validation.Required),
			),
		}.Filter()
	}
	return nil
}

// IndexConfig converts the section for vectorindex.Open.
func (c VectorIndexConfig) IndexConfig() vectorindex.Config {
	return vectorindex.Config{
		Backend:         c.Backend,
		Namespace:       c.Namespace,
		BadgerDir:       c.Badger.Dir,
		BadgerInMemory:  c.Badger.InMemory,
		PineconeHost:    c.Pinecone.Host,
		PineconeAPIKey:  c.Pinecone.APIKey,
		PineconeTimeout: c.Pinecone.Timeout,
	}
}

// LinksConfig holds the href prefixes that mark book and note links in note bodies.
type LinksConfig struct {
	BookPrefix string `yaml:"book_prefix"`
	NotePrefix string `yaml:"note_prefix"`
}

// Validate validates the link configuration.
func (c LinksConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BookPrefix, validation.Required),
		validation.Field(&c.NotePrefix, validation.Required),
	)
}

// Patterns converts the section for the parser.
func (c LinksConfig) Patterns() parser.LinkPatterns {
	return parser.LinkPatterns{BookPrefix: c.BookPrefix, NotePrefix: c.NotePrefix}
}

// SearchConfig holds semantic search defaults.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// Validate validates the search configuration.
func (c SearchConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TopK, validation.Required, validation.Min(1), validation.Max(search.MaxTopK)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			Events: SSEConfig{
				GraphThrottle: 2 * time.Second,
				KeepAlive:     30 * time.Second,
				History:       256,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./justreadit.db",
		},
		Embedding: EmbeddingConfig{
			Provider: embedding.ProviderHash,
			Timeout:  30 * time.Second,
		},
		VectorIndex: VectorIndexConfig{
			Backend:   vectorindex.BackendSQLite,
			Namespace: vectorindex.DefaultNamespace,
			Badger: BadgerConfig{
				Dir: "./vectors",
			},
			Pinecone: PineconeConfig{
				Timeout: 30 * time.Second,
			},
		},
		Links: LinksConfig{
			BookPrefix: parser.DefaultBookPrefix,
			NotePrefix: parser.DefaultNotePrefix,
		},
		Search: SearchConfig{
			TopK: search.DefaultTopK,
		},
	}
}
