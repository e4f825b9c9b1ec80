package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/justreadit/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestEmbeddingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EmbeddingConfig)
		wantErr string
	}{
		{"hash needs no key", func(c *EmbeddingConfig) { c.Provider = "hash" }, ""},
		{"ollama needs no key", func(c *EmbeddingConfig) { c.Provider = "ollama" }, ""},
		{"openai without key", func(c *EmbeddingConfig) { c.Provider = "openai" }, "APIKey"},
		{"openai with key", func(c *EmbeddingConfig) { c.Provider, c.APIKey = "openai", "sk-test" }, ""},
		{"unknown provider", func(c *EmbeddingConfig) { c.Provider = "magic" }, "Provider"},
		{"negative retries", func(c *EmbeddingConfig) { c.MaxRetries = -1 }, "MaxRetries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Embedding
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVectorIndexConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*VectorIndexConfig)
		wantErr string
	}{
		{"sqlite", func(c *VectorIndexConfig) {}, ""},
		{"badger on disk", func(c *VectorIndexConfig) { c.Backend = "badger" }, ""},
		{"badger without dir", func(c *VectorIndexConfig) { c.Backend, c.Badger.Dir = "badger", "" }, "badger"},
		{"badger in memory", func(c *VectorIndexConfig) {
			c.Backend, c.Badger.Dir, c.Badger.InMemory = "badger", "", true
		}, ""},
		{"pinecone without host", func(c *VectorIndexConfig) { c.Backend = "pinecone" }, "pinecone"},
		{"pinecone complete", func(c *VectorIndexConfig) {
			c.Backend, c.Pinecone.Host, c.Pinecone.APIKey = "pinecone", "https://idx.pinecone.io", "key"
		}, ""},
		{"empty namespace", func(c *VectorIndexConfig) { c.Namespace = "" }, "Namespace"},
		{"unknown backend", func(c *VectorIndexConfig) { c.Backend = "redis" }, "Backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().VectorIndex
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSearchConfig_TopKBounds(t *testing.T) {
	assert.Error(t, SearchConfig{TopK: 0}.Validate())
	assert.Error(t, SearchConfig{TopK: 101}.Validate())
	assert.NoError(t, SearchConfig{TopK: 5}.Validate())
}

func TestFullConfig_NestedValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Links.NotePrefix = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotePrefix")
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JUSTREADIT_TEST_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
  http:
    port: 9090
    cors_origins: ["http://localhost:5173"]
embedding:
  provider: openai
  api_key: ${JUSTREADIT_TEST_KEY}
  timeout: 5s
vector_index:
  backend: badger
  badger:
    in_memory: true
`), 0o600))

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))
	assert.Equal(t, 9090, cfg.App.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.App.HTTP.CORSOrigins)
	assert.Equal(t, "sk-from-env", cfg.Embedding.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
	assert.True(t, cfg.VectorIndex.Badger.InMemory)
	// Unset keys keep their defaults.
	assert.Equal(t, "./justreadit.db", cfg.SQLite.Path)
	assert.Equal(t, 3, cfg.Search.TopK)

	ic := cfg.VectorIndex.IndexConfig()
	assert.Equal(t, "justReadIt", ic.Namespace)
	assert.Equal(t, "badger", ic.Backend)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedding:\n  provider: openai\n"), 0o600))
	err := pkgconfig.Load(path, NewDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	_, err := newApplication(nil)
	require.Error(t, err)

	app, err := newApplication([]Option{WithConfig(NewDefaultConfig()), WithVersion("1.2.3")})
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", app.version)
}

func TestBuildComponents_DefaultStack(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	app, err := newApplication([]Option{WithConfig(cfg), WithLogOutput(os.Stderr)})
	require.NoError(t, err)

	c, err := buildComponents(cfg, app.setupLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, "hash", c.embedder.Model())
}
