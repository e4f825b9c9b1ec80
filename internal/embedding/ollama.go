package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/starford/justreadit/internal/apperr"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "nomic-embed-text"
)

// Ollama calls a local Ollama server's /api/embeddings endpoint.
type Ollama struct {
	client   *jsonClient
	baseURL  string
	model    string
	observed atomic.Int64
}

// NewOllama builds an Ollama client.
func NewOllama(cfg Config) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	return &Ollama{
		client:  newJSONClient(cfg.Timeout, cfg.MaxRetries),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Embed implements Embedder.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	err := o.client.postJSON(ctx, o.baseURL+"/api/embeddings", nil,
		map[string]string{"model": o.model, "prompt": text}, &out)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrProvider, "ollama embed", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama embed: empty embedding", apperr.ErrProvider)
	}
	o.observed.CompareAndSwap(0, int64(len(out.Embedding)))
	return out.Embedding, nil
}

// Dimensions implements Embedder.
func (o *Ollama) Dimensions() int { return int(o.observed.Load()) }

// Model implements Embedder.
func (o *Ollama) Model() string { return o.model }
