// Package embedding turns text into vectors through a pluggable provider.
//
// Every provider error is wrapped in apperr.ErrProvider. Embedders are
// stateless per call and safe for concurrent use.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the vector length, or 0 if not yet known.
	Dimensions() int
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	// MaxRetries is the number of extra attempts on transport errors,
	// 429 and 5xx responses. Zero disables retries.
	MaxRetries int
	// MaxConcurrency caps in-flight Embed calls process-wide. Zero means unbounded.
	MaxConcurrency int
}

// New builds the configured embedder, wrapped in a Limited when
// MaxConcurrency is set.
func New(cfg Config) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		e, err = NewOpenAI(cfg)
	case ProviderOllama:
		e = NewOllama(cfg)
	case ProviderHash, "":
		e = NewHash(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency > 0 {
		e = NewLimited(e, cfg.MaxConcurrency)
	}
	return e, nil
}
