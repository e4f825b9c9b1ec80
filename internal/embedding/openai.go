package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/starford/justreadit/internal/apperr"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-large"
)

// OpenAI calls an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	client     *jsonClient
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	observed   atomic.Int64
}

// NewOpenAI builds an OpenAI client. An API key is required.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding: openai api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	return &OpenAI{
		client:     newJSONClient(cfg.Timeout, cfg.MaxRetries),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

type openAIRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Embedder.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	var out openAIResponse
	err := o.client.postJSON(ctx, o.baseURL+"/embeddings",
		map[string]string{"Authorization": "Bearer " + o.apiKey},
		openAIRequest{Model: o.model, Input: text, Dimensions: o.dimensions}, &out)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrProvider, "openai embed", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: openai embed: empty embedding", apperr.ErrProvider)
	}
	v := out.Data[0].Embedding
	o.observed.CompareAndSwap(0, int64(len(v)))
	return v, nil
}

// Dimensions implements Embedder.
func (o *OpenAI) Dimensions() int {
	if o.dimensions > 0 {
		return o.dimensions
	}
	return int(o.observed.Load())
}

// Model implements Embedder.
func (o *OpenAI) Model() string { return o.model }
