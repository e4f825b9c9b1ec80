package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	pineconeAPIVersion  = "2025-01"
	pineconeUpsertBatch = 100
	pineconeDeleteBatch = 1000
)

// PineconeOptions configures the Pinecone data-plane client.
type PineconeOptions struct {
	// Host is the index host, e.g. "https://my-index-abc123.svc.us-east-1.pinecone.io".
	Host      string
	APIKey    string
	Namespace string
	Timeout   time.Duration
}

// Pinecone talks to a Pinecone index over its REST data-plane API.
type Pinecone struct {
	host      string
	apiKey    string
	namespace string
	client    *http.Client
}

// NewPinecone builds a Pinecone client.
func NewPinecone(opts PineconeOptions) (*Pinecone, error) {
	if opts.Host == "" || opts.APIKey == "" {
		return nil, errors.New("vectorindex: pinecone host and api key are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Pinecone{
		host:      strings.TrimRight(opts.Host, "/"),
		apiKey:    opts.APIKey,
		namespace: opts.Namespace,
		client:    &http.Client{Timeout: opts.Timeout},
	}, nil
}

type pineconeVector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// Upsert implements Index.
func (p *Pinecone) Upsert(ctx context.Context, records []Record) error {
	for start := 0; start < len(records); start += pineconeUpsertBatch {
		end := min(start+pineconeUpsertBatch, len(records))
		vecs := make([]pineconeVector, 0, end-start)
		for _, r := range records[start:end] {
			vecs = append(vecs, pineconeVector{ID: r.ID, Values: r.Values, Metadata: r.Metadata})
		}
		body := map[string]any{"vectors": vecs, "namespace": p.namespace}
		if err := p.post(ctx, "/vectors/upsert", body, nil); err != nil {
			return fmt.Errorf("vectorindex: pinecone upsert: %w", err)
		}
	}
	return nil
}

// DeleteMany implements Index.
func (p *Pinecone) DeleteMany(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += pineconeDeleteBatch {
		end := min(start+pineconeDeleteBatch, len(ids))
		body := map[string]any{"ids": ids[start:end], "namespace": p.namespace}
		if err := p.post(ctx, "/vectors/delete", body, nil); err != nil {
			return fmt.Errorf("vectorindex: pinecone delete: %w", err)
		}
	}
	return nil
}

// Query implements Index. The note exclusion is a metadata filter evaluated
// by Pinecone before ranking.
func (p *Pinecone) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            opts.TopK,
		"includeMetadata": true,
		"namespace":       p.namespace,
	}
	if opts.ExcludeNoteID != nil {
		body["filter"] = map[string]any{"noteId": map[string]any{"$ne": *opts.ExcludeNoteID}}
	}
	var out struct {
		Matches []struct {
			ID       string   `json:"id"`
			Score    float64  `json:"score"`
			Metadata Metadata `json:"metadata"`
		} `json:"matches"`
	}
	if err := p.post(ctx, "/query", body, &out); err != nil {
		return nil, fmt.Errorf("vectorindex: pinecone query: %w", err)
	}
	matches := make([]Match, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// Close implements Index.
func (p *Pinecone) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Pinecone) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
