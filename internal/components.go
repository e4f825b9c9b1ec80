package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/justreadit/internal/embedding"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/search"
	"github.com/starford/justreadit/internal/store"
	"github.com/starford/justreadit/internal/vectorindex"
)

// components are the long-lived collaborators shared by every entrypoint.
// They are built once and closed in reverse order.
type components struct {
	db       *store.DB
	index    vectorindex.Index
	embedder embedding.Embedder
	pipeline *notesync.Pipeline
	search   *search.Service
}

func buildComponents(cfg *Config, logger *slog.Logger) (*components, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	idx, err := vectorindex.Open(cfg.VectorIndex.IndexConfig(), db.Conn(), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init vector index: %w", err)
	}

	e, err := embedding.New(cfg.Embedding.EmbedderConfig())
	if err != nil {
		idx.Close()
		db.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	pipeline := notesync.NewPipeline(db,
		notesync.NewGraphSync(db, logger),
		notesync.NewVectorSync(idx, e, db, cfg.VectorIndex.LegacyDeleteCeiling, logger),
		cfg.Links.Patterns(),
		logger,
	)

	return &components{
		db:       db,
		index:    idx,
		embedder: e,
		pipeline: pipeline,
		search:   search.NewService(e, idx, cfg.Search.TopK),
	}, nil
}

func (c *components) Close() error {
	return errors.Join(c.index.Close(), c.db.Close())
}
