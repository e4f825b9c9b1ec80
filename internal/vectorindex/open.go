package vectorindex

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendBadger   = "badger"
	BackendPinecone = "pinecone"
)

// DefaultNamespace is the namespace vectors are written to when none is configured.
const DefaultNamespace = "justReadIt"

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Namespace string

	BadgerDir      string
	BadgerInMemory bool

	PineconeHost    string
	PineconeAPIKey  string
	PineconeTimeout time.Duration
}

// Open builds the configured backend. conn is the relational database the
// sqlite backend shares; it is unused by the others.
func Open(cfg Config, conn *sql.DB, logger *slog.Logger) (Index, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	switch cfg.Backend {
	case BackendSQLite, "":
		return NewSQLite(conn, cfg.Namespace)
	case BackendBadger:
		return NewBadger(BadgerOptions{
			Dir:       cfg.BadgerDir,
			InMemory:  cfg.BadgerInMemory,
			Namespace: cfg.Namespace,
			Logger:    logger,
		})
	case BackendPinecone:
		return NewPinecone(PineconeOptions{
			Host:      cfg.PineconeHost,
			APIKey:    cfg.PineconeAPIKey,
			Namespace: cfg.Namespace,
			Timeout:   cfg.PineconeTimeout,
		})
	}
	return nil, fmt.Errorf("vectorindex: unknown backend %q", cfg.Backend)
}
