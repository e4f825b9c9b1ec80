package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures the embedded badger backend.
type BadgerOptions struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir       string
	InMemory  bool
	Namespace string
	Logger    *slog.Logger
}

// Badger keeps vectors in an embedded key-value store under
// "ns/{namespace}/{id}" and ranks them with a prefix scan.
type Badger struct {
	db     *badger.DB
	prefix []byte
}

type badgerValue struct {
	Metadata
	Vector []byte `json:"vector"`
}

// NewBadger opens (or creates) the badger store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	bo := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		bo = bo.WithLogger(badgerLogger{opts.Logger})
	} else {
		bo = bo.WithLogger(nil)
	}
	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open badger: %w", err)
	}
	return &Badger{db: db, prefix: []byte("ns/" + opts.Namespace + "/")}, nil
}

func (b *Badger) key(id string) []byte {
	k := make([]byte, 0, len(b.prefix)+len(id))
	return append(append(k, b.prefix...), id...)
}

// Upsert implements Index.
func (b *Badger) Upsert(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		val, err := json.Marshal(badgerValue{Metadata: r.Metadata, Vector: encodeVector(r.Values)})
		if err != nil {
			return fmt.Errorf("vectorindex: encode %s: %w", r.ID, err)
		}
		if err := wb.Set(b.key(r.ID), val); err != nil {
			return fmt.Errorf("vectorindex: upsert %s: %w", r.ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("vectorindex: flush upsert: %w", err)
	}
	return nil
}

// DeleteMany implements Index.
func (b *Badger) DeleteMany(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(b.key(id)); err != nil {
			return fmt.Errorf("vectorindex: delete %s: %w", id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("vectorindex: flush delete: %w", err)
	}
	return nil
}

// Query implements Index.
func (b *Badger) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	r := newRanker(vector)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := string(item.Key()[len(b.prefix):])
			var v badgerValue
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", id, err)
			}
			if excluded(opts, v.NoteID) {
				continue
			}
			vec, err := decodeVector(v.Vector)
			if err != nil {
				return err
			}
			r.add(id, vec, v.Metadata)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: query: %w", err)
	}
	return r.top(opts.TopK), nil
}

// Close implements Index.
func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error(fmt.Sprintf(f, v...), slog.String("component", "badger")) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn(fmt.Sprintf(f, v...), slog.String("component", "badger")) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Info(fmt.Sprintf(f, v...), slog.String("component", "badger")) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Debug(fmt.Sprintf(f, v...), slog.String("component", "badger")) }
