package embedding

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/starford/justreadit/internal/apperr"
)

// Limited caps the number of concurrent Embed calls on the wrapped embedder.
// One Limited is shared across all requests of the process.
type Limited struct {
	Embedder
	sem *semaphore.Weighted
}

// NewLimited wraps e with a semaphore of size n.
func NewLimited(e Embedder, n int) *Limited {
	if n <= 0 {
		n = 1
	}
	return &Limited{Embedder: e, sem: semaphore.NewWeighted(int64(n))}
}

// Embed waits for a free slot, then delegates. A wait cut short by ctx is a
// provider error that still matches the context error.
func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, apperr.Wrap(apperr.ErrProvider, "wait for embedding slot", err)
	}
	defer l.sem.Release(1)
	return l.Embedder.Embed(ctx, text)
}
