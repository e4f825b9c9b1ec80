package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimensions = 256

// Hash is an offline embedder using signed feature hashing over lowercase
// word tokens. Equal texts always map to equal unit vectors; texts sharing
// words score higher than unrelated ones. It is meant for development and tests.
type Hash struct {
	dims int
}

// NewHash returns a Hash embedder producing dims-length vectors.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = defaultHashDimensions
	}
	return &Hash{dims: dims}
}

// Embed implements Embedder.
func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, h.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		idx := sum % uint64(h.dims)
		if sum>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v, nil
	}
	inv := 1 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v, nil
}

// Dimensions implements Embedder.
func (h *Hash) Dimensions() int { return h.dims }

// Model implements Embedder.
func (h *Hash) Model() string { return "hash" }
