package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// encodeVector stores float32 values as a little-endian BLOB without a length
// prefix; the length is derived from the BLOB size on decode.
func encodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vectorindex: invalid vector blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

func magnitude(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

// ranker keeps candidates scored by cosine similarity against one query.
type ranker struct {
	query []float32
	qmag  float64
	hits  []Match
}

func newRanker(query []float32) *ranker {
	return &ranker{query: query, qmag: magnitude(query)}
}

// add scores vec and keeps it. Zero-magnitude and dimension-mismatched
// vectors are skipped.
func (r *ranker) add(id string, vec []float32, md Metadata) {
	if r.qmag == 0 || len(vec) != len(r.query) {
		return
	}
	m := magnitude(vec)
	if m == 0 {
		return
	}
	var dot float64
	for i := range vec {
		dot += float64(vec[i]) * float64(r.query[i])
	}
	s := dot / (r.qmag * m)
	if math.IsNaN(s) {
		return
	}
	r.hits = append(r.hits, Match{ID: id, Score: s, Metadata: md})
}

// top returns the k best matches, highest score first, ties broken by id.
func (r *ranker) top(k int) []Match {
	sort.Slice(r.hits, func(a, b int) bool {
		if r.hits[a].Score != r.hits[b].Score {
			return r.hits[a].Score > r.hits[b].Score
		}
		return r.hits[a].ID < r.hits[b].ID
	})
	if k > 0 && k < len(r.hits) {
		return r.hits[:k]
	}
	return r.hits
}
