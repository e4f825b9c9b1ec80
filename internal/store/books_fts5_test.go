//go:build sqlite_fts5

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS5_BookPrefixSearch(t *testing.T) {
	db := testDB(t)
	seedBook(t, db, "b1", "Cryptonomicon")

	books, err := db.SearchBooks(context.Background(), "crypto")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID)
}

func TestFTSQuery_QuotesTokens(t *testing.T) {
	assert.Equal(t, `"a"* "b""c"*`, ftsQuery(`a b"c`))
}
