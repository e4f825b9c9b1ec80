package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteTypeJSON(t *testing.T) {
	data, err := json.Marshal(Note{ID: 3, Type: NoteAfter})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"after"`)

	var n Note
	require.NoError(t, json.Unmarshal([]byte(`{"type":"during"}`), &n))
	assert.Equal(t, NoteDuring, n.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"type":1}`), &n))
	assert.Equal(t, NoteAfter, n.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"before"}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"type":2}`), &n))
}

func TestParseNoteType(t *testing.T) {
	_, err := ParseNoteType("")
	assert.Error(t, err)

	typ, err := ParseNoteType("after")
	require.NoError(t, err)
	assert.Equal(t, 1, int(typ))
}
