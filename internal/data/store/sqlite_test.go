package store

import (
	"path/filepath"
	"testing"

	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestColumnsRoundTrip(t *testing.T) {
	s, _ := openTemp(t)

	empty, err := s.LoadColumns()
	require.NoError(t, err)
	assert.Empty(t, empty)

	states := []registry.ColumnState{
		{ID: "b", Title: "Pinned", Pinned: true, Filters: `[[{"kind":"text","query":"go"}]]`, Cursor: "12"},
		{ID: "a", Title: "Plain", Filters: ""},
	}
	require.NoError(t, s.SaveColumns(states))

	loaded, err := s.LoadColumns()
	require.NoError(t, err)
	assert.Equal(t, states, loaded)

	// a second save replaces rather than merges
	require.NoError(t, s.SaveColumns(states[1:]))
	loaded, err = s.LoadColumns()
	require.NoError(t, err)
	assert.Equal(t, states[1:], loaded)
}

func TestLogRoundTrip(t *testing.T) {
	s, _ := openTemp(t)

	got, err := s.LoadLog()
	require.NoError(t, err)
	assert.Equal(t, "", got)

	ring := feedlog.NewRing(5)
	for _, id := range []string{"1", "2", "3"} {
		ring.Append(model.Event{ID: id, Source: "rss"})
	}
	encoded, err := feedlog.EncodeLog(ring)
	require.NoError(t, err)
	require.NoError(t, s.SaveLog(encoded))
	require.NoError(t, s.SaveLog(encoded))

	got, err = s.LoadLog()
	require.NoError(t, err)
	restored, err := feedlog.DecodeLog(got)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Len())
}

func TestOffsets(t *testing.T) {
	s, _ := openTemp(t)

	_, ok, err := s.LoadOffset("pg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveOffset("pg", 10))
	require.NoError(t, s.SaveOffset("pg", 25))
	off, ok, err := s.LoadOffset("pg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(25), off)
}

func TestReopenKeepsState(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.SaveColumns([]registry.ColumnState{{ID: "x", Title: "X"}}))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()
	loaded, err := again.LoadColumns()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "X", loaded[0].Title)
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SaveOffset("f", 1))
	off, ok, err := s.LoadOffset("f")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), off)
}
