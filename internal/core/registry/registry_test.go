package registry

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchAll = filter.NewSet(filter.NewExpr(filter.TextContains("")))

func newColumn(id string, pinned bool) *column.Column {
	c := column.NewWithID(id, id, matchAll, column.NewMemoryBuffer(1000))
	c.Pinned = pinned
	return c
}

// registryOf builds a registry whose display order is exactly ids
func registryOf(ids ...string) *Registry {
	r := New()
	for i := len(ids) - 1; i >= 0; i-- {
		r.Add(newColumn(ids[i], false))
	}
	return r
}

func fillLog(capacity, n int, mk func(i int) model.Event) *feedlog.Ring {
	log := feedlog.NewRing(capacity)
	for i := 1; i <= n; i++ {
		log.Append(mk(i))
	}
	return log
}

func plainEvent(i int) model.Event {
	return model.Event{ID: fmt.Sprintf("ev-%d", i), Source: "rss", Channel: "feed", Body: fmt.Sprintf("item %d", i)}
}

func TestAddPutsNewColumnFirst(t *testing.T) {
	r := New()
	r.Add(newColumn("x", false))
	r.Add(newColumn("y", false))
	assert.Equal(t, []string{"y", "x"}, r.Order())

	r.Add(newColumn("p", true))
	r.Add(newColumn("z", false))
	assert.Equal(t, []string{"p", "z", "y", "x"}, r.Order())
}

func TestAddReplacesExistingID(t *testing.T) {
	r := registryOf("x", "y", "z")
	replacement := newColumn("z", false)
	r.Add(replacement)

	assert.Equal(t, []string{"z", "x", "y"}, r.Order())
	assert.Equal(t, 3, r.Len())
	got, ok := r.Get("z")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestPinReordersStably(t *testing.T) {
	r := registryOf("x", "y", "z")

	effect := r.Update("y", column.SetPinned{Pinned: true})
	assert.True(t, effect.Has(column.EffectReorder))
	assert.Equal(t, []string{"y", "x", "z"}, r.Order())

	r.Update("z", column.SetPinned{Pinned: true})
	assert.Equal(t, []string{"y", "z", "x"}, r.Order())

	r.Update("y", column.SetPinned{Pinned: false})
	assert.Equal(t, []string{"z", "y", "x"}, r.Order())
}

func TestUpdateNonPinLeavesOrder(t *testing.T) {
	r := registryOf("x", "y", "z")
	r.Update("z", column.AddExpr{Expr: filter.NewExpr(filter.TextContains("go"))})
	assert.Equal(t, []string{"x", "y", "z"}, r.Order())

	assert.Equal(t, column.EffectNone, r.Update("missing", column.Confirm{}))
}

func TestAutoArrangeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		columns := make(map[string]*column.Column, n)
		order := make([]string, 0, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("c%d", i)
			columns[id] = newColumn(id, rng.Intn(2) == 0)
			order = append(order, id)
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		arranged := AutoArrange(columns, order)
		require.Len(t, arranged, n)

		// pinned prefix
		seenUnpinned := false
		for _, id := range arranged {
			if columns[id].Pinned {
				assert.False(t, seenUnpinned, "pinned %s after an unpinned column", id)
			} else {
				seenUnpinned = true
			}
		}

		// stability within partitions
		assert.Equal(t, partition(columns, order, true), partition(columns, arranged, true))
		assert.Equal(t, partition(columns, order, false), partition(columns, arranged, false))

		// idempotence
		assert.Equal(t, arranged, AutoArrange(columns, arranged))
	}
}

func partition(columns map[string]*column.Column, order []string, pinned bool) []string {
	out := []string{}
	for _, id := range order {
		if columns[id].Pinned == pinned {
			out = append(out, id)
		}
	}
	return out
}

func TestAutoArrangeDropsUnknownIDs(t *testing.T) {
	columns := map[string]*column.Column{"a": newColumn("a", false)}
	assert.Equal(t, []string{"a"}, AutoArrange(columns, []string{"ghost", "a"}))
}

func TestRemoveAt(t *testing.T) {
	r := registryOf("x", "y", "z")
	r.RemoveAt(7)
	r.RemoveAt(-1)
	assert.Equal(t, 3, r.Len())

	r.RemoveAt(1)
	assert.Equal(t, []string{"x", "z"}, r.Order())
	_, ok := r.Get("y")
	assert.False(t, ok)

	r.Remove("x")
	r.Remove("ghost")
	assert.Equal(t, []string{"z"}, r.Order())
}

func TestMoveKeepsPinnedPrefix(t *testing.T) {
	r := registryOf("a", "b", "c", "d")
	r.Move(3, 0)
	assert.Equal(t, []string{"d", "a", "b", "c"}, r.Order())

	r.Update("c", column.SetPinned{Pinned: true})
	assert.Equal(t, []string{"c", "d", "a", "b"}, r.Order())

	// dragging an unpinned column above the pinned one snaps back behind it
	r.Move(3, 0)
	assert.Equal(t, []string{"c", "b", "d", "a"}, r.Order())

	r.Move(0, 9)
	r.Move(1, 1)
	assert.Equal(t, []string{"c", "b", "d", "a"}, r.Order())
}

func TestAtAndColumns(t *testing.T) {
	r := registryOf("x", "y")
	c, ok := r.At(1)
	require.True(t, ok)
	assert.Equal(t, "y", c.ID)

	_, ok = r.At(2)
	assert.False(t, ok)

	cols := r.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, "x", cols[0].ID)
}
