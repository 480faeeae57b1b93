package column

import (
	"fmt"
	"testing"

	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func events(ids ...int) []model.Event {
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Event{ID: fmt.Sprintf("e%d", id)})
	}
	return out
}

func ids(evs []model.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.ID)
	}
	return out
}

func TestMemoryBufferNewestFirst(t *testing.T) {
	buf := NewMemoryBuffer(10)
	buf.PrependMatches(events(1, 2, 3))
	buf.PrependMatches(events(4, 5))

	assert.Equal(t, 5, buf.Size())
	assert.Equal(t, []string{"e5", "e4", "e3", "e2", "e1"}, ids(buf.Window(0, 10)))
	assert.Equal(t, []string{"e3", "e2"}, ids(buf.Window(2, 2)))
	assert.Nil(t, buf.Window(9, 3))
	assert.Nil(t, buf.Window(0, 0))
}

func TestMemoryBufferDropsOldest(t *testing.T) {
	buf := NewMemoryBuffer(3)
	buf.PrependMatches(events(1, 2))
	buf.PrependMatches(events(3, 4, 5, 6))

	assert.Equal(t, 3, buf.Size())
	assert.Equal(t, []string{"e6", "e5", "e4"}, ids(buf.Window(0, 3)))

	buf.Clear()
	assert.Equal(t, 0, buf.Size())
	buf.PrependMatches(nil)
	assert.Equal(t, 0, buf.Size())
}

func TestNewColumn(t *testing.T) {
	set := filter.NewSet(filter.NewExpr(filter.TextContains("go")))
	c := New("golang", set, nil)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "golang", c.Title)
	assert.True(t, c.Active.Equal(set))
	assert.True(t, c.Pending.Equal(set))
	assert.True(t, c.IsFresh())
	assert.False(t, c.IsEditing())
	assert.NotNil(t, c.Buffer)

	other := New("golang", set, nil)
	assert.NotEqual(t, c.ID, other.ID)
}

func TestEditsOnlyTouchPending(t *testing.T) {
	active := filter.NewSet(filter.NewExpr(filter.SourceTypeIs("rss")))
	c := NewWithID("c1", "feeds", active, NewMemoryBuffer(10))
	pos := feedlog.Position(7)
	c.Cursor = &pos
	c.Buffer.PrependMatches(events(1))

	msgs := []Msg{
		AddExpr{Expr: filter.NewExpr(filter.TextContains("go"))},
		AddPredicate{ExprIndex: 0, Predicate: filter.SourceTypeIs("irc")},
		SetPredicate{ExprIndex: 1, PredIndex: 0, Predicate: filter.TextContains("rust")},
		MarkForRemoval{ExprIndex: 0, PredIndex: 1},
		DeletePredicate{ExprIndex: 0, PredIndex: 1},
		DeleteExpr{Index: 5},
	}
	for _, msg := range msgs {
		assert.Equal(t, EffectNone, c.Update(msg), "%T", msg)
	}

	assert.True(t, c.Active.Equal(active))
	assert.True(t, c.IsEditing())
	want := filter.NewSet(
		filter.NewExpr(filter.SourceTypeIs("rss")),
		filter.NewExpr(filter.TextContains("rust")),
	)
	assert.True(t, c.Pending.Equal(want), "pending: %s", c.Pending)
	require.NotNil(t, c.Cursor)
	assert.Equal(t, feedlog.Position(7), *c.Cursor)
	assert.Equal(t, 1, c.Buffer.Size())
}

func TestConfirmResetsColumn(t *testing.T) {
	c := NewWithID("c1", "feeds", filter.Set{}, NewMemoryBuffer(10))
	pos := feedlog.Position(3)
	c.Cursor = &pos
	c.Buffer.PrependMatches(events(1, 2))

	next := filter.NewSet(filter.NewExpr(filter.TextContains("go")))
	c.Update(ReplacePending{Set: next})
	effect := c.Update(Confirm{})

	assert.True(t, effect.Has(EffectCatchUp))
	assert.True(t, effect.Has(EffectPersist))
	assert.False(t, effect.Has(EffectReorder))
	assert.True(t, c.Active.Equal(next))
	assert.False(t, c.IsEditing())
	assert.True(t, c.IsFresh())
}

func TestCancelRevertsPending(t *testing.T) {
	active := filter.NewSet(filter.NewExpr(filter.TextContains("go")))
	c := NewWithID("c1", "feeds", active, nil)
	pos := feedlog.Position(11)
	c.Cursor = &pos

	c.Update(DeleteExpr{Index: 0})
	assert.True(t, c.IsEditing())

	assert.Equal(t, EffectNone, c.Update(Cancel{}))
	assert.False(t, c.IsEditing())
	assert.True(t, c.Pending.Equal(active))
	require.NotNil(t, c.Cursor, "cancel keeps the column live")
	assert.Equal(t, feedlog.Position(11), *c.Cursor)
}

func TestPinAndRenameEffects(t *testing.T) {
	c := NewWithID("c1", "feeds", filter.Set{}, nil)

	effect := c.Update(SetPinned{Pinned: true})
	assert.True(t, effect.Has(EffectReorder|EffectPersist))
	assert.True(t, c.Pinned)
	assert.Equal(t, EffectNone, c.Update(SetPinned{Pinned: true}))

	assert.Equal(t, EffectPersist, c.Update(Rename{Title: "news"}))
	assert.Equal(t, "news", c.Title)
	assert.Equal(t, EffectNone, c.Update(Rename{Title: "news"}))
}

func TestAdvanceIsMonotonic(t *testing.T) {
	c := NewWithID("c1", "feeds", filter.Set{}, nil)
	c.Advance(5)
	c.Advance(3)
	require.NotNil(t, c.Cursor)
	assert.Equal(t, feedlog.Position(5), *c.Cursor)
	c.Advance(9)
	assert.Equal(t, feedlog.Position(9), *c.Cursor)
}

func TestEffectHas(t *testing.T) {
	e := EffectReorder | EffectPersist
	assert.True(t, e.Has(EffectReorder))
	assert.False(t, e.Has(EffectCatchUp))
	assert.False(t, e.Has(EffectNone))
}
