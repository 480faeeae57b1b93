// Package column models one configured view over the shared feed log: its
// active and pending filter sets, its read cursor and its display buffer.
package column

import (
	"github.com/google/uuid"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
)

// Column is a filtered, independently progressing view over the log.
//
// Edits only ever touch Pending. Confirm swaps Pending into Active and
// resets Cursor and Buffer, since events already buffered may no longer
// match and events already skipped may now qualify.
type Column struct {
	ID      string
	Title   string
	Active  filter.Set
	Pending filter.Set
	// Cursor is the position of the last scanned event; nil means the
	// column has never scanned and starts from the oldest retained event.
	Cursor *feedlog.Position
	Pinned bool
	Buffer Buffer
}

// New creates a fresh column with a random id and the given filter set
// already confirmed. A nil buffer gets a MemoryBuffer of default capacity.
func New(title string, filters filter.Set, buf Buffer) *Column {
	return NewWithID(uuid.NewString(), title, filters, buf)
}

// NewWithID is New with a caller-chosen id, used when restoring saved columns
func NewWithID(id, title string, filters filter.Set, buf Buffer) *Column {
	if buf == nil {
		buf = NewMemoryBuffer(DefaultBufferCapacity)
	}
	return &Column{
		ID:      id,
		Title:   title,
		Active:  filters,
		Pending: filters,
		Buffer:  buf,
	}
}

// IsFresh reports whether the column has not scanned anything since its
// creation or last confirm
func (c *Column) IsFresh() bool {
	return c.Cursor == nil && c.Buffer.Size() == 0
}

// IsEditing reports whether the edit buffer diverges from the active filters
func (c *Column) IsEditing() bool {
	return !c.Pending.Equal(c.Active)
}

// Advance moves the cursor forward to pos. Positions behind the cursor are ignored.
func (c *Column) Advance(pos feedlog.Position) {
	if c.Cursor != nil && pos <= *c.Cursor {
		return
	}
	p := pos
	c.Cursor = &p
}

// Reset clears the cursor and the display buffer
func (c *Column) Reset() {
	c.Cursor = nil
	c.Buffer.Clear()
}

// Update applies msg and reports what the caller must do next
func (c *Column) Update(msg Msg) Effect {
	switch m := msg.(type) {
	case AddExpr:
		c.Pending = c.Pending.AddExpr(m.Expr)
	case DeleteExpr:
		c.Pending = c.Pending.DeleteExpr(m.Index)
	case AddPredicate:
		c.Pending = c.Pending.AddPredicate(m.ExprIndex, m.Predicate)
	case SetPredicate:
		c.Pending = c.Pending.SetPredicate(m.ExprIndex, m.PredIndex, m.Predicate)
	case DeletePredicate:
		c.Pending = c.Pending.DeletePredicate(m.ExprIndex, m.PredIndex)
	case MarkForRemoval:
		c.Pending = c.Pending.SetPredicate(m.ExprIndex, m.PredIndex, filter.RemovalMarker())
	case ReplacePending:
		c.Pending = m.Set
	case Confirm:
		c.Active = c.Pending
		c.Reset()
		return EffectCatchUp | EffectPersist
	case Cancel:
		c.Pending = c.Active
	case SetPinned:
		if c.Pinned == m.Pinned {
			return EffectNone
		}
		c.Pinned = m.Pinned
		return EffectReorder | EffectPersist
	case Rename:
		if c.Title == m.Title {
			return EffectNone
		}
		c.Title = m.Title
		return EffectPersist
	}
	return EffectNone
}
