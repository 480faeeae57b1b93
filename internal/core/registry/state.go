package registry

import (
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// ColumnState is the persisted form of one column
type ColumnState struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Pinned  bool   `json:"pinned"`
	Filters string `json:"filters"`
	Cursor  string `json:"cursor,omitempty"`
}

// Snapshot exports every column in display order. Pending edits are not
// saved; only the active filters are durable.
func (r *Registry) Snapshot() []ColumnState {
	states := make([]ColumnState, 0, len(r.order))
	for _, c := range r.Columns() {
		filters, err := filter.EncodeSet(c.Active)
		if err != nil {
			util.LogWarnf("registry: encode filters of column %s: %v", c.ID, err)
			filters = ""
		}
		states = append(states, ColumnState{
			ID:      c.ID,
			Title:   c.Title,
			Pinned:  c.Pinned,
			Filters: filters,
			Cursor:  feedlog.EncodeCursor(c.Cursor),
		})
	}
	return states
}

// Restore rebuilds a registry from saved states, given in display order.
// Malformed filters fall back to the empty set and malformed cursors to a
// fresh start. A cursor past the newest event in log (for example after the
// log itself was not restored) is dropped. newBuffer supplies each column's
// display buffer.
func Restore(states []ColumnState, log feedlog.Log, newBuffer func() column.Buffer) *Registry {
	r := New()
	newest, hasEvents := log.Newest()

	for _, st := range states {
		if st.ID == "" {
			continue
		}
		set, err := filter.DecodeSet(st.Filters)
		if err != nil {
			util.LogWarnf("registry: column %s has unreadable filters, starting empty: %v", st.ID, err)
			set = filter.Set{}
		}
		cursor, err := feedlog.DecodeCursor(st.Cursor)
		if err != nil {
			util.LogWarnf("registry: column %s has unreadable cursor, rescanning: %v", st.ID, err)
			cursor = nil
		}
		if cursor != nil && (!hasEvents || *cursor > newest) {
			cursor = nil
		}

		var buf column.Buffer
		if newBuffer != nil {
			buf = newBuffer()
		}
		c := column.NewWithID(st.ID, st.Title, set, buf)
		c.Pinned = st.Pinned
		c.Cursor = cursor

		if _, dup := r.columns[c.ID]; dup {
			r.order = removeID(r.order, c.ID)
		}
		r.columns[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	r.order = AutoArrange(r.columns, r.order)
	return r
}
