// Package registry owns the set of configured columns, their display order
// and the round-robin dispatch that feeds them from the shared log.
//
// A Registry is not safe for concurrent use. All mutation is expected to be
// serialised through one control loop; only the Log it reads from is shared
// with ingestion.
package registry

import (
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// Registry holds columns keyed by id, their display order and the scan pointer
type Registry struct {
	columns map[string]*column.Column
	// order is a permutation of the keys of columns, pinned ids first
	order []string
	scan  int
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		columns: make(map[string]*column.Column),
	}
}

// Len returns the number of registered columns
func (r *Registry) Len() int {
	return len(r.order)
}

// Order returns a copy of the display order
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ScanPointer returns the index in display order of the next column to dispatch
func (r *Registry) ScanPointer() int {
	return r.scan
}

// Get looks a column up by id
func (r *Registry) Get(id string) (*column.Column, bool) {
	c, ok := r.columns[id]
	return c, ok
}

// At returns the column shown at index in display order
func (r *Registry) At(index int) (*column.Column, bool) {
	if index < 0 || index >= len(r.order) {
		return nil, false
	}
	return r.lookup(r.order[index])
}

// Columns returns the columns in display order
func (r *Registry) Columns() []*column.Column {
	out := make([]*column.Column, 0, len(r.order))
	for _, id := range r.order {
		if c, ok := r.lookup(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// lookup resolves an id taken from order. A miss means order and columns
// have diverged; it is logged and treated as absent.
func (r *Registry) lookup(id string) (*column.Column, bool) {
	c, ok := r.columns[id]
	if !ok {
		util.LogErrorf("registry: display order references unknown column %s", id)
	}
	return c, ok
}

// Add registers c at the front of the display order and re-arranges. A column
// already registered under the same id is replaced in place of its old entry.
func (r *Registry) Add(c *column.Column) {
	if c == nil {
		return
	}
	if _, exists := r.columns[c.ID]; exists {
		r.order = removeID(r.order, c.ID)
	}
	r.columns[c.ID] = c

	order := make([]string, 0, len(r.order)+1)
	order = append(order, c.ID)
	order = append(order, r.order...)
	r.order = AutoArrange(r.columns, order)

	util.LogDebugf("registry: added column %s (%q), %d columns", c.ID, c.Title, len(r.order))
}

// RemoveAt deletes the column shown at index; out of range is a no-op
func (r *Registry) RemoveAt(index int) {
	if index < 0 || index >= len(r.order) {
		return
	}
	id := r.order[index]
	delete(r.columns, id)
	r.order = removeID(r.order, id)
	util.LogDebugf("registry: removed column %s, %d columns left", id, len(r.order))
}

// Remove deletes the column with the given id; unknown ids are a no-op
func (r *Registry) Remove(id string) {
	for i, existing := range r.order {
		if existing == id {
			r.RemoveAt(i)
			return
		}
	}
}

// Move shifts the column at index from to index to, as a drag-and-drop would,
// then re-arranges so the pinned prefix survives the move
func (r *Registry) Move(from, to int) {
	if from < 0 || from >= len(r.order) || to < 0 || to >= len(r.order) || from == to {
		return
	}
	id := r.order[from]
	order := removeID(r.order, id)
	order = append(order[:to], append([]string{id}, order[to:]...)...)
	r.order = AutoArrange(r.columns, order)
}

// Update routes msg to the column with the given id. Pin changes re-arrange
// the display order; other messages leave it untouched. The column's effect
// is returned so the caller can catch up or persist. Unknown ids are a no-op.
func (r *Registry) Update(id string, msg column.Msg) column.Effect {
	c, ok := r.columns[id]
	if !ok {
		return column.EffectNone
	}
	effect := c.Update(msg)
	if effect.Has(column.EffectReorder) {
		r.order = AutoArrange(r.columns, r.order)
	}
	return effect
}

// AutoArrange stably partitions order into pinned ids followed by unpinned
// ids, keeping the relative order inside each partition. Ids missing from
// columns are dropped. Applying it twice gives the same result as once.
func AutoArrange(columns map[string]*column.Column, order []string) []string {
	pinned := make([]string, 0, len(order))
	unpinned := make([]string, 0, len(order))
	for _, id := range order {
		c, ok := columns[id]
		if !ok {
			continue
		}
		if c.Pinned {
			pinned = append(pinned, id)
		} else {
			unpinned = append(unpinned, id)
		}
	}
	return append(pinned, unpinned...)
}

func removeID(order []string, id string) []string {
	out := make([]string, 0, len(order))
	for _, existing := range order {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
