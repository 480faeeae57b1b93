package deck

import (
	"fmt"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// ReconcileResult lists what Reconcile changed
type ReconcileResult struct {
	Added     []string
	Confirmed []string
	Removed   []string
	Changed   bool
}

// NeedCatchUp returns the ids that were reset and should be caught up
func (r ReconcileResult) NeedCatchUp() []string {
	out := make([]string, 0, len(r.Added)+len(r.Confirmed))
	out = append(out, r.Added...)
	return append(out, r.Confirmed...)
}

// Reconcile brings reg in line with the configured columns. Filter changes
// go through the column's pending set and a confirm, as an interactive edit
// would. New columns are added in configuration order at the front of the
// display; columns missing from the configuration are removed. An empty
// column list leaves reg untouched so saved state stays authoritative.
// Nothing is changed when any configured column is invalid.
func Reconcile(reg *registry.Registry, columns []config.ColumnConfig, newBuffer func() column.Buffer) (ReconcileResult, error) {
	var result ReconcileResult
	if len(columns) == 0 {
		return result, nil
	}

	sets := make([]filter.Set, len(columns))
	wanted := make(map[string]bool, len(columns))
	for i, cc := range columns {
		set, err := cc.FilterSet()
		if err != nil {
			return result, fmt.Errorf("column %q: %w", cc.Title, err)
		}
		sets[i] = set
		wanted[cc.StableID()] = true
	}

	var fresh []int
	for i, cc := range columns {
		id := cc.StableID()
		c, ok := reg.Get(id)
		if !ok {
			fresh = append(fresh, i)
			continue
		}
		reg.Update(id, column.ReplacePending{Set: sets[i]})
		if c.IsEditing() {
			reg.Update(id, column.Confirm{})
			result.Confirmed = append(result.Confirmed, id)
		}
		if reg.Update(id, column.Rename{Title: cc.Title}).Has(column.EffectPersist) {
			result.Changed = true
		}
		if reg.Update(id, column.SetPinned{Pinned: cc.Pinned}).Has(column.EffectPersist) {
			result.Changed = true
		}
	}

	for i := len(fresh) - 1; i >= 0; i-- {
		cc := columns[fresh[i]]
		var buf column.Buffer
		if newBuffer != nil {
			buf = newBuffer()
		}
		c := column.NewWithID(cc.StableID(), cc.Title, sets[fresh[i]], buf)
		c.Pinned = cc.Pinned
		reg.Add(c)
	}
	for _, i := range fresh {
		result.Added = append(result.Added, columns[i].StableID())
	}

	for _, id := range reg.Order() {
		if !wanted[id] {
			reg.Remove(id)
			result.Removed = append(result.Removed, id)
		}
	}

	if len(result.Added)+len(result.Confirmed)+len(result.Removed) > 0 {
		result.Changed = true
	}
	if result.Changed {
		util.LogInfof("deck: reconciled columns, %d added, %d refiltered, %d removed",
			len(result.Added), len(result.Confirmed), len(result.Removed))
	}
	return result, nil
}
