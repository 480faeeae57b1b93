package registry

import (
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// ScanReport describes one scan of one column
type ScanReport struct {
	ColumnID string
	Pulled   int
	Matched  int
}

// DispatchOneCycle scans the column under the scan pointer, then advances
// the pointer. Each cycle gives that column cycleBudget divided by the number
// of columns; the remainder is not carried over.
func (r *Registry) DispatchOneCycle(log feedlog.Log, cycleBudget int) ScanReport {
	if len(r.order) == 0 {
		return ScanReport{}
	}
	r.clampScan()
	id := r.order[r.scan]
	r.scan = (r.scan + 1) % len(r.order)

	c, ok := r.lookup(id)
	if !ok {
		return ScanReport{ColumnID: id}
	}
	perColumn := cycleBudget / len(r.columns)
	report := scan(c, log, perColumn)
	if report.Pulled > 0 {
		util.LogDebugf("dispatch: column %s pulled %d matched %d (budget %d)",
			id, report.Pulled, report.Matched, perColumn)
	}
	return report
}

// CatchUp scans one column immediately with its own budget, outside the
// rotation. Used right after a column is created or its filters confirmed.
func (r *Registry) CatchUp(id string, log feedlog.Log, budget int) ScanReport {
	c, ok := r.columns[id]
	if !ok {
		return ScanReport{ColumnID: id}
	}
	report := scan(c, log, budget)
	util.LogDebugf("catch-up: column %s pulled %d matched %d (budget %d)",
		id, report.Pulled, report.Matched, budget)
	return report
}

// clampScan pulls the scan pointer back into range after removals
func (r *Registry) clampScan() {
	if r.scan < 0 {
		r.scan = 0
	}
	if r.scan >= len(r.order) {
		r.scan = len(r.order) - 1
	}
}

// scan pulls up to budget events after the column cursor, forwards the
// matching ones to its buffer and moves the cursor to the last event pulled,
// matched or not, so nothing is scanned twice.
func scan(c *column.Column, log feedlog.Log, budget int) ScanReport {
	report := ScanReport{ColumnID: c.ID}
	if budget <= 0 {
		return report
	}

	var matched []model.Event
	var last *feedlog.Position
	log.View(func(rd feedlog.Reader) {
		cursor := c.Cursor
		for report.Pulled < budget {
			ev, pos, ok := rd.ReadNext(cursor)
			if !ok {
				break
			}
			report.Pulled++
			p := pos
			cursor = &p
			last = cursor
			if c.Active.Matches(ev) {
				matched = append(matched, ev)
			}
		}
	})

	if last != nil {
		c.Advance(*last)
	}
	if len(matched) > 0 {
		c.Buffer.PrependMatches(matched)
		report.Matched = len(matched)
	}
	return report
}
