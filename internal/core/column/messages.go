package column

import "github.com/penwyp/go-feed-deck/internal/core/filter"

// Msg is an edit addressed to a single column
type Msg interface {
	isColumnMsg()
}

// AddExpr appends an OR-group to the pending set
type AddExpr struct{ Expr filter.Expr }

// DeleteExpr removes a pending OR-group
type DeleteExpr struct{ Index int }

// AddPredicate appends a predicate to a pending OR-group
type AddPredicate struct {
	ExprIndex int
	Predicate filter.Predicate
}

// SetPredicate replaces one predicate of a pending OR-group
type SetPredicate struct {
	ExprIndex int
	PredIndex int
	Predicate filter.Predicate
}

// DeletePredicate removes one predicate; an emptied group is dropped
type DeletePredicate struct {
	ExprIndex int
	PredIndex int
}

// MarkForRemoval tags a pending predicate as about to be deleted
type MarkForRemoval struct {
	ExprIndex int
	PredIndex int
}

// ReplacePending swaps the whole edit buffer
type ReplacePending struct{ Set filter.Set }

// Confirm makes the pending set active and restarts the column
type Confirm struct{}

// Cancel discards pending edits
type Cancel struct{}

// SetPinned pins or unpins the column
type SetPinned struct{ Pinned bool }

// Rename changes the display title
type Rename struct{ Title string }

func (AddExpr) isColumnMsg()         {}
func (DeleteExpr) isColumnMsg()      {}
func (AddPredicate) isColumnMsg()    {}
func (SetPredicate) isColumnMsg()    {}
func (DeletePredicate) isColumnMsg() {}
func (MarkForRemoval) isColumnMsg()  {}
func (ReplacePending) isColumnMsg()  {}
func (Confirm) isColumnMsg()         {}
func (Cancel) isColumnMsg()          {}
func (SetPinned) isColumnMsg()       {}
func (Rename) isColumnMsg()          {}

// Effect lists the follow-up work an update requires from the caller
type Effect uint8

const (
	EffectNone Effect = 0
	// EffectReorder: the pin flag changed, display order must be re-arranged
	EffectReorder Effect = 1 << iota
	// EffectCatchUp: the column was reset and should be caught up right away
	EffectCatchUp
	// EffectPersist: durable column state changed
	EffectPersist
)

// Has reports whether all flags in f are set
func (e Effect) Has(f Effect) bool {
	return f != 0 && e&f == f
}
