package filter

import (
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// Set is an AND-group of Exprs. An empty Set matches nothing, so an
// unconfigured column stays empty instead of showing the whole log.
// Like Expr, a Set is immutable; edits return a new Set.
type Set struct {
	exprs []Expr
}

// NewSet builds a Set from the given Exprs. Empty Exprs are discarded.
func NewSet(exprs ...Expr) Set {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e.Len() > 0 {
			out = append(out, e)
		}
	}
	return Set{exprs: out}
}

// Len returns the number of Exprs in the set
func (s Set) Len() int {
	return len(s.exprs)
}

// IsEmpty reports whether the set has no Exprs
func (s Set) IsEmpty() bool {
	return len(s.exprs) == 0
}

// At returns the Expr at index
func (s Set) At(index int) (Expr, bool) {
	if index < 0 || index >= len(s.exprs) {
		return Expr{}, false
	}
	return s.exprs[index], true
}

// Exprs returns a copy of the Exprs in display order
func (s Set) Exprs() []Expr {
	out := make([]Expr, len(s.exprs))
	copy(out, s.exprs)
	return out
}

// Matches reports whether s is non-empty and every Expr has a predicate matching ev
func (s Set) Matches(ev model.Event) bool {
	if len(s.exprs) == 0 {
		return false
	}
	for _, e := range s.exprs {
		if !e.MatchesAny(ev) {
			return false
		}
	}
	return true
}

// AddExpr appends e to the set. An empty Expr is ignored.
func (s Set) AddExpr(e Expr) Set {
	if e.Len() == 0 {
		return s
	}
	exprs := make([]Expr, 0, len(s.exprs)+1)
	exprs = append(exprs, s.exprs...)
	exprs = append(exprs, e)
	return Set{exprs: exprs}
}

// DeleteExpr removes the Expr at index; out of range is a no-op
func (s Set) DeleteExpr(index int) Set {
	if index < 0 || index >= len(s.exprs) {
		return s
	}
	exprs := make([]Expr, 0, len(s.exprs)-1)
	exprs = append(exprs, s.exprs[:index]...)
	exprs = append(exprs, s.exprs[index+1:]...)
	return Set{exprs: exprs}
}

// AddPredicate appends p to the Expr at exprIndex
func (s Set) AddPredicate(exprIndex int, p Predicate) Set {
	return s.replaceExpr(exprIndex, func(e Expr) (Expr, bool) {
		return e.Append(p), true
	})
}

// SetPredicate replaces predicate predIndex of the Expr at exprIndex
func (s Set) SetPredicate(exprIndex, predIndex int, p Predicate) Set {
	return s.replaceExpr(exprIndex, func(e Expr) (Expr, bool) {
		return e.SetAt(predIndex, p), true
	})
}

// DeletePredicate removes predicate predIndex of the Expr at exprIndex.
// When that empties the Expr, the Expr itself is dropped from the set.
func (s Set) DeletePredicate(exprIndex, predIndex int) Set {
	return s.replaceExpr(exprIndex, func(e Expr) (Expr, bool) {
		return e.RemoveAt(predIndex)
	})
}

func (s Set) replaceExpr(index int, fn func(Expr) (Expr, bool)) Set {
	if index < 0 || index >= len(s.exprs) {
		return s
	}
	next, keep := fn(s.exprs[index])
	if !keep {
		return s.DeleteExpr(index)
	}
	exprs := s.Exprs()
	exprs[index] = next
	return Set{exprs: exprs}
}

// Equal reports whether both sets hold equal Exprs in the same order
func (s Set) Equal(o Set) bool {
	if len(s.exprs) != len(o.exprs) {
		return false
	}
	for i := range s.exprs {
		if !s.exprs[i].Equal(o.exprs[i]) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	if len(s.exprs) == 0 {
		return "(nothing)"
	}
	parts := make([]string, 0, len(s.exprs))
	for _, e := range s.exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " & ")
}
