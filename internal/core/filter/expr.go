package filter

import (
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// Expr is a non-empty ordered OR-group of predicates. Values are immutable:
// every edit returns a new Expr and leaves the receiver untouched.
// The zero Expr holds no predicates and matches nothing; build Exprs with NewExpr.
type Expr struct {
	preds []Predicate
}

// NewExpr builds an Expr from at least one predicate
func NewExpr(first Predicate, rest ...Predicate) Expr {
	preds := make([]Predicate, 0, 1+len(rest))
	preds = append(preds, first)
	preds = append(preds, rest...)
	return Expr{preds: preds}
}

// exprFromSlice wraps preds, reporting false when preds is empty
func exprFromSlice(preds []Predicate) (Expr, bool) {
	if len(preds) == 0 {
		return Expr{}, false
	}
	return Expr{preds: preds}, true
}

// Len returns the number of predicates
func (e Expr) Len() int {
	return len(e.preds)
}

// At returns the predicate at index
func (e Expr) At(index int) (Predicate, bool) {
	if index < 0 || index >= len(e.preds) {
		return Predicate{}, false
	}
	return e.preds[index], true
}

// Predicates returns a copy of the predicates in insertion order
func (e Expr) Predicates() []Predicate {
	out := make([]Predicate, len(e.preds))
	copy(out, e.preds)
	return out
}

// MatchesAny reports whether ev satisfies at least one predicate, evaluated left to right
func (e Expr) MatchesAny(ev model.Event) bool {
	for _, p := range e.preds {
		if p.Matches(ev) {
			return true
		}
	}
	return false
}

// Prepend returns a new Expr with p at the front
func (e Expr) Prepend(p Predicate) Expr {
	preds := make([]Predicate, 0, len(e.preds)+1)
	preds = append(preds, p)
	preds = append(preds, e.preds...)
	return Expr{preds: preds}
}

// Append returns a new Expr with p at the tail
func (e Expr) Append(p Predicate) Expr {
	preds := make([]Predicate, 0, len(e.preds)+1)
	preds = append(preds, e.preds...)
	preds = append(preds, p)
	return Expr{preds: preds}
}

// SetAt replaces the predicate at index. Out-of-range indices return e unchanged.
func (e Expr) SetAt(index int, p Predicate) Expr {
	if index < 0 || index >= len(e.preds) {
		return e
	}
	preds := e.Predicates()
	preds[index] = p
	return Expr{preds: preds}
}

// RemoveAt removes the predicate at index. Removing the only predicate yields
// (Expr{}, false): the caller must drop the whole group from its Set.
// Out-of-range indices return (e, true).
func (e Expr) RemoveAt(index int) (Expr, bool) {
	if index < 0 || index >= len(e.preds) {
		return e, true
	}
	preds := make([]Predicate, 0, len(e.preds)-1)
	preds = append(preds, e.preds[:index]...)
	preds = append(preds, e.preds[index+1:]...)
	return exprFromSlice(preds)
}

// Equal reports whether both Exprs hold the same predicates in the same order
func (e Expr) Equal(o Expr) bool {
	if len(e.preds) != len(o.preds) {
		return false
	}
	for i := range e.preds {
		if e.preds[i] != o.preds[i] {
			return false
		}
	}
	return true
}

func (e Expr) String() string {
	parts := MapPredicates(e, Predicate.String)
	return "(" + strings.Join(parts, " | ") + ")"
}

// Fold threads acc through the predicates of e in insertion order
func Fold[T any](e Expr, acc T, fn func(T, Predicate) T) T {
	for _, p := range e.preds {
		acc = fn(acc, p)
	}
	return acc
}

// MapPredicates projects every predicate of e in insertion order
func MapPredicates[T any](e Expr, fn func(Predicate) T) []T {
	out := make([]T, 0, len(e.preds))
	for _, p := range e.preds {
		out = append(out, fn(p))
	}
	return out
}

// IndexedMap projects every predicate of e together with its index
func IndexedMap[T any](e Expr, fn func(int, Predicate) T) []T {
	out := make([]T, 0, len(e.preds))
	for i, p := range e.preds {
		out = append(out, fn(i, p))
	}
	return out
}
