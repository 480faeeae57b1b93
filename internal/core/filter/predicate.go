// Package filter implements the column match rules: atomic predicates,
// OR-groups of predicates (Expr) and AND-groups of Exprs (Set).
package filter

import (
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// PredicateKind tags the variant held by a Predicate
type PredicateKind string

const (
	KindTextContains PredicateKind = "text"
	KindMediaIs      PredicateKind = "media"
	KindSourceEquals PredicateKind = "channel"
	KindSourceType   PredicateKind = "source"
	// KindRemovalMarker flags a predicate the UI is about to delete. It is
	// never persisted and never matches.
	KindRemovalMarker PredicateKind = "removing"
)

// Predicate is one atomic match rule. Only the field belonging to Kind is meaningful.
type Predicate struct {
	Kind    PredicateKind
	Query   string
	Media   model.MediaKind
	Channel model.ChannelKey
	Source  string
}

func TextContains(query string) Predicate {
	return Predicate{Kind: KindTextContains, Query: query}
}

func MediaIs(kind model.MediaKind) Predicate {
	return Predicate{Kind: KindMediaIs, Media: kind}
}

func SourceEquals(key model.ChannelKey) Predicate {
	return Predicate{Kind: KindSourceEquals, Channel: key}
}

func SourceTypeIs(source string) Predicate {
	return Predicate{Kind: KindSourceType, Source: source}
}

func RemovalMarker() Predicate {
	return Predicate{Kind: KindRemovalMarker}
}

// IsRemovalMarker reports whether p is the transient removal tag
func (p Predicate) IsRemovalMarker() bool {
	return p.Kind == KindRemovalMarker
}

// Matches evaluates p against ev
func (p Predicate) Matches(ev model.Event) bool {
	switch p.Kind {
	case KindTextContains:
		if p.Query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(ev.Body), strings.ToLower(p.Query))
	case KindMediaIs:
		return ev.AttachedMedia() == p.Media
	case KindSourceEquals:
		return ev.Key() == p.Channel
	case KindSourceType:
		return strings.EqualFold(ev.Source, p.Source)
	case KindRemovalMarker:
		return false
	default:
		return false
	}
}

// String renders p for column headers and logs
func (p Predicate) String() string {
	switch p.Kind {
	case KindTextContains:
		return "text~" + p.Query
	case KindMediaIs:
		return "media=" + string(p.Media)
	case KindSourceEquals:
		return "channel=" + p.Channel.String()
	case KindSourceType:
		return "source=" + p.Source
	case KindRemovalMarker:
		return "(removing)"
	default:
		return "unknown(" + string(p.Kind) + ")"
	}
}

// valid reports whether Kind is one of the persisted variants
func (p Predicate) valid() bool {
	switch p.Kind {
	case KindTextContains, KindMediaIs, KindSourceEquals, KindSourceType:
		return true
	default:
		return false
	}
}
