package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// ErrMalformed is returned when a persisted filter set cannot be decoded
var ErrMalformed = errors.New("malformed filter set")

// wirePredicate is the persisted form of a Predicate
type wirePredicate struct {
	Kind    string `json:"kind"`
	Query   string `json:"query,omitempty"`
	Media   string `json:"media,omitempty"`
	Source  string `json:"source,omitempty"`
	Channel string `json:"channel,omitempty"`
}

func toWire(p Predicate) wirePredicate {
	w := wirePredicate{Kind: string(p.Kind)}
	switch p.Kind {
	case KindTextContains:
		w.Query = p.Query
	case KindMediaIs:
		w.Media = string(p.Media)
	case KindSourceEquals:
		w.Source = p.Channel.Source
		w.Channel = p.Channel.Channel
	case KindSourceType:
		w.Source = p.Source
	}
	return w
}

func fromWire(w wirePredicate) (Predicate, error) {
	switch PredicateKind(w.Kind) {
	case KindTextContains:
		return TextContains(w.Query), nil
	case KindMediaIs:
		return MediaIs(model.ParseMediaKind(w.Media)), nil
	case KindSourceEquals:
		return SourceEquals(model.ChannelKey{Source: w.Source, Channel: w.Channel}), nil
	case KindSourceType:
		return SourceTypeIs(w.Source), nil
	default:
		return Predicate{}, fmt.Errorf("%w: unknown predicate kind %q", ErrMalformed, w.Kind)
	}
}

// EncodeSet serialises s to its persisted string form. Removal markers are
// stripped, and an Expr left without predicates is omitted.
func EncodeSet(s Set) (string, error) {
	groups := make([][]wirePredicate, 0, s.Len())
	for _, e := range s.exprs {
		group := make([]wirePredicate, 0, e.Len())
		for _, p := range e.preds {
			if !p.valid() {
				continue
			}
			group = append(group, toWire(p))
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	out, err := sonic.MarshalString(groups)
	if err != nil {
		return "", fmt.Errorf("encode filter set: %w", err)
	}
	return out, nil
}

// DecodeSet parses a string produced by EncodeSet. An empty or blank string
// decodes to the empty Set.
func DecodeSet(data string) (Set, error) {
	if strings.TrimSpace(data) == "" {
		return Set{}, nil
	}
	var groups [][]wirePredicate
	if err := sonic.UnmarshalString(data, &groups); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	exprs := make([]Expr, 0, len(groups))
	for i, group := range groups {
		if len(group) == 0 {
			return Set{}, fmt.Errorf("%w: group %d has no predicates", ErrMalformed, i)
		}
		preds := make([]Predicate, 0, len(group))
		for _, w := range group {
			p, err := fromWire(w)
			if err != nil {
				return Set{}, err
			}
			preds = append(preds, p)
		}
		exprs = append(exprs, Expr{preds: preds})
	}
	return Set{exprs: exprs}, nil
}
