// Package formatter renders one-shot column reports for the scan and
// columns commands.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// ColumnReport is one column with the result of scanning it
type ColumnReport struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Pinned  bool          `json:"pinned"`
	Filters string        `json:"filters"`
	Encoded string        `json:"encoded_filters,omitempty"`
	Scanned int           `json:"scanned"`
	Matched int           `json:"matched"`
	Events  []model.Event `json:"events,omitempty"`
}

// Formatter writes reports to w
type Formatter interface {
	Format(w io.Writer, reports []ColumnReport) error
}

// New returns the formatter for an --output value. showEvents selects the
// per-event table rather than the column listing.
func New(format string, clock *util.Clock, showEvents bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return NewTableFormatter(clock, showEvents), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(clock), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (table, json, csv, summary)", format)
	}
}

const timeLayout = "2006-01-02 15:04:05"

func formatTime(clock *util.Clock, ev model.Event) string {
	if ev.Timestamp.IsZero() {
		return "-"
	}
	if clock == nil {
		return ev.Timestamp.Format(timeLayout)
	}
	return clock.Format(ev.Timestamp, timeLayout)
}

func pinFlag(pinned bool) string {
	if pinned {
		return "yes"
	}
	return "no"
}
