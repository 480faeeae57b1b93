package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-feed-deck/internal/util"
)

// SummaryFormatter prints one line per column with its match counts
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, reports []ColumnReport) error {
	total := 0
	for _, r := range reports {
		pin := " "
		if r.Pinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%s %-24s %8s matched of %s\n", pin, r.Title,
			util.FormatNumber(r.Matched), util.FormatNumber(r.Scanned))
		total += r.Matched
	}
	fmt.Fprintf(w, "  %d columns, %s matches\n", len(reports), util.FormatNumber(total))
	return nil
}
