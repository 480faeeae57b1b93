package formatter

import (
	"encoding/csv"
	"io"

	"github.com/penwyp/go-feed-deck/internal/util"
)

// CSVFormatter writes one record per matched event
type CSVFormatter struct {
	clock *util.Clock
}

func NewCSVFormatter(clock *util.Clock) *CSVFormatter {
	return &CSVFormatter{clock: clock}
}

func (f *CSVFormatter) Format(w io.Writer, reports []ColumnReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	headers := []string{"Column", "Event ID", "Time", "Source", "Channel", "Author", "Media", "Body"}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range reports {
		for _, ev := range r.Events {
			record := []string{
				r.Title,
				ev.ID,
				formatTime(f.clock, ev),
				ev.Source,
				ev.Channel,
				ev.Author,
				string(ev.AttachedMedia()),
				ev.Body,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
