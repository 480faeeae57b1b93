package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

const maxBodyWidth = 60

type TableFormatter struct {
	clock      *util.Clock
	showEvents bool
}

func NewTableFormatter(clock *util.Clock, showEvents bool) *TableFormatter {
	return &TableFormatter{clock: clock, showEvents: showEvents}
}

func (f *TableFormatter) Format(w io.Writer, reports []ColumnReport) error {
	if !f.showEvents {
		return f.formatColumns(w, reports)
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := r.Title
		if r.Pinned {
			title += " (pinned)"
		}
		fmt.Fprintf(w, "%s  %s  %d matched of %d scanned\n", title, r.Filters, r.Matched, r.Scanned)

		headers := []string{"Time", "Channel", "Author", "Body"}
		rows := make([][]string, 0, len(r.Events))
		for _, ev := range r.Events {
			body := strings.Join(strings.Fields(ev.Body), " ")
			if media := ev.AttachedMedia(); media != model.MediaNone {
				body = "[" + string(media) + "] " + body
			}
			rows = append(rows, []string{
				formatTime(f.clock, ev),
				ev.Key().String(),
				ev.Author,
				runewidth.Truncate(body, maxBodyWidth, "…"),
			})
		}
		writeTable(w, headers, rows)
	}
	return nil
}

func (f *TableFormatter) formatColumns(w io.Writer, reports []ColumnReport) error {
	headers := []string{"#", "ID", "Title", "Pinned", "Filters"}
	rows := make([][]string, 0, len(reports))
	for i, r := range reports {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.ID, r.Title, pinFlag(r.Pinned), r.Filters})
	}
	writeTable(w, headers, rows)
	return nil
}

// writeTable draws a boxed table sized to its widest cells
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeBorder(w, widths, "top")
	writeRow(w, headers, widths)
	writeBorder(w, widths, "middle")
	for _, row := range rows {
		writeRow(w, row, widths)
	}
	writeBorder(w, widths, "bottom")
}

func writeBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(w, b.String())
}

func writeRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, v := range values {
		b.WriteString(" ")
		b.WriteString(runewidth.FillRight(v, widths[i]))
		b.WriteString(" │")
	}
	fmt.Fprintln(w, b.String())
}
