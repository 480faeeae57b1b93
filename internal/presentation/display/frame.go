// Package display draws the deck as side-by-side columns in the terminal.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// MinColumnWidth is the narrowest a column is drawn; columns that do not fit
// scroll horizontally around the selected one
const MinColumnWidth = 28

const separator = "│"

// ColumnView is what the renderer needs to know about one column
type ColumnView struct {
	ID      string
	Title   string
	Pinned  bool
	Editing bool
	Filters string
	Total   int
	Events  []model.Event
}

// Dialog is a yes/no confirmation
type Dialog struct {
	Title   string
	Message string
}

// Frame is one full screen of deck state
type Frame struct {
	Columns  []ColumnView
	Selected int
	Paused   bool
	Help     bool
	Dialog   *Dialog
	Status   string
	LogLen   int
	LogCap   int
	Ingested int64
	Now      time.Time
}

// Compose lays frame out as exactly height lines of width cells. It does
// no I/O.
func Compose(frame Frame, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	if height < 3 {
		return []string{fit(header(frame), width)}
	}
	body := height - 2
	var lines []string
	switch {
	case frame.Dialog != nil:
		lines = composeDialog(*frame.Dialog, width, body)
	case frame.Help:
		lines = composeHelp(width, body)
	default:
		lines = composeColumns(frame, width, body)
	}

	out := make([]string, 0, height)
	out = append(out, fit(header(frame), width))
	out = append(out, lines...)
	for len(out) < height-1 {
		out = append(out, strings.Repeat(" ", width))
	}
	out = append(out, fit(footer(frame), width))
	return out
}

func header(frame Frame) string {
	state := "live"
	if frame.Paused {
		state = "paused"
	}
	return fmt.Sprintf(" feed-deck %s  %d columns  log %s/%s  ingested %s  [%s]",
		frame.Now.Format("15:04:05"), len(frame.Columns),
		util.FormatNumber(frame.LogLen), util.FormatNumber(frame.LogCap),
		util.FormatNumber(int(frame.Ingested)), state)
}

func footer(frame Frame) string {
	if frame.Status != "" {
		return " " + frame.Status
	}
	return " ←/→ select  p pin  [ ] move  c rescan  x remove  r dispatch  space pause  ? help  q quit"
}

// visibleRange picks which columns fit on screen, keeping selected in view
func visibleRange(n, selected, width int) (first, count, colWidth int) {
	if n == 0 {
		return 0, 0, width
	}
	fits := (width + 1) / (MinColumnWidth + 1)
	if fits < 1 {
		fits = 1
	}
	if fits > n {
		fits = n
	}
	if selected < 0 {
		selected = 0
	}
	if selected >= n {
		selected = n - 1
	}
	first = 0
	if selected >= fits {
		first = selected - fits + 1
	}
	colWidth = (width - (fits - 1)) / fits
	return first, fits, colWidth
}

func composeColumns(frame Frame, width, height int) []string {
	if len(frame.Columns) == 0 {
		lines := []string{fit("", width), fit("  No columns configured. Add one under [[columns]] in the config file.", width)}
		return lines
	}

	first, count, colWidth := visibleRange(len(frame.Columns), frame.Selected, width)
	cells := make([][]string, count)
	for i := 0; i < count; i++ {
		idx := first + i
		cells[i] = composeColumn(frame.Columns[idx], idx == frame.Selected, frame.Now, colWidth, height)
	}

	// cells are already exactly colWidth wide; the selected title carries
	// escape codes, so rows are padded by arithmetic rather than measured
	used := count*colWidth + (count-1)*displayWidth(separator)
	trailing := ""
	if used < width {
		trailing = strings.Repeat(" ", width-used)
	}
	lines := make([]string, height)
	for row := 0; row < height; row++ {
		parts := make([]string, count)
		for i := range cells {
			parts[i] = cells[i][row]
		}
		lines[row] = strings.Join(parts, separator) + trailing
	}
	return lines
}

func composeColumn(col ColumnView, selected bool, now time.Time, width, height int) []string {
	lines := make([]string, 0, height)

	title := col.Title
	if col.Pinned {
		title = "📌 " + title
	}
	if col.Editing {
		title += " (edited)"
	}
	title = fmt.Sprintf("%s · %d", title, col.Total)
	titleLine := fit(" "+title, width)
	if selected {
		titleLine = Reverse + titleLine + Reset
	}
	lines = append(lines, titleLine)
	lines = append(lines, fit(" "+col.Filters, width))
	lines = append(lines, strings.Repeat("─", width))

	for _, ev := range col.Events {
		if len(lines) >= height {
			break
		}
		lines = append(lines, fit(eventLine(ev, now), width))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return lines[:height]
}

func eventLine(ev model.Event, now time.Time) string {
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(PadString(util.FormatAge(ev.Timestamp, now), 4, false))
	b.WriteString(" ")
	if ev.Author != "" {
		b.WriteString(ev.Author)
		b.WriteString(": ")
	}
	if media := ev.AttachedMedia(); media != model.MediaNone {
		b.WriteString("[" + string(media) + "] ")
	}
	b.WriteString(singleLine(ev.Body))
	return b.String()
}

var helpLines = []string{
	"Keys",
	"",
	"  ← → / h l    select column",
	"  [ ]          move selected column left / right",
	"  p            pin or unpin selected column",
	"  c            rescan selected column from the oldest event",
	"  x            remove selected column",
	"  r            dispatch one cycle now",
	"  space        pause or resume dispatch",
	"  ? / esc      close this help",
	"  q / ctrl+c   quit",
}

func composeHelp(width, height int) []string {
	lines := make([]string, 0, height)
	for _, l := range helpLines {
		if len(lines) >= height {
			break
		}
		lines = append(lines, fit("  "+l, width))
	}
	return lines
}

func composeDialog(d Dialog, width, height int) []string {
	boxWidth := 50
	if boxWidth > width-2 {
		boxWidth = width - 2
	}
	if boxWidth < 12 {
		boxWidth = width
	}
	pad := strings.Repeat(" ", (width-boxWidth)/2)
	inner := boxWidth - 2

	lines := []string{""}
	lines = append(lines, pad+"╔"+strings.Repeat("═", inner)+"╗")
	lines = append(lines, pad+"║"+center(d.Title, inner)+"║")
	lines = append(lines, pad+"╠"+strings.Repeat("═", inner)+"╣")
	for _, l := range wrapText(d.Message, inner-2) {
		lines = append(lines, pad+"║ "+fit(l, inner-2)+" ║")
	}
	lines = append(lines, pad+"║"+center("(Y)es / (N)o", inner)+"║")
	lines = append(lines, pad+"╚"+strings.Repeat("═", inner)+"╝")

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if len(out) >= height {
			break
		}
		out = append(out, fit(l, width))
	}
	return out
}

func center(s string, width int) string {
	w := displayWidth(s)
	if w >= width {
		return fit(s, width)
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// wrapText wraps text on word boundaries to the given width
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if displayWidth(text) <= width {
		return []string{text}
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case displayWidth(current)+1+displayWidth(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
