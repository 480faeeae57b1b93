package display

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	fallbackWidth  = 100
	fallbackHeight = 30
	minWidth       = 40
	minHeight      = 10
)

// TerminalSize returns the stdout size, falling back to 100x30 when stdout
// is not a terminal or is implausibly small
func TerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < minWidth {
		w = fallbackWidth
	}
	if err != nil || h < minHeight {
		h = fallbackHeight
	}
	return w, h
}

// displayWidth is the number of terminal cells s occupies
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// fit truncates or pads s to exactly width cells
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if displayWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return PadString(s, width, true)
}

// PadString pads s with spaces to width cells
func PadString(s string, width int, leftAlign bool) string {
	actual := displayWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// singleLine flattens newlines and tabs so an event body fits one row
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
