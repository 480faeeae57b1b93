// Package e2e replays terminal output onto a virtual screen so tests can
// assert what a user would actually see after differential redraws.
package e2e

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Screen is a fixed-size grid of cells. Wide runes occupy two cells; the
// second holds a zero rune and is skipped when rendering.
type Screen struct {
	rows, cols int
	cells      [][]rune
	x, y       int

	// Alternate reports whether the alternate screen buffer is active
	Alternate bool
	// CursorHidden reports whether the cursor was hidden
	CursorHidden bool
}

// NewScreen creates a blank screen
func NewScreen(rows, cols int) *Screen {
	s := &Screen{rows: rows, cols: cols, cells: make([][]rune, rows)}
	for i := range s.cells {
		s.cells[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []rune {
	row := make([]rune, cols)
	for i := range row {
		row[i] = ' '
	}
	return row
}

// Write feeds raw terminal output to the screen. It never fails.
func (s *Screen) Write(p []byte) (int, error) {
	runes := []rune(string(p))
	for i := 0; i < len(runes); {
		switch r := runes[i]; {
		case r == '\x1b' && i+1 < len(runes) && runes[i+1] == '[':
			i = s.csi(runes, i+2)
		case r == '\r':
			s.x = 0
			i++
		case r == '\n':
			s.lineFeed()
			i++
		default:
			s.put(r)
			i++
		}
	}
	return len(p), nil
}

// csi handles one control sequence starting after "ESC [" and returns the
// index following it
func (s *Screen) csi(runes []rune, i int) int {
	private := false
	if i < len(runes) && runes[i] == '?' {
		private = true
		i++
	}
	params := []int{}
	current, seen := 0, false
	for ; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
			seen = true
		case r == ';':
			params = append(params, current)
			current, seen = 0, false
		default:
			if seen || len(params) > 0 {
				params = append(params, current)
			}
			if private {
				s.mode(r, params)
			} else {
				s.command(r, params)
			}
			return i + 1
		}
	}
	return i
}

func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (s *Screen) mode(cmd rune, params []int) {
	set := cmd == 'h'
	switch param(params, 0, 0) {
	case 1049:
		s.Alternate = set
	case 25:
		s.CursorHidden = !set
	}
}

func (s *Screen) command(cmd rune, params []int) {
	switch cmd {
	case 'H', 'f':
		s.y = min(param(params, 0, 1), s.rows) - 1
		s.x = min(param(params, 1, 1), s.cols) - 1
	case 'J':
		if len(params) > 0 && params[0] == 2 {
			for i := range s.cells {
				s.cells[i] = blankRow(s.cols)
			}
		}
	case 'K':
		mode := 0
		if len(params) > 0 {
			mode = params[0]
		}
		row := s.cells[s.y]
		switch mode {
		case 0:
			for j := s.x; j < s.cols; j++ {
				row[j] = ' '
			}
		case 2:
			s.cells[s.y] = blankRow(s.cols)
		}
	case 'm':
		// Attributes do not change cell contents
	}
}

func (s *Screen) put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if s.x+w > s.cols {
		s.lineFeed()
	}
	s.cells[s.y][s.x] = r
	if w == 2 {
		s.cells[s.y][s.x+1] = 0
	}
	s.x += w
}

func (s *Screen) lineFeed() {
	s.x = 0
	if s.y < s.rows-1 {
		s.y++
		return
	}
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = blankRow(s.cols)
}

// Line returns row i without trailing blanks
func (s *Screen) Line(i int) string {
	if i < 0 || i >= s.rows {
		return ""
	}
	var b strings.Builder
	for _, r := range s.cells[i] {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Lines returns every row
func (s *Screen) Lines() []string {
	out := make([]string, s.rows)
	for i := range out {
		out[i] = s.Line(i)
	}
	return out
}

// Contains reports whether any row contains text
func (s *Screen) Contains(text string) bool {
	for i := 0; i < s.rows; i++ {
		if strings.Contains(s.Line(i), text) {
			return true
		}
	}
	return false
}
