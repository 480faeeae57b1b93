package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Terminal draws frames to a writer, rewriting only lines that changed
// since the previous frame
type Terminal struct {
	mu          sync.Mutex
	out         io.Writer
	size        func() (int, int)
	inAlternate bool
	previous    []string
	lastWidth   int
}

// NewTerminal draws to stdout at the live terminal size
func NewTerminal() *Terminal {
	return NewTerminalWriter(os.Stdout, TerminalSize)
}

// NewTerminalWriter draws to out at the size reported by size
func NewTerminalWriter(out io.Writer, size func() (int, int)) *Terminal {
	return &Terminal{out: out, size: size}
}

// EnterAlternateScreen switches to the alternate screen buffer
func (t *Terminal) EnterAlternateScreen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inAlternate {
		return
	}
	fmt.Fprint(t.out, EnterAlternate+ClearScreen+MoveCursorHome+HideCursor)
	t.inAlternate = true
	t.previous = nil
}

// ExitAlternateScreen returns to the normal screen buffer
func (t *Terminal) ExitAlternateScreen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.inAlternate {
		return
	}
	fmt.Fprint(t.out, ClearScreen+MoveCursorHome+ShowCursor+ExitAlternate)
	t.inAlternate = false
}

// Render draws frame. A size change forces a full redraw.
func (t *Terminal) Render(frame Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, height := t.size()
	lines := Compose(frame, width, height)

	full := len(t.previous) != len(lines) || t.lastWidth != width

	w := bufio.NewWriter(t.out)
	if full {
		fmt.Fprint(w, ClearScreen)
	}
	for i, line := range lines {
		if !full && t.previous[i] == line {
			continue
		}
		fmt.Fprintf(w, "\033[%d;1H%s%s", i+1, ClearLine, line)
	}
	w.Flush()
	t.previous = lines
	t.lastWidth = width
}
