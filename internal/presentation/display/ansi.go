package display

// ANSI control sequences
const (
	EnterAlternate = "\033[?1049h"
	ExitAlternate  = "\033[?1049l"
	ClearScreen    = "\033[2J"
	ClearLine      = "\033[2K"
	MoveCursorHome = "\033[H"
	HideCursor     = "\033[?25l"
	ShowCursor     = "\033[?25h"

	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Reverse = "\033[7m"
	Reset   = "\033[0m"
)
