package deck

import (
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/penwyp/go-feed-deck/internal/presentation/display"
	"github.com/penwyp/go-feed-deck/internal/presentation/interaction"
)

// StateStore persists columns, the log and source checkpoints
type StateStore interface {
	SaveColumns(states []registry.ColumnState) error
	LoadColumns() ([]registry.ColumnState, error)
	SaveLog(encoded string) error
	LoadLog() (string, error)
	SaveOffset(name string, offset int64) error
	LoadOffset(name string) (offset int64, ok bool, err error)
}

// DisplayController draws deck frames
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// Render draws one frame
	Render(frame display.Frame)
}

// InputHandler processes keyboard input
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}
