// Package interaction reads single keystrokes from the terminal for the
// live deck.
package interaction

import (
	"os"

	"golang.org/x/sys/unix"
)

// KeyType classifies a keystroke
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// KeyEvent is one parsed keystroke
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// Char builds a KeyChar event
func Char(r rune) KeyEvent {
	return KeyEvent{Key: r, Type: KeyChar}
}

// KeyboardReader puts stdin in raw mode and delivers keystrokes
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// NewKeyboardReader switches the terminal to raw mode and starts reading
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}
	go kr.readInput()
	return kr, nil
}

func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 8)
	for {
		select {
		case <-kr.stop:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		event, ok := ParseInput(buf[:n])
		if !ok {
			continue
		}
		select {
		case kr.input <- event:
		case <-kr.stop:
			return
		}
	}
}

// ParseInput decodes one read from a raw terminal. Unknown escape
// sequences are dropped.
func ParseInput(buf []byte) (KeyEvent, bool) {
	if len(buf) == 0 {
		return KeyEvent{}, false
	}
	switch buf[0] {
	case 3: // Ctrl+C
		return Char(3), true
	case '\r', '\n':
		return KeyEvent{Key: '\r', Type: KeyEnter}, true
	case '\t':
		return KeyEvent{Key: '\t', Type: KeyTab}, true
	case 27:
		if len(buf) == 1 {
			return KeyEvent{Key: 27, Type: KeyEscape}, true
		}
		if len(buf) >= 3 && (buf[1] == '[' || buf[1] == 'O') {
			switch buf[2] {
			case 'A':
				return KeyEvent{Type: KeyUp}, true
			case 'B':
				return KeyEvent{Type: KeyDown}, true
			case 'C':
				return KeyEvent{Type: KeyRight}, true
			case 'D':
				return KeyEvent{Type: KeyLeft}, true
			}
		}
		return KeyEvent{}, false
	}
	return Char(rune(buf[0])), true
}

// Events returns the keystroke channel
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops reading and restores the terminal
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}

// rawState derives the raw-mode settings from the current ones. ISIG stays
// on so Ctrl+C still interrupts.
func rawState(old *unix.Termios) unix.Termios {
	state := *old
	state.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	state.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	state.Cflag |= unix.CS8
	state.Cc[unix.VMIN] = 1
	state.Cc[unix.VTIME] = 0
	return state
}

func (kr *KeyboardReader) enableRawMode() error {
	fd := int(os.Stdin.Fd())
	old, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	kr.oldState = old
	raw := rawState(old)
	return unix.IoctlSetTermios(fd, ioctlSetTermios, &raw)
}

func (kr *KeyboardReader) disableRawMode() error {
	if kr.oldState == nil {
		return nil
	}
	return unix.IoctlSetTermios(int(os.Stdin.Fd()), ioctlSetTermios, kr.oldState)
}
