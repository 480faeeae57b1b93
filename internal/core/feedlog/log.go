// Package feedlog defines the bounded, append-only event log that columns
// consume from, and provides an in-memory ring implementation of it.
package feedlog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// ErrMalformed is returned when a persisted log or position cannot be decoded
var ErrMalformed = errors.New("malformed log data")

// Position identifies an event's place in the log. Positions are global
// append sequence numbers starting at 1, so they order totally and survive
// eviction of the event they name.
type Position uint64

func (p Position) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePosition parses the String form of a Position
func ParsePosition(s string) (Position, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: position %q", ErrMalformed, s)
	}
	return Position(n), nil
}

// EncodeCursor renders an optional position; nil encodes to the empty string
func EncodeCursor(p *Position) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// DecodeCursor parses EncodeCursor output. The empty string decodes to nil.
func DecodeCursor(s string) (*Position, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	p, err := ParsePosition(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Reader reads events in log order
type Reader interface {
	// ReadNext returns the event right after from, or the oldest retained
	// event when from is nil. A from position that has been evicted restarts
	// at the oldest retained event. ok is false when nothing follows.
	ReadNext(from *Position) (ev model.Event, pos Position, ok bool)
}

// Log is the bounded store ingestion appends to and columns scan
type Log interface {
	// Capacity returns the maximum number of retained events
	Capacity() int
	// Len returns the number of retained events
	Len() int
	// Newest returns the position of the latest event, ok is false when empty
	Newest() (pos Position, ok bool)
	// Append adds ev, evicting the oldest events when full, and returns its position
	Append(ev model.Event) Position
	// View runs fn against a view that no concurrent Append can change
	View(fn func(r Reader))
}
