package column

import (
	"sync"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

const DefaultBufferCapacity = 2000

// Buffer holds a column's matched events, newest first
type Buffer interface {
	// PrependMatches places a batch, given oldest first, in front of the
	// buffer so that its newest event becomes the head
	PrependMatches(events []model.Event)
	Clear()
	Size() int
	// Window returns up to limit events starting offset entries from the newest
	Window(offset, limit int) []model.Event
}

// MemoryBuffer is a bounded newest-first Buffer. Once full, the oldest
// entries fall off the tail. The renderer reads it from another goroutine,
// hence the lock.
type MemoryBuffer struct {
	mu       sync.RWMutex
	events   []model.Event // newest first
	capacity int
}

var _ Buffer = (*MemoryBuffer)(nil)

// NewMemoryBuffer creates a buffer. A non-positive capacity uses DefaultBufferCapacity.
func NewMemoryBuffer(capacity int) *MemoryBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &MemoryBuffer{capacity: capacity}
}

func (b *MemoryBuffer) PrependMatches(events []model.Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(events) + len(b.events)
	if size > b.capacity {
		size = b.capacity
	}
	next := make([]model.Event, 0, size)
	for i := len(events) - 1; i >= 0 && len(next) < size; i-- {
		next = append(next, events[i])
	}
	for _, ev := range b.events {
		if len(next) == size {
			break
		}
		next = append(next, ev)
	}
	b.events = next
}

func (b *MemoryBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func (b *MemoryBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

func (b *MemoryBuffer) Window(offset, limit int) []model.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.events) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(b.events) {
		end = len(b.events)
	}
	out := make([]model.Event, end-offset)
	copy(out, b.events[offset:end])
	return out
}
