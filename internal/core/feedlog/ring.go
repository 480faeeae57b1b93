package feedlog

import (
	"sync"

	"github.com/penwyp/go-feed-deck/internal/core/model"
)

const DefaultCapacity = 10000

// Ring is a fixed-capacity Log. When full, each Append overwrites the oldest
// retained event. Appends take the write lock and View holds the read lock,
// so a scan never observes a half-applied append.
type Ring struct {
	mu       sync.RWMutex
	buf      []model.Event
	head     int    // slot of the oldest retained event
	count    int    // retained events
	firstSeq uint64 // sequence number of the oldest retained event
	evicted  uint64
}

// Compile-time interface compliance check
var _ Log = (*Ring)(nil)

// NewRing creates an empty ring. A non-positive capacity uses DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		buf:      make([]model.Event, capacity),
		firstSeq: 1,
	}
}

func (r *Ring) Capacity() int {
	return len(r.buf)
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Evicted returns how many events have been dropped to make room
func (r *Ring) Evicted() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}

// Newest returns the position of the most recently appended event
func (r *Ring) Newest() (Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		return 0, false
	}
	return Position(r.firstSeq + uint64(r.count) - 1), true
}

func (r *Ring) Append(ev model.Event) Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(ev)
}

func (r *Ring) appendLocked(ev model.Event) Position {
	capacity := len(r.buf)
	if r.count < capacity {
		r.buf[(r.head+r.count)%capacity] = ev
		r.count++
	} else {
		r.buf[r.head] = ev
		r.head = (r.head + 1) % capacity
		r.firstSeq++
		r.evicted++
	}
	return Position(r.firstSeq + uint64(r.count) - 1)
}

// ReadNext reads a single event under the read lock. Scans spanning several
// reads should go through View instead.
func (r *Ring) ReadNext(from *Position) (model.Event, Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readNextLocked(from)
}

func (r *Ring) View(fn func(Reader)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(lockedView{r: r})
}

func (r *Ring) readNextLocked(from *Position) (model.Event, Position, bool) {
	if r.count == 0 {
		return model.Event{}, 0, false
	}
	want := r.firstSeq
	if from != nil && uint64(*from)+1 > r.firstSeq {
		want = uint64(*from) + 1
	}
	end := r.firstSeq + uint64(r.count)
	if want >= end {
		return model.Event{}, 0, false
	}
	slot := (r.head + int(want-r.firstSeq)) % len(r.buf)
	return r.buf[slot], Position(want), true
}

// events returns the retained events oldest first; caller holds a lock
func (r *Ring) events() []model.Event {
	out := make([]model.Event, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}

// lockedView reads a ring whose read lock is already held
type lockedView struct {
	r *Ring
}

func (v lockedView) ReadNext(from *Position) (model.Event, Position, bool) {
	return v.r.readNextLocked(from)
}
