package feedlog

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// ringSnapshot is the persisted form of a Ring
type ringSnapshot struct {
	Capacity int           `json:"capacity"`
	FirstSeq uint64        `json:"first_seq"`
	Evicted  uint64        `json:"evicted,omitempty"`
	Events   []model.Event `json:"events"`
}

// EncodeLog serialises the retained events and sequence state of r
func EncodeLog(r *Ring) (string, error) {
	r.mu.RLock()
	snap := ringSnapshot{
		Capacity: len(r.buf),
		FirstSeq: r.firstSeq,
		Evicted:  r.evicted,
		Events:   r.events(),
	}
	r.mu.RUnlock()

	out, err := sonic.MarshalString(snap)
	if err != nil {
		return "", fmt.Errorf("encode log: %w", err)
	}
	return out, nil
}

// DecodeLog rebuilds a Ring from EncodeLog output. Positions held by columns
// before encoding stay valid against the decoded ring, and the eviction count
// carries over.
func DecodeLog(data string) (*Ring, error) {
	var snap ringSnapshot
	if err := sonic.UnmarshalString(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if snap.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrMalformed, snap.Capacity)
	}
	if snap.FirstSeq == 0 {
		snap.FirstSeq = 1
	}

	r := NewRing(snap.Capacity)
	events := snap.Events
	if len(events) > snap.Capacity {
		// keep the newest events that fit
		drop := len(events) - snap.Capacity
		events = events[drop:]
		snap.FirstSeq += uint64(drop)
		snap.Evicted += uint64(drop)
	}
	r.firstSeq = snap.FirstSeq
	r.evicted = snap.Evicted
	for _, ev := range events {
		r.appendLocked(ev)
	}
	return r, nil
}
