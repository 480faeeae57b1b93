// Package fixtures generates feed events and JSONL files for tests
package fixtures

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// Line is one event in the JSONL ingest format
type Line struct {
	ID        string `json:"id,omitempty"`
	Source    string `json:"source"`
	Channel   string `json:"channel,omitempty"`
	Author    string `json:"author,omitempty"`
	Body      string `json:"body"`
	Media     string `json:"media,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// EventGenerator produces deterministic events cycling through a fixed set
// of channels, authors and media kinds
type EventGenerator struct {
	Start    time.Time
	Step     time.Duration
	Channels []model.ChannelKey
	Authors  []string
	Bodies   []string
	Media    []model.MediaKind
	next     int
}

// NewEventGenerator creates a generator starting at start, one event per step
func NewEventGenerator(start time.Time, step time.Duration) *EventGenerator {
	return &EventGenerator{
		Start: start,
		Step:  step,
		Channels: []model.ChannelKey{
			{Source: "irc", Channel: "#go"},
			{Source: "rss", Channel: "blog"},
			{Source: "irc", Channel: "#pics"},
		},
		Authors: []string{"rob", "ann", ""},
		Bodies:  []string{"golang release notes", "weekly digest", "look at this"},
		Media:   []model.MediaKind{model.MediaNone, model.MediaLink, model.MediaImage},
	}
}

// Next returns the next event. Ids are "ev-1", "ev-2", ...
func (g *EventGenerator) Next() model.Event {
	i := g.next
	g.next++
	key := g.Channels[i%len(g.Channels)]
	return model.Event{
		ID:        fmt.Sprintf("ev-%d", i+1),
		Source:    key.Source,
		Channel:   key.Channel,
		Author:    g.Authors[i%len(g.Authors)],
		Body:      g.Bodies[i%len(g.Bodies)],
		Media:     g.Media[i%len(g.Media)],
		Timestamp: g.Start.Add(time.Duration(i) * g.Step),
	}
}

// Events returns the next n events
func (g *EventGenerator) Events(n int) []model.Event {
	out := make([]model.Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Next())
	}
	return out
}

// LineOf converts ev to its JSONL form
func LineOf(ev model.Event) Line {
	l := Line{
		ID:      ev.ID,
		Source:  ev.Source,
		Channel: ev.Channel,
		Author:  ev.Author,
		Body:    ev.Body,
	}
	if ev.Media != "" && ev.Media != model.MediaNone {
		l.Media = string(ev.Media)
	}
	if !ev.Timestamp.IsZero() {
		l.Timestamp = ev.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return l
}

// WriteJSONL writes events to path, one per line, followed by any raw extra
// lines (useful for malformed input)
func WriteJSONL(path string, events []model.Event, extra ...string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, ev := range events {
		data, err := sonic.Marshal(LineOf(ev))
		if err != nil {
			return fmt.Errorf("encode %s: %w", ev.ID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	for _, line := range extra {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// AppendJSONL appends events to an existing file, creating it if needed
func AppendJSONL(path string, events []model.Event) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, ev := range events {
		data, err := sonic.Marshal(LineOf(ev))
		if err != nil {
			return fmt.Errorf("encode %s: %w", ev.ID, err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}
