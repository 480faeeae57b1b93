package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

const maxLineSize = 10 * 1024 * 1024

// wireEvent is one JSONL line. Media is free text, normalised on decode.
type wireEvent struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Channel   string    `json:"channel"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Media     string    `json:"media"`
	Timestamp time.Time `json:"timestamp"`
}

// DecodeLine parses one JSONL line. Lines without an id get a random one;
// lines without a source are rejected.
func DecodeLine(line []byte) (model.Event, error) {
	var w wireEvent
	if err := sonic.Unmarshal(line, &w); err != nil {
		return model.Event{}, err
	}
	if strings.TrimSpace(w.Source) == "" {
		return model.Event{}, fmt.Errorf("event has no source")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return model.Event{
		ID:        w.ID,
		Source:    w.Source,
		Channel:   w.Channel,
		Author:    w.Author,
		Body:      w.Body,
		Media:     model.ParseMediaKind(w.Media),
		Timestamp: w.Timestamp,
	}, nil
}

// EncodeLine renders ev as one JSONL line without the trailing newline
func EncodeLine(ev model.Event) ([]byte, error) {
	return sonic.Marshal(wireEvent{
		ID:        ev.ID,
		Source:    ev.Source,
		Channel:   ev.Channel,
		Author:    ev.Author,
		Body:      ev.Body,
		Media:     string(ev.AttachedMedia()),
		Timestamp: ev.Timestamp,
	})
}

// ReadJSONL decodes r line by line, calling sink for every valid event.
// Invalid lines are logged and skipped. It returns the number of events read.
func ReadJSONL(r io.Reader, name string, sink Sink) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo, count := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		ev, err := DecodeLine(line)
		if err != nil {
			util.LogDebugf("ingest: skip invalid line %s:%d - %v", name, lineNo, err)
			continue
		}
		sink(ev)
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan %s: %w", name, err)
	}
	return count, nil
}

// LoadFile reads a whole JSONL file
func LoadFile(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []model.Event
	if _, err := ReadJSONL(f, path, func(ev model.Event) { events = append(events, ev) }); err != nil {
		return events, err
	}
	return events, nil
}

// LoadResult is the outcome of loading one file
type LoadResult struct {
	File   string
	Events []model.Event
	Err    error
}

// LoadFiles reads several files with bounded concurrency. Results come back
// in the order of files, so callers can append them deterministically.
func LoadFiles(files []string, concurrency int) []LoadResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	start := time.Now()
	results := make([]LoadResult, len(files))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			events, err := LoadFile(f)
			if err != nil {
				util.LogDebugf("ingest: loading %s failed - %v", f, err)
			}
			results[i] = LoadResult{File: f, Events: events, Err: err}
		}(i, file)
	}
	wg.Wait()

	util.LogDebugf("ingest: loaded %d files in %v", len(files), time.Since(start))
	return results
}
