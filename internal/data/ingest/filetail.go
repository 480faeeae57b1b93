package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-feed-deck/internal/util"
)

const defaultTailPoll = 2 * time.Second

// NoCheckpoint tells NewFileTail there is no saved offset to resume from
const NoCheckpoint int64 = -1

// FileTail follows a JSONL file the way tail -F does: it reads what is
// already there (or starts at the end), then picks up appended lines,
// truncation and replacement of the file.
type FileTail struct {
	name      string
	path      string
	fromStart bool
	resumeAt  int64
	// pollInterval re-stats the file in case a notification was missed
	pollInterval time.Duration

	file     *os.File
	identity util.FileIdentity
	offset   int64
	partial  []byte
	lineNo   int

	// checkpoint is the offset just past the last complete line delivered
	checkpoint atomic.Int64
}

var _ Checkpointer = (*FileTail)(nil)

// NewFileTail creates a tail of path. With fromStart false only lines
// appended after Run starts are delivered. A resumeAt offset saved from
// Checkpoint takes precedence over fromStart; it is ignored when the file is
// now shorter than the offset. Pass NoCheckpoint when there is none.
func NewFileTail(name, path string, fromStart bool, resumeAt int64) *FileTail {
	if name == "" {
		name = filepath.Base(path)
	}
	t := &FileTail{
		name:         name,
		path:         path,
		fromStart:    fromStart,
		resumeAt:     resumeAt,
		pollInterval: defaultTailPoll,
	}
	if resumeAt > 0 {
		t.checkpoint.Store(resumeAt)
	}
	return t
}

func (t *FileTail) Name() string { return t.name }

// Checkpoint is the byte offset after the last complete line handed to the
// sink. A held partial line is not counted. Safe to call while Run is active.
func (t *FileTail) Checkpoint() int64 { return t.checkpoint.Load() }

func (t *FileTail) Run(ctx context.Context, sink Sink) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(t.path), err)
	}
	defer t.closeFile()

	if err := t.openResumed(); err != nil {
		return err
	}
	t.drain(sink)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	base := filepath.Base(t.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			switch {
			case event.Op&fsnotify.Write != 0:
				t.drain(sink)
			case event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0:
				t.check(sink)
			}

		case <-ticker.C:
			t.check(sink)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.LogError("ingest: file monitoring error: " + err.Error())
		}
	}
}

// openResumed opens the file at the saved offset if there is one that still
// fits the file, otherwise where fromStart says
func (t *FileTail) openResumed() error {
	if t.resumeAt < 0 {
		return t.open(t.fromStart)
	}
	if err := t.open(true); err != nil || t.file == nil {
		return err
	}
	if t.identity.Size < t.resumeAt {
		util.LogInfof("ingest: %s is shorter than checkpoint %d, reading from the start", t.path, t.resumeAt)
		return nil
	}
	if _, err := t.file.Seek(t.resumeAt, io.SeekStart); err != nil {
		t.closeFile()
		return fmt.Errorf("seek %s: %w", t.path, err)
	}
	t.offset = t.resumeAt
	t.checkpoint.Store(t.resumeAt)
	util.LogDebugf("ingest: %s resumed at offset %d", t.path, t.resumeAt)
	return nil
}

// open opens the tailed file, at its start or its end. A missing file is
// not an error; it is picked up once created.
func (t *FileTail) open(fromStart bool) error {
	t.closeFile()
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			util.LogDebugf("ingest: %s does not exist yet", t.path)
			return nil
		}
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	id, err := util.StatIdentity(t.path)
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", t.path, err)
	}

	t.file = f
	t.identity = id
	t.offset = 0
	t.partial = nil
	t.lineNo = 0
	if !fromStart {
		off, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			t.closeFile()
			return fmt.Errorf("seek %s: %w", t.path, err)
		}
		t.offset = off
	}
	t.checkpoint.Store(t.offset)
	return nil
}

func (t *FileTail) closeFile() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

// check notices creation, replacement and truncation of the file
func (t *FileTail) check(sink Sink) {
	id, err := util.StatIdentity(t.path)
	if err != nil {
		// gone for now; keep whatever is open until a new file appears
		return
	}
	switch {
	case t.file == nil:
		util.LogDebugf("ingest: %s appeared", t.path)
		if err := t.open(true); err != nil {
			util.LogWarnf("ingest: %v", err)
			return
		}
	case !id.SameFile(t.identity):
		util.LogInfof("ingest: %s was replaced, reopening", t.path)
		t.drain(sink)
		if err := t.open(true); err != nil {
			util.LogWarnf("ingest: %v", err)
			return
		}
	case id.Size < t.offset:
		util.LogInfof("ingest: %s was truncated, rereading", t.path)
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			util.LogWarnf("ingest: rewind %s: %v", t.path, err)
			return
		}
		t.offset = 0
		t.partial = nil
		t.lineNo = 0
		t.checkpoint.Store(0)
	}
	t.drain(sink)
}

// drain reads everything currently available and emits complete lines. A
// trailing line without its newline is held until the rest arrives.
func (t *FileTail) drain(sink Sink) {
	if t.file == nil {
		return
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			t.partial = append(t.partial, buf[:n]...)
			t.emitLines(sink)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				util.LogWarnf("ingest: read %s: %v", t.path, err)
			}
			return
		}
	}
}

// emitLines delivers complete lines from partial. The checkpoint advances
// after each line, once the sink has taken it.
func (t *FileTail) emitLines(sink Sink) {
	rest := t.partial
	lineEnd := t.offset - int64(len(rest))
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		line := rest[:i]
		rest = rest[i+1:]
		lineEnd += int64(i + 1)
		t.lineNo++
		if len(bytes.TrimSpace(line)) > 0 {
			if ev, err := DecodeLine(line); err != nil {
				util.LogDebugf("ingest: skip invalid line %s:%d - %v", t.path, t.lineNo, err)
			} else {
				sink(ev)
			}
		}
		t.checkpoint.Store(lineEnd)
	}
	if len(rest) > maxLineSize {
		util.LogWarnf("ingest: dropping %d bytes of an oversized line in %s", len(rest), t.path)
		rest = nil
	}
	t.partial = append([]byte(nil), rest...)
}
