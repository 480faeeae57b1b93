package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	ev, err := DecodeLine([]byte(`{"id":"1","source":"rss","channel":"hn","author":"pg","body":"Go 1.24","media":"IMAGE","timestamp":"2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", ev.ID)
	assert.Equal(t, model.ChannelKey{Source: "rss", Channel: "hn"}, ev.Key())
	assert.Equal(t, model.MediaImage, ev.Media)
	assert.True(t, ev.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	ev, err = DecodeLine([]byte(`{"source":"irc","body":"hi"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID, "missing id gets generated")
	assert.Equal(t, model.MediaNone, ev.Media)

	_, err = DecodeLine([]byte(`{"body":"orphan"}`))
	assert.Error(t, err)
	_, err = DecodeLine([]byte(`not json`))
	assert.Error(t, err)
}

func TestEncodeLineRoundTrip(t *testing.T) {
	in := model.Event{ID: "x", Source: "mastodon", Channel: "home", Body: "toot", Media: model.MediaLink,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	line, err := EncodeLine(in)
	require.NoError(t, err)
	out, err := DecodeLine(line)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Media, out.Media)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
}

func TestReadJSONLSkipsInvalidLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"1","source":"rss","body":"a"}`,
		``,
		`{broken`,
		`{"id":"2","source":"rss","body":"b"}`,
		`{"id":"3","body":"no source"}`,
	}, "\n")

	var ids []string
	n, err := ReadJSONL(strings.NewReader(input), "inline", func(ev model.Event) { ids = append(ids, ev.ID) })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestLoadFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, body := range []string{"first", "second", "third"} {
		path := filepath.Join(dir, body+".jsonl")
		line := `{"id":"` + body + `","source":"rss"}` + "\n"
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(line, i+1)), 0644))
		files = append(files, path)
	}
	files = append(files, filepath.Join(dir, "missing.jsonl"))

	results := LoadFiles(files, 2)
	require.Len(t, results, 4)
	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, results[i].Err)
		assert.Len(t, results[i].Events, i+1)
		assert.Equal(t, name, results[i].Events[0].ID)
	}
	assert.True(t, errors.Is(results[3].Err, os.ErrNotExist))
}

func TestLoadGeneratedFile(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	events := fixtures.NewEventGenerator(start, time.Minute).Events(9)
	path := filepath.Join(t.TempDir(), "feed", "events.jsonl")
	require.NoError(t, fixtures.WriteJSONL(path, events, "{broken", `{"id":"nosource"}`))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(events))
	for i, want := range events {
		got := loaded[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Key(), got.Key())
		assert.Equal(t, want.Author, got.Author)
		assert.Equal(t, want.Body, got.Body)
		assert.Equal(t, want.Media, got.Media)
		assert.True(t, want.Timestamp.Equal(got.Timestamp), want.ID)
	}
}

// collector gathers event ids delivered by a running source
type collector struct {
	ch chan string
}

func newCollector() *collector { return &collector{ch: make(chan string, 100)} }

func (c *collector) sink(ev model.Event) { c.ch <- ev.ID }

func (c *collector) take(t *testing.T, n int) []string {
	t.Helper()
	var got []string
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case id := <-c.ch:
			got = append(got, id)
		case <-deadline:
			t.Fatalf("timed out after %v", got)
		}
	}
	return got
}

func (c *collector) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case id := <-c.ch:
		t.Fatalf("unexpected event %s", id)
	case <-time.After(d):
	}
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func line(id string) string {
	return `{"id":"` + id + `","source":"rss","channel":"feed"}` + "\n"
}

func startTail(t *testing.T, tail *FileTail, c *collector) {
	t.Helper()
	tail.pollInterval = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tail.Run(ctx, c.sink) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestFileTailFollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(line("a")+"garbage\n"+line("b")), 0644))

	c := newCollector()
	startTail(t, NewFileTail("test", path, true, NoCheckpoint), c)
	assert.Equal(t, []string{"a", "b"}, c.take(t, 2))

	appendTo(t, path, line("c"))
	assert.Equal(t, []string{"c"}, c.take(t, 1))

	// a partial line waits for its newline
	appendTo(t, path, `{"id":"d","source":"rss"`)
	c.quiet(t, 100*time.Millisecond)
	appendTo(t, path, "}\n")
	assert.Equal(t, []string{"d"}, c.take(t, 1))

	// truncation rereads from the start
	require.NoError(t, os.WriteFile(path, []byte(line("e")), 0644))
	assert.Equal(t, []string{"e"}, c.take(t, 1))
}

func TestFileTailFromEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(line("old")), 0644))

	c := newCollector()
	startTail(t, NewFileTail("", path, false, NoCheckpoint), c)
	c.quiet(t, 100*time.Millisecond)

	appendTo(t, path, line("new"))
	assert.Equal(t, []string{"new"}, c.take(t, 1))
}

// runTail runs tail until the returned stop func is called
func runTail(t *testing.T, tail *FileTail, c *collector) (stop func()) {
	t.Helper()
	tail.pollInterval = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tail.Run(ctx, c.sink) }()
	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestFileTailCheckpointResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	complete := line("a") + line("b")
	require.NoError(t, os.WriteFile(path, []byte(complete+`{"id":"c","source":"rss"`), 0644))

	first := NewFileTail("cp", path, true, NoCheckpoint)
	c := newCollector()
	stop := runTail(t, first, c)
	assert.Equal(t, []string{"a", "b"}, c.take(t, 2))
	require.Eventually(t, func() bool { return first.Checkpoint() == int64(len(complete)) },
		time.Second, 10*time.Millisecond, "the held partial line is not checkpointed")
	stop()

	// written while nothing was tailing
	appendTo(t, path, "}\n"+line("d"))

	second := NewFileTail("cp", path, true, first.Checkpoint())
	assert.Equal(t, int64(len(complete)), second.Checkpoint())
	c = newCollector()
	stop = runTail(t, second, c)
	assert.Equal(t, []string{"c", "d"}, c.take(t, 2))
	c.quiet(t, 60*time.Millisecond)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return second.Checkpoint() == info.Size() },
		time.Second, 10*time.Millisecond)
	stop()
}

func TestFileTailCheckpointBeyondFileRereads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(line("fresh")), 0644))

	tail := NewFileTail("cp", path, false, 10_000)
	c := newCollector()
	stop := runTail(t, tail, c)
	defer stop()
	assert.Equal(t, []string{"fresh"}, c.take(t, 1), "a shorter file is read from the start")
}

func TestFileTailWaitsForFileAndRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")

	c := newCollector()
	startTail(t, NewFileTail("late", path, false, NoCheckpoint), c)
	c.quiet(t, 60*time.Millisecond)

	appendTo(t, path, line("first"))
	assert.Equal(t, []string{"first"}, c.take(t, 1))

	require.NoError(t, os.Rename(path, filepath.Join(dir, "events.jsonl.1")))
	require.NoError(t, os.WriteFile(path, []byte(line("rotated")), 0644))
	assert.Equal(t, []string{"rotated"}, c.take(t, 1))
}

func TestPollerDrainsInBatches(t *testing.T) {
	table := make([]Row, 0, 7)
	for i := 1; i <= 7; i++ {
		table = append(table, Row{ID: int64(i * 10), Event: model.Event{ID: string(rune('a' + i - 1)), Source: "pg"}})
	}
	var calls []int64
	fetch := func(ctx context.Context, afterID int64, limit int) ([]Row, error) {
		calls = append(calls, afterID)
		var out []Row
		for _, r := range table {
			if r.ID > afterID && len(out) < limit {
				out = append(out, r)
			}
		}
		return out, nil
	}

	p := newPoller(PostgresOptions{Name: "pg", BatchSize: 3, AfterID: 10}, fetch)
	var ids []string
	p.poll(context.Background(), func(ev model.Event) { ids = append(ids, ev.ID) })

	assert.Equal(t, []string{"b", "c", "d", "e", "f", "g"}, ids)
	assert.Equal(t, []int64{10, 40, 70}, calls)
	assert.Equal(t, int64(70), p.Checkpoint())
}

func TestPollerRetriesAfterError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	fetch := func(ctx context.Context, afterID int64, limit int) ([]Row, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		if afterID == 0 {
			return []Row{{ID: 1, Event: model.Event{ID: "ok", Source: "pg"}}}, nil
		}
		return nil, nil
	}

	p := newPoller(PostgresOptions{Interval: 10 * time.Millisecond}, fetch)
	c := newCollector()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, c.sink) }()

	assert.Equal(t, []string{"ok"}, c.take(t, 1))
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, "postgres", p.Name())
}

func TestFetchQueryQuotesTable(t *testing.T) {
	q := fetchQuery(`feed"events`)
	assert.Contains(t, q, `FROM "feed""events"`)
	assert.Contains(t, q, "WHERE id > $1")
	assert.Contains(t, q, "ORDER BY id ASC")
	assert.Contains(t, q, "LIMIT $2")
}

func TestRowEvent(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ev := rowEvent(42, "", "irc", "#go", "rob", "hello", "video", ts)
	assert.Equal(t, "pg-42", ev.ID)
	assert.Equal(t, model.MediaVideo, ev.Media)
	assert.Equal(t, ts, ev.Timestamp)
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.SourceConfig{Name: "f", Type: config.SourceFile, Path: "/tmp/x.jsonl"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "f", src.Name())
	tail, ok := src.(*FileTail)
	require.True(t, ok)
	assert.Equal(t, int64(0), tail.Checkpoint())

	src, err = FromConfig(config.SourceConfig{Name: "f", Type: config.SourceFile, Path: "/tmp/x.jsonl"}, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(120), src.(Checkpointer).Checkpoint())

	src, err = FromConfig(config.SourceConfig{Name: "db", Type: config.SourcePostgres, DSN: "postgres://localhost/x?sslmode=disable"}, 99)
	require.NoError(t, err)
	assert.Equal(t, "db", src.Name())
	cp, ok := src.(Checkpointer)
	require.True(t, ok)
	assert.Equal(t, int64(99), cp.Checkpoint())

	src, err = FromConfig(config.SourceConfig{Name: "db", Type: config.SourcePostgres, DSN: "postgres://localhost/x?sslmode=disable"}, NoCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, int64(0), src.(Checkpointer).Checkpoint())

	_, err = FromConfig(config.SourceConfig{Type: "smoke-signal"}, 0)
	assert.Error(t, err)
}

type staticSource struct {
	name   string
	events []model.Event
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Run(ctx context.Context, sink Sink) error {
	for _, ev := range s.events {
		sink(ev)
	}
	if s.name == "broken" {
		return errors.New("boom")
	}
	return nil
}

func TestRunAllFansIn(t *testing.T) {
	sources := []Source{
		staticSource{name: "a", events: []model.Event{{ID: "a1"}, {ID: "a2"}}},
		staticSource{name: "broken", events: []model.Event{{ID: "b1"}}},
	}
	var got []string
	RunAll(context.Background(), sources, func(ev model.Event) { got = append(got, ev.ID) })
	assert.ElementsMatch(t, []string{"a1", "a2", "b1"}, got)
}
