// Package ingest feeds the shared log from external producers: JSONL files
// followed as they grow, and a PostgreSQL table polled by row id.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// Sink receives each ingested event in source order
type Sink func(ev model.Event)

// Source produces events until its context is cancelled
type Source interface {
	Name() string
	// Run blocks, passing events to sink, until ctx is done or the source
	// fails for good. Cancellation returns nil.
	Run(ctx context.Context, sink Sink) error
}

// Checkpointer is a Source whose progress can be saved and resumed from
type Checkpointer interface {
	Source
	Checkpoint() int64
}

// FromConfig builds the source described by cfg. resumeAfter is a saved
// checkpoint for sources that support one, or NoCheckpoint.
func FromConfig(cfg config.SourceConfig, resumeAfter int64) (Source, error) {
	switch cfg.Type {
	case config.SourceFile:
		return NewFileTail(cfg.Name, util.ExpandPath(cfg.Path), cfg.FromStart, resumeAfter), nil
	case config.SourcePostgres:
		return NewPostgresPoller(PostgresOptions{
			Name:      cfg.Name,
			DSN:       cfg.DSN,
			Table:     cfg.Table,
			Interval:  cfg.Interval.Duration,
			BatchSize: cfg.BatchSize,
			AfterID:   max(resumeAfter, 0),
		})
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// RunAll runs every source concurrently and waits for all of them. A failing
// source is logged and does not stop the others.
func RunAll(ctx context.Context, sources []Source, sink Sink) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	serialised := func(ev model.Event) {
		mu.Lock()
		defer mu.Unlock()
		sink(ev)
	}

	for _, src := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			util.LogInfof("ingest: starting source %s", s.Name())
			if err := s.Run(ctx, serialised); err != nil {
				util.LogErrorf("ingest: source %s stopped: %v", s.Name(), err)
				return
			}
			util.LogDebugf("ingest: source %s stopped", s.Name())
		}(src)
	}
	wg.Wait()
}
