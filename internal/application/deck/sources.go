package deck

import (
	"fmt"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/data/ingest"
)

// BuildSources creates the configured ingestion sources. Saved checkpoints
// are only resumed from when resume is set, since a checkpoint is only
// meaningful alongside the saved log that holds the events before it.
func BuildSources(cfgs []config.SourceConfig, store StateStore, resume bool) ([]ingest.Source, error) {
	sources := make([]ingest.Source, 0, len(cfgs))
	for _, sc := range cfgs {
		after := ingest.NoCheckpoint
		if resume && store != nil {
			offset, ok, err := store.LoadOffset(sc.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to load checkpoint of %s: %w", sc.Name, err)
			}
			if ok {
				after = offset
			}
		}
		src, err := ingest.FromConfig(sc, after)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
