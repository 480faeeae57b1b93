package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/core/model"
)

// Validate fills zero values with defaults and rejects settings that cannot
// work. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	d := &c.Deck
	if d.TickInterval.Duration <= 0 {
		d.TickInterval.Duration = DefaultTickInterval
	}
	if d.PersistInterval.Duration <= 0 {
		d.PersistInterval.Duration = DefaultPersistInterval
	}
	if d.CycleBudget <= 0 {
		d.CycleBudget = DefaultCycleBudget
	}
	if d.CatchUpBudget <= 0 {
		d.CatchUpBudget = DefaultCatchUpBudget
	}
	if d.LogCapacity <= 0 {
		d.LogCapacity = DefaultLogCapacity
	}
	if d.BufferCapacity <= 0 {
		d.BufferCapacity = DefaultBufferCapacity
	}
	if d.Timezone == "" {
		d.Timezone = "Local"
	}

	switch strings.ToLower(c.Logging.Format) {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStatePath
	}

	names := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			src.Name = fmt.Sprintf("%s-%d", src.Type, i)
		}
		if names[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
		}
		names[src.Name] = true

		switch src.Type {
		case SourceFile:
			if src.Path == "" {
				errs = append(errs, fmt.Errorf("sources[%d] %s: file source needs a path", i, src.Name))
			}
		case SourcePostgres:
			if src.DSN == "" {
				errs = append(errs, fmt.Errorf("sources[%d] %s: postgres source needs a dsn", i, src.Name))
			}
			if src.Table == "" {
				src.Table = "feed_events"
			}
			if src.Interval.Duration <= 0 {
				src.Interval.Duration = DefaultPollInterval
			}
			if src.BatchSize <= 0 {
				src.BatchSize = DefaultPollBatch
			}
		default:
			errs = append(errs, fmt.Errorf("sources[%d] %s: unknown type %q", i, src.Name, src.Type))
		}
	}

	ids := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		if strings.TrimSpace(col.Title) == "" {
			errs = append(errs, fmt.Errorf("columns[%d]: title is required", i))
			continue
		}
		id := col.StableID()
		if ids[id] {
			errs = append(errs, fmt.Errorf("columns[%d] %q: duplicate column id %s", i, col.Title, id))
		}
		ids[id] = true
		if _, err := col.FilterSet(); err != nil {
			errs = append(errs, fmt.Errorf("columns[%d] %q: %w", i, col.Title, err))
		}
	}

	return errors.Join(errs...)
}

// ApplyEnvOverrides applies FEEDDECK_* environment variables
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FEEDDECK_STATE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FEEDDECK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FEEDDECK_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("FEEDDECK_TIMEZONE"); v != "" {
		c.Deck.Timezone = v
	}
}

// FilterSet converts the configured OR-groups into a filter set. A column
// with no groups gets the empty set, which matches nothing.
func (c ColumnConfig) FilterSet() (filter.Set, error) {
	exprs := make([]filter.Expr, 0, len(c.Filters))
	for g, group := range c.Filters {
		if len(group) == 0 {
			return filter.Set{}, fmt.Errorf("filter group %d is empty", g)
		}
		preds := make([]filter.Predicate, 0, len(group))
		for p, pc := range group {
			pred, err := pc.Predicate()
			if err != nil {
				return filter.Set{}, fmt.Errorf("filter group %d predicate %d: %w", g, p, err)
			}
			preds = append(preds, pred)
		}
		exprs = append(exprs, filter.NewExpr(preds[0], preds[1:]...))
	}
	return filter.NewSet(exprs...), nil
}

// Predicate converts the entry into a filter predicate
func (p PredicateConfig) Predicate() (filter.Predicate, error) {
	set := 0
	var out filter.Predicate
	if p.Text != nil {
		set++
		out = filter.TextContains(*p.Text)
	}
	if p.Media != "" {
		set++
		kind := model.ParseMediaKind(p.Media)
		if kind == model.MediaNone && !strings.EqualFold(strings.TrimSpace(p.Media), string(model.MediaNone)) {
			return filter.Predicate{}, fmt.Errorf("unknown media kind %q", p.Media)
		}
		out = filter.MediaIs(kind)
	}
	if p.Channel != "" {
		set++
		key, ok := model.ParseChannelKey(p.Channel)
		if !ok {
			return filter.Predicate{}, fmt.Errorf("channel %q must look like source/channel", p.Channel)
		}
		out = filter.SourceEquals(key)
	}
	if p.SourceType != "" {
		set++
		out = filter.SourceTypeIs(p.SourceType)
	}
	if set != 1 {
		return filter.Predicate{}, fmt.Errorf("exactly one of text, media, channel, source_type must be set, got %d", set)
	}
	return out, nil
}

// ColumnFromSet is the inverse of FilterSet, used when exporting the live
// deck back to a config file
func ColumnFromSet(id, title string, pinned bool, set filter.Set) ColumnConfig {
	col := ColumnConfig{ID: id, Title: title, Pinned: pinned}
	for _, e := range set.Exprs() {
		group := make([]PredicateConfig, 0, e.Len())
		for _, p := range e.Predicates() {
			switch p.Kind {
			case filter.KindTextContains:
				q := p.Query
				group = append(group, PredicateConfig{Text: &q})
			case filter.KindMediaIs:
				group = append(group, PredicateConfig{Media: string(p.Media)})
			case filter.KindSourceEquals:
				group = append(group, PredicateConfig{Channel: p.Channel.String()})
			case filter.KindSourceType:
				group = append(group, PredicateConfig{SourceType: p.Source})
			}
		}
		if len(group) > 0 {
			col.Filters = append(col.Filters, group)
		}
	}
	return col
}
