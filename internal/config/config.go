// Package config loads the deck configuration: dispatch tuning, storage
// location, ingestion sources and the configured columns with their filters.
//
// Files are decoded by extension (.toml, .yaml/.yml, .json). Missing fields
// keep the values from DefaultConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTickInterval    = 3 * time.Second
	DefaultPersistInterval = 30 * time.Second
	DefaultCycleBudget     = 300
	DefaultCatchUpBudget   = 5000
	DefaultLogCapacity     = 10000
	DefaultBufferCapacity  = 2000
	DefaultPollInterval    = 5 * time.Second
	DefaultPollBatch       = 500

	DefaultStatePath = "~/.go-feed-deck/state.db"
	DefaultLogFile   = "~/.go-feed-deck/logs/app.log"
)

// columnNamespace seeds deterministic ids for columns configured without one
var columnNamespace = uuid.MustParse("6f1c7f5e-3b8a-4f5c-9a51-2d1f0c8e7a44")

// Config is the whole deck configuration file
type Config struct {
	Deck    DeckSettings   `toml:"deck" yaml:"deck" json:"deck"`
	Logging LogSettings    `toml:"logging" yaml:"logging" json:"logging"`
	Storage StoreSettings  `toml:"storage" yaml:"storage" json:"storage"`
	Sources []SourceConfig `toml:"sources" yaml:"sources" json:"sources"`
	Columns []ColumnConfig `toml:"columns" yaml:"columns" json:"columns"`
}

// DeckSettings tunes the dispatch loop
type DeckSettings struct {
	TickInterval    Duration `toml:"tick_interval" yaml:"tick_interval" json:"tick_interval"`
	PersistInterval Duration `toml:"persist_interval" yaml:"persist_interval" json:"persist_interval"`
	CycleBudget     int      `toml:"cycle_budget" yaml:"cycle_budget" json:"cycle_budget"`
	CatchUpBudget   int      `toml:"catch_up_budget" yaml:"catch_up_budget" json:"catch_up_budget"`
	LogCapacity     int      `toml:"log_capacity" yaml:"log_capacity" json:"log_capacity"`
	BufferCapacity  int      `toml:"buffer_capacity" yaml:"buffer_capacity" json:"buffer_capacity"`
	Timezone        string   `toml:"timezone" yaml:"timezone" json:"timezone"`
}

// LogSettings controls the application log
type LogSettings struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	File   string `toml:"file" yaml:"file" json:"file"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// StoreSettings locates the persisted deck state
type StoreSettings struct {
	Path string `toml:"path" yaml:"path" json:"path"`
	// PersistLog also saves the event log, so columns resume with history
	PersistLog bool `toml:"persist_log" yaml:"persist_log" json:"persist_log"`
}

// Source types
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// SourceConfig describes one ingestion source
type SourceConfig struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	Type string `toml:"type" yaml:"type" json:"type"`

	// file
	Path      string `toml:"path" yaml:"path" json:"path"`
	FromStart bool   `toml:"from_start" yaml:"from_start" json:"from_start"`

	// postgres
	DSN       string   `toml:"dsn" yaml:"dsn" json:"dsn"`
	Table     string   `toml:"table" yaml:"table" json:"table"`
	Interval  Duration `toml:"interval" yaml:"interval" json:"interval"`
	BatchSize int      `toml:"batch_size" yaml:"batch_size" json:"batch_size"`
}

// ColumnConfig is one configured column. Filters is a list of OR-groups
// that are ANDed together.
type ColumnConfig struct {
	ID      string              `toml:"id" yaml:"id" json:"id"`
	Title   string              `toml:"title" yaml:"title" json:"title"`
	Pinned  bool                `toml:"pinned" yaml:"pinned" json:"pinned"`
	Filters [][]PredicateConfig `toml:"filters" yaml:"filters" json:"filters"`
}

// PredicateConfig sets exactly one of its fields
type PredicateConfig struct {
	Text       *string `toml:"text,omitempty" yaml:"text,omitempty" json:"text,omitempty"`
	Media      string  `toml:"media,omitempty" yaml:"media,omitempty" json:"media,omitempty"`
	Channel    string  `toml:"channel,omitempty" yaml:"channel,omitempty" json:"channel,omitempty"`
	SourceType string  `toml:"source_type,omitempty" yaml:"source_type,omitempty" json:"source_type,omitempty"`
}

// StableID returns the configured id, or one derived from the title so that
// a column keeps its saved cursor across restarts
func (c ColumnConfig) StableID() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return uuid.NewSHA1(columnNamespace, []byte(c.Title)).String()
}

// Duration is a time.Duration written as "3s", "1m30s" in config files
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Deck: DeckSettings{
			TickInterval:    Duration{DefaultTickInterval},
			PersistInterval: Duration{DefaultPersistInterval},
			CycleBudget:     DefaultCycleBudget,
			CatchUpBudget:   DefaultCatchUpBudget,
			LogCapacity:     DefaultLogCapacity,
			BufferCapacity:  DefaultBufferCapacity,
			Timezone:        "Local",
		},
		Logging: LogSettings{
			Level:  "info",
			File:   DefaultLogFile,
			Format: "text",
		},
		Storage: StoreSettings{
			Path: DefaultStatePath,
		},
	}
}
