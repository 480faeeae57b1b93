package deck

import (
	"fmt"
	"time"

	"github.com/penwyp/go-feed-deck/internal/config"
)

// DeckConfig contains the runtime settings of the live deck
type DeckConfig struct {
	// Dispatch settings
	TickInterval  time.Duration
	CycleBudget   int
	CatchUpBudget int

	// Capacity settings
	LogCapacity    int
	BufferCapacity int

	// Persistence settings
	PersistInterval time.Duration
	PersistLog      bool

	// Display settings
	Timezone string

	Columns []config.ColumnConfig
}

// NewDeckConfig extracts the deck settings from a loaded configuration
func NewDeckConfig(cfg *config.Config) *DeckConfig {
	return &DeckConfig{
		TickInterval:    cfg.Deck.TickInterval.Duration,
		CycleBudget:     cfg.Deck.CycleBudget,
		CatchUpBudget:   cfg.Deck.CatchUpBudget,
		LogCapacity:     cfg.Deck.LogCapacity,
		BufferCapacity:  cfg.Deck.BufferCapacity,
		PersistInterval: cfg.Deck.PersistInterval.Duration,
		PersistLog:      cfg.Storage.PersistLog,
		Timezone:        cfg.Deck.Timezone,
		Columns:         cfg.Columns,
	}
}

// Validate fills unset values with defaults
func (c *DeckConfig) Validate() error {
	if c.TickInterval == 0 {
		c.TickInterval = config.DefaultTickInterval
	}
	if c.CycleBudget == 0 {
		c.CycleBudget = config.DefaultCycleBudget
	}
	if c.CatchUpBudget == 0 {
		c.CatchUpBudget = config.DefaultCatchUpBudget
	}
	if c.LogCapacity == 0 {
		c.LogCapacity = config.DefaultLogCapacity
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = config.DefaultBufferCapacity
	}
	if c.PersistInterval == 0 {
		c.PersistInterval = config.DefaultPersistInterval
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}

	if c.TickInterval < 0 || c.PersistInterval < 0 {
		return fmt.Errorf("intervals must be positive")
	}
	if c.CycleBudget < 0 || c.CatchUpBudget < 0 {
		return fmt.Errorf("budgets must not be negative")
	}
	if c.LogCapacity < 0 || c.BufferCapacity < 0 {
		return fmt.Errorf("capacities must not be negative")
	}
	return nil
}
