package util

import (
	"fmt"
	"sync"
	"time"
)

// Clock renders times in a configured timezone
type Clock struct {
	mu       sync.RWMutex
	location *time.Location
	now      func() time.Time
}

// NewClock creates a clock for timezone. Empty and "Local" mean the local zone.
func NewClock(timezone string) (*Clock, error) {
	c := &Clock{now: time.Now}
	if err := c.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTimezone switches the display zone
func (c *Clock) SetTimezone(timezone string) error {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
		}
		loc = l
	}
	c.mu.Lock()
	c.location = loc
	c.mu.Unlock()
	return nil
}

// Location returns the display zone
func (c *Clock) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

// Now returns the current time in the display zone
func (c *Clock) Now() time.Time {
	return c.now().In(c.Location())
}

// Format renders t in the display zone
func (c *Clock) Format(t time.Time, layout string) string {
	return t.In(c.Location()).Format(layout)
}
