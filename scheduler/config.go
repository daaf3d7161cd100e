// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Config is the schedule the state machine follows.
type Config struct {
	// OpenDays are the weekdays a cycle may open on.
	OpenDays []time.Weekday
	// OpenAt and CloseAt are offsets from local midnight.
	OpenAt  time.Duration
	CloseAt time.Duration
	// Location is the time zone the schedule is read in. Nil means time.Local.
	Location *time.Location
	// NoRepeatDays is how long a winner sits out of selection.
	NoRepeatDays int
	// Interval is the tick period used by Run.
	Interval time.Duration
}

// DefaultConfig opens on Thursdays from 09:30 to 11:00 local time.
func DefaultConfig() Config {
	return Config{
		OpenDays:     []time.Weekday{time.Thursday},
		OpenAt:       9*time.Hour + 30*time.Minute,
		CloseAt:      11 * time.Hour,
		Location:     time.Local,
		NoRepeatDays: 21,
		Interval:     30 * time.Second,
	}
}

func (c Config) Validate() error {
	if len(c.OpenDays) == 0 {
		return errors.New("at least one open day required")
	}
	if c.OpenAt < 0 || c.CloseAt > 24*time.Hour {
		return fmt.Errorf("open window %s-%s outside the day", c.OpenAt, c.CloseAt)
	}
	if c.OpenAt >= c.CloseAt {
		return fmt.Errorf("open time %s must be before close time %s", c.OpenAt, c.CloseAt)
	}
	if c.NoRepeatDays < 0 {
		return errors.New("no-repeat window must not be negative")
	}
	if c.Interval <= 0 {
		return errors.New("tick interval must be positive")
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// openDay reports whether t falls on a configured open day.
func (c Config) openDay(t time.Time) bool {
	return slices.Contains(c.OpenDays, t.Weekday())
}

// inWindow reports whether t is on an open day within [OpenAt, CloseAt).
func (c Config) inWindow(t time.Time) bool {
	tod := sinceMidnight(t)
	return c.openDay(t) && tod >= c.OpenAt && tod < c.CloseAt
}

func (c Config) pastClose(t time.Time) bool {
	return sinceMidnight(t) >= c.CloseAt
}

// closeTime is the close deadline on t's calendar day.
func (c Config) closeTime(t time.Time) time.Time {
	return atOffset(t, c.CloseAt)
}

func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

func atOffset(t time.Time, offset time.Duration) time.Time {
	y, mo, d := t.Date()
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	s := int(offset % time.Minute / time.Second)
	return time.Date(y, mo, d, h, m, s, 0, t.Location())
}
