// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used to
// decide date boundaries, which is what the reconciliation jobs scan by.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "UTC"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, initializing with the
// default when Init was never called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today returns the start of the current business day, expressed in UTC.
func Today() time.Time {
	now := time.Now().In(Location())
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location())
	return day.UTC()
}

// StartOfDay returns the start of the business day containing t, in UTC.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
	return day.UTC()
}
