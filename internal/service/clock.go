package service

import (
	"time"

	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// Clock supplies the current instant to date-dependent operations.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the school's timezone.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// NewSystemClock resolves the named timezone, falling back to UTC.
func NewSystemClock(timezone string) SystemClock {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.At
}

func today(clock Clock) time.Time {
	return fiscal.Day(clock.Now())
}
