package clock

import (
	"os"
	"time"
)

// DefaultTimezone is the zone every lifecycle timestamp is anchored to.
// Overridable with APP_TIMEZONE for deployments outside India.
const DefaultTimezone = "Asia/Kolkata"

// Clock supplies wall time in the application timezone. Domain code takes a
// Clock instead of calling time.Now so the edit-window deadline is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

func New() Clock {
	name := os.Getenv("APP_TIMEZONE")
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func NewInLocation(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a test clock pinned to a settable instant.
type Fixed struct {
	Current time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t}
}

func (f *Fixed) Now() time.Time {
	return f.Current
}

func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
