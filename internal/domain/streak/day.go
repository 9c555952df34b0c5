package streak

import (
	"fmt"
	"time"
)

const (
	dayLayout     = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Day is a calendar day with no time zone, counted from 1970-01-01.
// Consecutive calendar days differ by exactly one regardless of DST.
type Day int64

// DayOf returns the calendar day t falls on in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DayIn returns the calendar day t falls on in loc.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return DayOf(t.In(loc))
}

// ParseDay parses a YYYY-MM-DD day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Day) String() string {
	return d.Time().Format(dayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock supplies the caller's notion of today.
type Clock interface {
	Today() Day
}

// LocalClock reads the wall clock in a fixed location.
type LocalClock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewLocalClock returns a clock for loc. A nil loc uses the process local zone.
func NewLocalClock(loc *time.Location) LocalClock {
	if loc == nil {
		loc = time.Local
	}
	return LocalClock{Location: loc, Now: time.Now}
}

func (c LocalClock) Today() Day {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return DayIn(now(), c.Location)
}

// FixedClock always reports the same day.
type FixedClock Day

func (c FixedClock) Today() Day { return Day(c) }
