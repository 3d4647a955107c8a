package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Slot is a fixed time-of-day range drawn from the per-day catalog, "HH:MM" in UTC.
type Slot struct {
	Start string `json:"slotStart"`
	End   string `json:"slotEnd"`
}

// ParseClock converts "HH:MM" into hours and minutes.
func ParseClock(hhmm string) (int, int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", hhmm)
	}
	return t.Hour(), t.Minute(), nil
}

// Validate checks both bounds parse and start precedes end.
func (s Slot) Validate() error {
	sh, sm, err := ParseClock(s.Start)
	if err != nil {
		return err
	}
	eh, em, err := ParseClock(s.End)
	if err != nil {
		return err
	}
	if sh*60+sm >= eh*60+em {
		return fmt.Errorf("slot start %s must be before end %s", s.Start, s.End)
	}
	return nil
}

// On anchors the slot to a calendar day in UTC.
func (s Slot) On(day time.Time) (time.Time, time.Time, error) {
	sh, sm, err := ParseClock(s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := ParseClock(s.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d := DateOnly(day)
	return d.Add(time.Duration(sh)*time.Hour + time.Duration(sm)*time.Minute),
		d.Add(time.Duration(eh)*time.Hour + time.Duration(em)*time.Minute), nil
}

// DateOnly truncates to midnight UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD day in UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

// ISOWeekday maps Monday=1 .. Sunday=7.
func ISOWeekday(t time.Time) int {
	wd := int(t.UTC().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MondayOf returns the Monday 00:00 UTC of the week containing t.
func MondayOf(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, 1-ISOWeekday(d))
}
