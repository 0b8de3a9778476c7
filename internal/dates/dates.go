// Package dates provides calendar-day normalization for streak accounting.
//
// All dates are exchanged as "YYYY-MM-DD" strings. Day arithmetic goes through
// midnight-UTC instants so that daylight-saving transitions in the display
// timezone can never produce a gap of 0 or 2 days for adjacent calendar days.
package dates

import (
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Clock supplies the current instant. Injectable so tests can pin time.
type Clock func() time.Time

// EffectiveDay projects an instant into the named IANA timezone and returns
// the calendar date there. An empty or invalid timezone falls back to UTC
// rather than failing the request.
func EffectiveDay(now time.Time, timezone string) string {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return now.In(loc).Format(Layout)
}

// Valid reports whether s is a well-formed calendar date: exactly the 4-2-2
// digit shape and an existing date (rejects "2024-02-30").
func Valid(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return false
	}
	// time.Parse normalizes out-of-range components; round-trip to catch them.
	return t.Format(Layout) == s
}

// MidnightUTC converts a validated date string to its midnight-UTC instant.
func MidnightUTC(day string) (time.Time, error) {
	if !Valid(day) {
		return time.Time{}, fmt.Errorf("malformed date %q", day)
	}
	return time.Parse(Layout, day)
}

// DaysBetween returns the whole-day difference b - a. Positive when b is
// later than a.
func DaysBetween(a, b string) (int, error) {
	ta, err := MidnightUTC(a)
	if err != nil {
		return 0, err
	}
	tb, err := MidnightUTC(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
