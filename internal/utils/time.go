package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
)

// NormalizeKey returns the YYYY-MM-DD date key of t in t's own location.
// The time is never converted to UTC first, so a late-evening completion
// stays on the local calendar day it happened on.
func NormalizeKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseKey parses a canonical YYYY-MM-DD key as local midnight in loc.
// Non-canonical spellings (e.g. "2024-1-5") are rejected.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(constants.DateFormat, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	if NormalizeKey(t) != key {
		return time.Time{}, fmt.Errorf("invalid date key %q: not in canonical form", key)
	}
	return t, nil
}

// ValidKey reports whether key is a canonical YYYY-MM-DD date key.
func ValidKey(key string) bool {
	_, err := ParseKey(key, time.UTC)
	return err == nil
}

// DaysBetween returns the signed number of calendar-day boundaries crossed
// going from a to b, each evaluated on its own local calendar.
// DST transitions do not affect the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// KeyDaysBetween is DaysBetween for two date keys.
func KeyDaysBetween(a, b string) (int, error) {
	ta, err := ParseKey(a, time.UTC)
	if err != nil {
		return 0, err
	}
	tb, err := ParseKey(b, time.UTC)
	if err != nil {
		return 0, err
	}
	return DaysBetween(ta, tb), nil
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ShiftKey returns the key n calendar days after key (n may be negative).
func ShiftKey(key string, n int) (string, error) {
	t, err := ParseKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return NormalizeKey(t.AddDate(0, 0, n)), nil
}

// GetTodayInTimezone returns today's date key (YYYY-MM-DD) in the specified timezone.
// This ensures that "today" is determined by the user's configured timezone, not the system timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return NormalizeKey(now), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// CombineDateAndTime combines a date key (YYYY-MM-DD) and time string (HH:MM)
// into a single time.Time in the specified timezone.
func CombineDateAndTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	date, err := ParseKey(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}

	timeOfDay, err := ParseTime(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %w", err)
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0,
		loc,
	), nil
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// NextOccurrence returns the first moment at or after now whose wall clock
// in now's location reads timeStr (HH:MM).
func NextOccurrence(now time.Time, timeStr string) (time.Time, error) {
	timeOfDay, err := ParseTime(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %w", err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, now.Location())
	if next.Before(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1,
			timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, now.Location())
	}
	return next, nil
}
