package constants

import "time"

const (
	// DateFormat is the canonical date key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Day is the reference interval for consistency scoring.
	Day = 24 * time.Hour

	// BackfillHour is the local hour assigned to entries recorded for a past day.
	BackfillHour = 12
)
