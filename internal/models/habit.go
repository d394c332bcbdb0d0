package models

import "time"

// Frequency is the advisory cadence a habit is meant to be practiced at.
// It is never enforced by streak or pattern computation.
type Frequency string

const (
	FrequencyDaily          Frequency = "daily"
	FrequencyHourly         Frequency = "hourly"
	FrequencyWeekly         Frequency = "weekly"
	FrequencyEvery15Minutes Frequency = "every-15-minutes"
	FrequencyCustom         Frequency = "custom"
)

// Frequencies lists the supported frequencies in display order.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyHourly,
	FrequencyWeekly,
	FrequencyEvery15Minutes,
	FrequencyCustom,
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// HabitLog maps a date key (YYYY-MM-DD, local calendar day) to a completion flag.
// A missing key means "not completed".
type HabitLog map[string]bool

// Clone returns an independent copy of the log.
func (l HabitLog) Clone() HabitLog {
	out := make(HabitLog, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Habit represents a recurring practice to track
type Habit struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name" validate:"required,notblank,max=120"`
	Category     string       `json:"category"`
	Frequency    Frequency    `json:"frequency" validate:"omitempty,frequency"`
	ReminderTime string       `json:"reminder_time,omitempty" validate:"omitempty,datetime=15:04"`
	Notes        string       `json:"notes,omitempty"`
	Log          HabitLog     `json:"logs"`
	Entries      []HabitEntry `json:"entries,omitempty" validate:"dive"`

	// Derived from Log; recomputed on every change, never patched.
	CurrentStreak int `json:"current_streak" validate:"gte=0"`
	LongestStreak int `json:"longest_streak" validate:"gte=0,gtefield=CurrentStreak"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitEntry is a single timestamped completion event for a habit.
// Several entries may share a calendar day; the last one written wins
// when the entries are projected onto a HabitLog.
type HabitEntry struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id" validate:"required"`

	// Timestamp is in unix milliseconds.
	Timestamp int64 `json:"timestamp" validate:"gt=0"`
	Completed bool  `json:"completed"`

	// Optional ratings; zero means unrated. Mood 1 is worst, difficulty 1 is easiest.
	Mood       int    `json:"mood,omitempty" validate:"omitempty,min=1,max=5"`
	Difficulty int    `json:"difficulty,omitempty" validate:"omitempty,min=1,max=5"`
	Note       string `json:"note,omitempty"`

	// Backfilled marks entries recorded for a past day; their time of day is synthetic.
	Backfilled bool `json:"backfilled,omitempty"`
}

// Time returns the entry timestamp in the given location.
func (e HabitEntry) Time(loc *time.Location) time.Time {
	return time.UnixMilli(e.Timestamp).In(loc)
}
