// Package streak computes consecutive-day completion runs from a habit log.
package streak

import (
	"time"

	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Result holds both streak values for one log.
type Result struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Calculate derives the current and longest streaks of log as of today.
// today is interpreted on its own location's calendar.
//
// The current streak counts back from today itself; if today is not
// completed it is 0. Keys that are not canonical dates are ignored.
func Calculate(log models.HabitLog, today time.Time) Result {
	return Result{
		Current: Current(log, today),
		Longest: Longest(log),
	}
}

// Current counts consecutive completed days ending at today.
func Current(log models.HabitLog, today time.Time) int {
	y, m, d := today.Date()
	count := 0
	for {
		// Civil-date arithmetic in UTC; local DST never skips or repeats a key.
		key := utils.NormalizeKey(time.Date(y, m, d-count, 0, 0, 0, 0, time.UTC))
		if !log[key] {
			return count
		}
		count++
	}
}

// Longest returns the longest run of consecutive completed days in log.
func Longest(log models.HabitLog) int {
	keys := habitlog.CompletedKeys(log)
	longest, run := 0, 0
	var prev string
	for i, key := range keys {
		if i == 0 {
			run = 1
		} else if gap, err := utils.KeyDaysBetween(prev, key); err == nil && gap == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = key
	}
	return longest
}

// Recompute replaces the cached streak fields of h from its log.
// It panics if h is nil.
func Recompute(h *models.Habit, today time.Time) {
	r := Calculate(h.Log, today)
	h.CurrentStreak = r.Current
	h.LongestStreak = r.Longest
}
