// Package analyzer derives completion patterns, per-habit statistics and
// at-risk signals from a habit's timestamped entries.
package analyzer

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// TimeOfDay is a coarse local time bucket.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// timeBuckets is the tie-break order for BestTimeOfDay.
var timeBuckets = []TimeOfDay{Morning, Afternoon, Evening}

// BucketFor returns the time-of-day bucket of a local hour.
func BucketFor(hour int) TimeOfDay {
	switch {
	case hour < constants.AfternoonStartHour:
		return Morning
	case hour < constants.EveningStartHour:
		return Afternoon
	default:
		return Evening
	}
}

// ReminderTime returns the suggested HH:MM reminder for a bucket, or "" if
// the bucket is unknown.
func (t TimeOfDay) ReminderTime() string {
	switch t {
	case Morning:
		return constants.MorningReminderTime
	case Afternoon:
		return constants.AfternoonReminderTime
	case Evening:
		return constants.EveningReminderTime
	}
	return ""
}

// Confidence tells whether a pattern was computed from enough data.
type Confidence string

const (
	ConfidenceLow        Confidence = "low"
	ConfidenceSufficient Confidence = "sufficient"
)

// Pattern is the analysis result for one habit. When Confidence is low only
// the identity fields and CompletedEntries are set.
type Pattern struct {
	HabitID          string        `json:"habit_id"`
	HabitName        string        `json:"habit_name"`
	Confidence       Confidence    `json:"confidence"`
	CompletedEntries int           `json:"completed_entries"`
	Consistency      float64       `json:"consistency"`
	TimeOfDay        TimeOfDay     `json:"time_of_day,omitempty"`
	DayOfWeek        *time.Weekday `json:"day_of_week,omitempty"`
	DayName          string        `json:"day_name,omitempty"`
	PredictedSuccess float64       `json:"predicted_success"`
}

// Sufficient reports whether the pattern carries real results.
func (p Pattern) Sufficient() bool {
	return p.Confidence == ConfidenceSufficient
}

// Analyzer computes patterns against an injectable clock. The clock's
// location decides which calendar day and hour an entry falls on.
type Analyzer struct {
	minEntries int
	clock      func() time.Time
}

// New returns an Analyzer. minEntries below 2 falls back to the default.
// A nil clock uses time.Now.
func New(minEntries int, clock func() time.Time) *Analyzer {
	if minEntries < 2 {
		minEntries = constants.MinPatternEntries
	}
	if clock == nil {
		clock = time.Now
	}
	return &Analyzer{minEntries: minEntries, clock: clock}
}

// AnalyzeHabit computes the pattern for a single habit.
// Habits without entries are analyzed from the entries implied by their log.
func (a *Analyzer) AnalyzeHabit(h models.Habit) (Pattern, error) {
	now := a.clock()
	loc := now.Location()

	entries, err := entriesFor(h, loc)
	if err != nil {
		return Pattern{}, err
	}
	completed := EffectiveCompletions(entries, loc)

	p := Pattern{
		HabitID:          h.ID,
		HabitName:        h.Name,
		Confidence:       ConfidenceLow,
		CompletedEntries: len(completed),
	}
	if len(completed) < a.minEntries {
		return p, nil
	}

	timestamps := make([]int64, len(completed))
	for i, e := range completed {
		timestamps[i] = e.Timestamp
	}

	p.Confidence = ConfidenceSufficient
	p.Consistency = Consistency(timestamps)
	p.TimeOfDay = BestTimeOfDay(completed, loc)
	day := BestDayOfWeek(completed, loc)
	p.DayOfWeek = &day
	p.DayName = day.String()
	p.PredictedSuccess = PredictedSuccess(completed, now)
	return p, nil
}

// AnalyzeAll analyzes every habit. A habit whose analysis fails is logged
// and left out; it never stops the rest of the batch.
func (a *Analyzer) AnalyzeAll(habits []models.Habit) []Pattern {
	patterns := make([]Pattern, 0, len(habits))
	for _, h := range habits {
		p, err := a.AnalyzeHabit(h)
		if err != nil {
			logger.Warn("Habit analysis failed", "habit_id", h.ID, "habit", h.Name, "error", err)
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// entriesFor returns h's entries, rebuilding them from the log when the
// habit predates entry tracking. Entries that belong to another habit or
// carry no timestamp make the habit unanalyzable.
func entriesFor(h models.Habit, loc *time.Location) ([]models.HabitEntry, error) {
	if len(h.Entries) == 0 {
		return habitlog.ToEntries(h.ID, h.Log, loc), nil
	}
	for i, e := range h.Entries {
		if e.HabitID != "" && e.HabitID != h.ID {
			return nil, fmt.Errorf("entry %d belongs to habit %q", i, e.HabitID)
		}
		if e.Timestamp <= 0 {
			return nil, fmt.Errorf("entry %d has invalid timestamp %d", i, e.Timestamp)
		}
	}
	return h.Entries, nil
}

// EffectiveCompletions returns the completed entries whose day is still
// completed after last-write-wins projection, oldest first. A completion
// that was later undone on the same day does not count.
func EffectiveCompletions(entries []models.HabitEntry, loc *time.Location) []models.HabitEntry {
	log := habitlog.FromEntries(entries, loc)
	out := make([]models.HabitEntry, 0, len(entries))
	for _, e := range entries {
		if e.Completed && log[utils.NormalizeKey(e.Time(loc))] {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Consistency scores the regularity of completion timestamps (unix ms) as
// 1 - variance(intervals) / (one day in ms)^2, floored at 0. Fewer than two
// timestamps score 0.
func Consistency(timestamps []int64) float64 {
	if len(timestamps) < 2 {
		return 0
	}
	sorted := append([]int64(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	intervals := make([]float64, len(sorted)-1)
	var sum float64
	for i := 1; i < len(sorted); i++ {
		intervals[i-1] = float64(sorted[i] - sorted[i-1])
		sum += intervals[i-1]
	}
	mean := sum / float64(len(intervals))

	var variance float64
	for _, iv := range intervals {
		variance += (iv - mean) * (iv - mean)
	}
	variance /= float64(len(intervals))

	day := float64(constants.Day.Milliseconds())
	score := 1 - variance/(day*day)
	if score < 0 {
		return 0
	}
	return score
}

// BestTimeOfDay returns the bucket holding the most completions. Backfilled
// entries have a synthetic time and are not counted. Ties go to the earlier
// bucket; with nothing to count the result is "".
func BestTimeOfDay(entries []models.HabitEntry, loc *time.Location) TimeOfDay {
	counts := make(map[TimeOfDay]int, len(timeBuckets))
	for _, e := range entries {
		if !e.Completed || e.Backfilled {
			continue
		}
		counts[BucketFor(e.Time(loc).Hour())]++
	}
	var best TimeOfDay
	top := 0
	for _, b := range timeBuckets {
		if counts[b] > top {
			best, top = b, counts[b]
		}
	}
	return best
}

// BestDayOfWeek returns the weekday with the most completions.
// Ties go to the lowest weekday index, Sunday first.
func BestDayOfWeek(entries []models.HabitEntry, loc *time.Location) time.Weekday {
	var counts [7]int
	for _, e := range entries {
		if e.Completed {
			counts[e.Time(loc).Weekday()]++
		}
	}
	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// PredictedSuccess is the fraction of the trailing window of local calendar
// days, today included, with at least one completed entry.
func PredictedSuccess(entries []models.HabitEntry, now time.Time) float64 {
	loc := now.Location()
	hit := make(map[int]bool, constants.PredictionWindowDays)
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		ago := utils.DaysBetween(e.Time(loc), now)
		if ago >= 0 && ago < constants.PredictionWindowDays {
			hit[ago] = true
		}
	}
	return float64(len(hit)) / float64(constants.PredictionWindowDays)
}
