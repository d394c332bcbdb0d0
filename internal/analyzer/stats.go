package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/streak"
)

// HabitStats summarizes one habit's entry history.
type HabitStats struct {
	HabitID               string     `json:"habit_id"`
	HabitName             string     `json:"habit_name"`
	CurrentStreak         int        `json:"current_streak"`
	LongestStreak         int        `json:"longest_streak"`
	TotalEntries          int        `json:"total_entries"`
	TotalCompleted        int        `json:"total_completed"`
	SuccessRate           float64    `json:"success_rate"`
	LastCompletedAt       *time.Time `json:"last_completed_at,omitempty"`
	AverageCompletionTime string     `json:"average_completion_time,omitempty"`
	Trend                 float64    `json:"trend"`
	Insights              []string   `json:"insights"`
}

// Summarize builds the statistics and insights for one habit.
func (a *Analyzer) Summarize(h models.Habit) HabitStats {
	now := a.clock()
	loc := now.Location()

	entries, err := entriesFor(h, loc)
	if err != nil {
		// Unanalyzable entries still leave the log-derived streaks.
		entries = nil
	}
	s := streak.Calculate(h.Log, now)

	stats := HabitStats{
		HabitID:       h.ID,
		HabitName:     h.Name,
		CurrentStreak: s.Current,
		LongestStreak: s.Longest,
		TotalEntries:  len(entries),
	}

	// Completions undone later the same day don't count; TotalEntries, Trend
	// and the insights still see every recorded entry.
	completed := EffectiveCompletions(entries, loc)
	stats.TotalCompleted = len(completed)

	var last int64
	var minutes []int
	for _, e := range completed {
		if e.Timestamp > last {
			last = e.Timestamp
		}
		if !e.Backfilled {
			t := e.Time(loc)
			minutes = append(minutes, t.Hour()*60+t.Minute())
		}
	}
	if len(entries) > 0 {
		stats.SuccessRate = float64(stats.TotalCompleted) / float64(len(entries)) * 100
	}
	if last > 0 {
		t := time.UnixMilli(last).In(loc)
		stats.LastCompletedAt = &t
	}
	stats.AverageCompletionTime = AverageTime(minutes)
	stats.Trend = Trend(entries)
	stats.Insights = insights(entries, stats, loc)
	return stats
}

// SummarizeAll summarizes every habit in order.
func (a *Analyzer) SummarizeAll(habits []models.Habit) []HabitStats {
	out := make([]HabitStats, 0, len(habits))
	for _, h := range habits {
		out = append(out, a.Summarize(h))
	}
	return out
}

// AverageTime formats the mean of minutes-after-midnight values as HH:MM.
// It returns "" for no values.
func AverageTime(minutes []int) string {
	if len(minutes) == 0 {
		return ""
	}
	total := 0
	for _, m := range minutes {
		total += m
	}
	avg := int(math.Round(float64(total) / float64(len(minutes))))
	return fmt.Sprintf("%02d:%02d", avg/60, avg%60)
}

// Trend is the success rate of the newer half of the entries minus that of
// the older half, ordered by timestamp. Too few entries yield 0.
func Trend(entries []models.HabitEntry) float64 {
	if len(entries) < constants.MinTrendEntries {
		return 0
	}
	sorted := append([]models.HabitEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	mid := len(sorted) / 2
	return successRatio(sorted[mid:]) - successRatio(sorted[:mid])
}

func successRatio(entries []models.HabitEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	done := 0
	for _, e := range entries {
		if e.Completed {
			done++
		}
	}
	return float64(done) / float64(len(entries))
}

func insights(entries []models.HabitEntry, stats HabitStats, loc *time.Location) []string {
	if stats.TotalCompleted < constants.MinInsightEntries {
		return []string{constants.NoInsightDataMessage}
	}

	out := []string{}

	var dayTotal, dayDone [7]int
	byBucket := map[TimeOfDay][2]int{}
	for _, e := range entries {
		t := e.Time(loc)
		dayTotal[t.Weekday()]++
		if e.Completed {
			dayDone[t.Weekday()]++
		}
		if e.Backfilled {
			continue
		}
		b := BucketFor(t.Hour())
		c := byBucket[b]
		c[0]++
		if e.Completed {
			c[1]++
		}
		byBucket[b] = c
	}

	bestDay, bestDayRate := time.Sunday, -1.0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if dayTotal[d] == 0 {
			continue
		}
		if r := float64(dayDone[d]) / float64(dayTotal[d]); r > bestDayRate {
			bestDay, bestDayRate = d, r
		}
	}
	if bestDayRate > constants.InsightSuccessRate {
		out = append(out, fmt.Sprintf(constants.BestDayMessageFormat, bestDay))
	}

	var bestBucket TimeOfDay
	bestBucketRate := -1.0
	for _, b := range timeBuckets {
		c := byBucket[b]
		if c[0] == 0 {
			continue
		}
		if r := float64(c[1]) / float64(c[0]); r > bestBucketRate {
			bestBucket, bestBucketRate = b, r
		}
	}
	if bestBucketRate > constants.InsightSuccessRate {
		out = append(out, fmt.Sprintf(constants.BestTimeMessageFormat, bestBucket))
	}

	switch {
	case stats.Trend > constants.TrendImprovingDelta:
		out = append(out, constants.ImprovingMessage)
	case stats.Trend < constants.TrendStrugglingDelta:
		out = append(out, constants.StrugglingMessage)
	}
	return out
}
