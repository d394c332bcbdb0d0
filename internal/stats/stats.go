// Package stats composes collection-wide statistics from a habit list.
package stats

import (
	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
)

// Compose aggregates habits into AggregateStats, including the points of
// every achievement the aggregate unlocks. It relies on the habits' cached
// streaks, so callers recompute those first.
func Compose(habits []models.Habit) models.AggregateStats {
	s := Counts(habits)
	s.Points = achievements.Points(achievements.Evaluate(s))
	return s
}

// Counts is Compose without points. An empty collection yields zeros.
func Counts(habits []models.Habit) models.AggregateStats {
	var s models.AggregateStats
	s.TotalHabits = len(habits)
	for _, h := range habits {
		if h.CurrentStreak > 0 {
			s.ActiveHabits++
		}
		if h.LongestStreak > s.LongestStreak {
			s.LongestStreak = h.LongestStreak
		}
		s.TotalCompletions += habitlog.Completions(h.Log)
	}
	return s
}
