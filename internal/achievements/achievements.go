// Package achievements evaluates the fixed achievement catalog against
// aggregate statistics and derives points and levels.
package achievements

import (
	"math"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Achievement is a point-valued unlock condition. Conditions must be pure
// and monotonic (>= comparisons) so an unlock never reverts as stats grow.
type Achievement struct {
	ID          string                           `json:"id"`
	Title       string                           `json:"title"`
	Description string                           `json:"description"`
	Icon        string                           `json:"icon"`
	Points      int                              `json:"points"`
	Condition   func(models.AggregateStats) bool `json:"-"`
}

var catalog = []Achievement{
	{
		ID:          "first-habit",
		Title:       "Getting Started",
		Description: "Create your first habit",
		Icon:        "🌱",
		Points:      10,
		Condition:   func(s models.AggregateStats) bool { return s.TotalHabits >= 1 },
	},
	{
		ID:          "week-streak",
		Title:       "Weekly Warrior",
		Description: "Maintain a 7-day streak",
		Icon:        "🔥",
		Points:      50,
		Condition:   func(s models.AggregateStats) bool { return s.LongestStreak >= 7 },
	},
	{
		ID:          "month-streak",
		Title:       "Habit Master",
		Description: "Maintain a 30-day streak",
		Icon:        "👑",
		Points:      200,
		Condition:   func(s models.AggregateStats) bool { return s.LongestStreak >= 30 },
	},
	{
		ID:          "multi-habit",
		Title:       "Multi-tasker",
		Description: "Track 3 habits simultaneously",
		Icon:        "🎯",
		Points:      30,
		Condition:   func(s models.AggregateStats) bool { return s.ActiveHabits >= 3 },
	},
}

// Catalog returns the achievements in display order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog achievement by id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate returns the achievements unlocked by stats, in catalog order.
// Every condition sees the same snapshot.
func Evaluate(stats models.AggregateStats) []Achievement {
	var unlocked []Achievement
	for _, a := range catalog {
		if a.Condition(stats) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

// Points sums the points of the given achievements.
func Points(unlocked []Achievement) int {
	total := 0
	for _, a := range unlocked {
		total += a.Points
	}
	return total
}

// Level maps points to a level: floor(sqrt(points/100)) + 1. Zero or
// negative points are level 1.
func Level(points int) int {
	if points <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(points)/constants.LevelPointsDivisor))) + 1
}

// NextLevelPoints returns the points at which level+1 begins.
func NextLevelPoints(level int) int {
	if level < 1 {
		level = 1
	}
	return level * level * constants.LevelPointsDivisor
}

// IDs returns the ids of the achievements, preserving order.
func IDs(list []Achievement) []string {
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

// NewlyUnlocked returns the achievements in current whose id is not in
// previous, in catalog order.
func NewlyUnlocked(previous []string, current []Achievement) []Achievement {
	seen := make(map[string]bool, len(previous))
	for _, id := range previous {
		seen[id] = true
	}
	var fresh []Achievement
	for _, a := range current {
		if !seen[a.ID] {
			fresh = append(fresh, a)
		}
	}
	return fresh
}
