package models

// AggregateStats summarizes the whole habit collection.
type AggregateStats struct {
	TotalHabits      int `json:"total_habits"`
	ActiveHabits     int `json:"active_habits"` // habits with a current streak > 0
	LongestStreak    int `json:"longest_streak"`
	TotalCompletions int `json:"total_completions"`
	Points           int `json:"points"`
}

// Diagnostic describes a piece of input that was skipped instead of failing the batch.
type Diagnostic struct {
	HabitID string `json:"habit_id,omitempty"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Reason  string `json:"reason"`
}
