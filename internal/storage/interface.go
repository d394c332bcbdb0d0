package storage

import "github.com/julianstephens/habitlit/internal/models"

// Provider is the persistence collaborator. Habits and achievements are read
// and written as whole snapshots; the last write wins.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits, including their logs and entries
	LoadHabits() ([]models.Habit, error)
	SaveHabits([]models.Habit) error

	// Unlocked achievement ids
	LoadAchievements() ([]string, error)
	SaveAchievements([]string) error

	// Utils
	GetConfigPath() string
}

// CloneHabits deep-copies habits so a snapshot never aliases caller state.
func CloneHabits(habits []models.Habit) []models.Habit {
	if habits == nil {
		return nil
	}
	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		out[i] = h
		out[i].Log = h.Log.Clone()
		if h.Entries != nil {
			out[i].Entries = append([]models.HabitEntry(nil), h.Entries...)
		}
	}
	return out
}
