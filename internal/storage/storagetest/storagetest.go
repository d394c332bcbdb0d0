// Package storagetest holds the conformance checks shared by every
// storage.Provider implementation.
package storagetest

import (
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

// SampleHabits returns two habits covering every persisted field.
func SampleHabits() []models.Habit {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return []models.Habit{
		{
			ID:            "h1",
			Name:          "Meditate",
			Category:      "mental-wellbeing",
			Frequency:     models.FrequencyDaily,
			ReminderTime:  "07:00",
			Log:           models.HabitLog{"2024-01-01": true, "2024-01-02": true},
			CurrentStreak: 0,
			LongestStreak: 2,
			Entries: []models.HabitEntry{
				{ID: "e1", HabitID: "h1", Timestamp: created.UnixMilli(), Completed: true, Mood: 4},
				{ID: "e2", HabitID: "h1", Timestamp: created.Add(24 * time.Hour).UnixMilli(), Completed: true, Backfilled: true},
			},
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:        "h2",
			Name:      "Run",
			Category:  "physical-activity",
			Frequency: models.FrequencyWeekly,
			Log:       models.HabitLog{},
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

// Run checks the behaviour every Provider must share. p must be freshly
// initialized.
func Run(t *testing.T, p storage.Provider) {
	t.Helper()

	settings, err := p.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", settings)
	}

	settings.Timezone = "UTC"
	settings.RiskThreshold = 0.25
	if err := p.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	if got, _ := p.GetSettings(); got != settings {
		t.Errorf("GetSettings() after save = %+v, want %+v", got, settings)
	}

	habits, err := p.LoadHabits()
	if err != nil {
		t.Fatalf("LoadHabits() error = %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("fresh store has %d habits", len(habits))
	}

	want := SampleHabits()
	if err := p.SaveHabits(want); err != nil {
		t.Fatalf("SaveHabits() error = %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	want[0].Log["2024-01-03"] = true

	got, err := p.LoadHabits()
	if err != nil {
		t.Fatalf("LoadHabits() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadHabits() returned %d habits, want 2", len(got))
	}
	if got[0].ID != "h1" || got[1].ID != "h2" {
		t.Errorf("habit order = %s, %s; want h1, h2", got[0].ID, got[1].ID)
	}
	h := got[0]
	if h.Name != "Meditate" || h.Category != "mental-wellbeing" || h.ReminderTime != "07:00" || h.LongestStreak != 2 {
		t.Errorf("habit fields not round-tripped: %+v", h)
	}
	if len(h.Log) != 2 || !h.Log["2024-01-02"] || h.Log["2024-01-03"] {
		t.Errorf("habit log = %v", h.Log)
	}
	if len(h.Entries) != 2 || h.Entries[0].Mood != 4 || !h.Entries[1].Backfilled {
		t.Errorf("entries not round-tripped: %+v", h.Entries)
	}
	if !h.CreatedAt.Equal(want[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, want[0].CreatedAt)
	}
	if got[1].Log == nil {
		t.Error("empty log should load as an empty map")
	}

	// A second save replaces the whole snapshot.
	if err := p.SaveHabits(got[1:]); err != nil {
		t.Fatalf("SaveHabits() error = %v", err)
	}
	if again, _ := p.LoadHabits(); len(again) != 1 || again[0].ID != "h2" {
		t.Errorf("snapshot not replaced: %+v", again)
	}

	if err := p.SaveAchievements([]string{"first-habit", "week-streak"}); err != nil {
		t.Fatalf("SaveAchievements() error = %v", err)
	}
	if err := p.SaveAchievements([]string{"first-habit"}); err != nil {
		t.Fatalf("SaveAchievements() error = %v", err)
	}
	ids, err := p.LoadAchievements()
	if err != nil {
		t.Fatalf("LoadAchievements() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "first-habit" {
		t.Errorf("LoadAchievements() = %v, want [first-habit]", ids)
	}
}
