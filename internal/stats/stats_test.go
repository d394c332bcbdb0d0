package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/streak"
)

func TestComposeEmptyCollection(t *testing.T) {
	for _, habits := range [][]models.Habit{nil, {}} {
		got := Compose(habits)
		if got != (models.AggregateStats{}) {
			t.Errorf("Compose(%v) = %+v, want all zeros", habits, got)
		}
	}
}

func TestCompose(t *testing.T) {
	today := time.Date(2024, 1, 30, 9, 0, 0, 0, time.Local)

	month := models.HabitLog{}
	for i := 0; i < 30; i++ {
		month[today.AddDate(0, 0, -i).Format("2006-01-02")] = true
	}
	habits := []models.Habit{
		{ID: "a", Name: "Meditate", Log: month},
		{ID: "b", Name: "Run", Log: models.HabitLog{"2024-01-01": true, "2024-01-02": false}},
		{ID: "c", Name: "Read", Log: models.HabitLog{}},
	}
	for i := range habits {
		streak.Recompute(&habits[i], today)
	}

	got := Compose(habits)
	want := models.AggregateStats{
		TotalHabits:      3,
		ActiveHabits:     1,
		LongestStreak:    30,
		TotalCompletions: 31,
		// first-habit + week-streak + month-streak
		Points: 260,
	}
	if got != want {
		t.Errorf("Compose() = %+v, want %+v", got, want)
	}
}

func TestComposeSingleHabit(t *testing.T) {
	got := Compose([]models.Habit{{ID: "a", Name: "Water", Log: models.HabitLog{}}})
	if got.TotalHabits != 1 || got.Points != 10 {
		t.Errorf("Compose() = %+v, want one habit worth 10 points", got)
	}
}
