package habitlog

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name string
		log  models.HabitLog
		key  string
		want bool
	}{
		{name: "absent becomes completed", log: models.HabitLog{}, key: "2024-01-04", want: true},
		{name: "completed becomes absent", log: models.HabitLog{"2024-01-04": true}, key: "2024-01-04", want: false},
		{name: "false becomes completed", log: models.HabitLog{"2024-01-04": false}, key: "2024-01-04", want: true},
		{name: "nil log", log: nil, key: "2024-01-04", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.log.Clone()
			got, err := Toggle(tt.log, tt.key)
			if err != nil {
				t.Fatalf("Toggle() error = %v", err)
			}
			if got[tt.key] != tt.want {
				t.Errorf("Toggle()[%s] = %v, want %v", tt.key, got[tt.key], tt.want)
			}
			if len(tt.log) != len(before) || tt.log[tt.key] != before[tt.key] {
				t.Error("Toggle() modified its input")
			}
		})
	}
}

func TestToggleRoundTrip(t *testing.T) {
	log := models.HabitLog{"2024-01-01": true, "2024-01-02": true}
	for _, key := range []string{"2024-01-01", "2024-01-03"} {
		once, err := Toggle(log, key)
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		twice, err := Toggle(once, key)
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if !Equal(twice, log) || len(twice) != len(log) {
			t.Errorf("toggle(toggle(L, %s)) = %v, want %v", key, twice, log)
		}
	}
}

func TestToggleRejectsBadKey(t *testing.T) {
	_, err := Toggle(models.HabitLog{}, "2024-1-4")
	if !errors.Is(err, errors.ErrInvalidDateKey) {
		t.Errorf("Toggle() error = %v, want ErrInvalidDateKey", err)
	}
}

func TestFromEntriesLastWriteWins(t *testing.T) {
	loc := time.UTC
	day := func(d, h int) int64 { return time.Date(2024, 1, d, h, 0, 0, 0, loc).UnixMilli() }

	entries := []models.HabitEntry{
		{HabitID: "h", Timestamp: day(1, 9), Completed: true},
		{HabitID: "h", Timestamp: day(2, 9), Completed: true},
		{HabitID: "h", Timestamp: day(2, 21), Completed: false},
		// Written later but stamped earlier the same day: slice order decides.
		{HabitID: "h", Timestamp: day(3, 22), Completed: false},
		{HabitID: "h", Timestamp: day(3, 7), Completed: true},
	}

	got := FromEntries(entries, loc)
	want := models.HabitLog{"2024-01-01": true, "2024-01-03": true}
	if !Equal(got, want) || len(got) != len(want) {
		t.Errorf("FromEntries() = %v, want %v", got, want)
	}
}

func TestFromEntriesUsesLocalCalendar(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	// 2024-01-04 20:00 UTC is 2024-01-05 05:00 in Tokyo.
	ts := time.Date(2024, 1, 4, 20, 0, 0, 0, time.UTC).UnixMilli()
	got := FromEntries([]models.HabitEntry{{HabitID: "h", Timestamp: ts, Completed: true}}, tokyo)
	if !got["2024-01-05"] {
		t.Errorf("FromEntries() = %v, want completion on 2024-01-05", got)
	}
}

func TestToEntriesRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	log := models.HabitLog{"2024-03-09": true, "2024-03-10": true, "2024-03-12": true, "2024-03-11": false}

	entries := ToEntries("habit-1", log, loc)
	if len(entries) != 3 {
		t.Fatalf("ToEntries() returned %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if !e.Backfilled || !e.Completed || e.HabitID != "habit-1" {
			t.Errorf("entry %d = %+v, want completed backfilled entry for habit-1", i, e)
		}
		if h := e.Time(loc).Hour(); h != 12 {
			t.Errorf("entry %d hour = %d, want 12", i, h)
		}
	}
	if !Equal(FromEntries(entries, loc), log) {
		t.Errorf("FromEntries(ToEntries(L)) != L")
	}

	again := ToEntries("habit-1", log, loc)
	for i := range entries {
		if entries[i].ID != again[i].ID {
			t.Errorf("entry ids not deterministic: %s vs %s", entries[i].ID, again[i].ID)
		}
	}
}

func TestParse(t *testing.T) {
	raw := map[string]any{
		"2024-01-01": true,
		"2024-01-02": false,
		"2024-01-03": "yes",
		"2024-13-01": true,
		"not-a-date": true,
		"2024-01-04": float64(1),
		"2024-01-05": true,
	}

	log, diags := Parse("h1", raw)

	want := models.HabitLog{"2024-01-01": true, "2024-01-05": true}
	if !Equal(log, want) || len(log) != len(want) {
		t.Errorf("Parse() log = %v, want %v", log, want)
	}
	if len(diags) != 4 {
		t.Fatalf("Parse() returned %d diagnostics, want 4: %+v", len(diags), diags)
	}
	for _, d := range diags {
		if d.HabitID != "h1" || d.Reason == "" {
			t.Errorf("diagnostic missing context: %+v", d)
		}
	}
	// Diagnostics are reported in key order.
	if diags[0].Key != "2024-01-03" {
		t.Errorf("first diagnostic key = %q, want 2024-01-03", diags[0].Key)
	}
}

func TestCompletions(t *testing.T) {
	log := models.HabitLog{"2024-01-01": true, "2024-01-02": false, "2024-01-03": true}
	if got := Completions(log); got != 2 {
		t.Errorf("Completions() = %d, want 2", got)
	}
	if got := Completions(nil); got != 0 {
		t.Errorf("Completions(nil) = %d, want 0", got)
	}
	keys := CompletedKeys(log)
	if len(keys) != 2 || keys[0] != "2024-01-01" || keys[1] != "2024-01-03" {
		t.Errorf("CompletedKeys() = %v", keys)
	}
}
