package tracker

import (
	"bytes"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/exporter"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/validation"
)

// Wednesday evening.
var testNow = time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

func setupTracker(t *testing.T, habits ...models.Habit) (*Tracker, *storage.MemoryStore, *notifier.Recorder) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	if err := store.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	if len(habits) > 0 {
		if err := store.SaveHabits(habits); err != nil {
			t.Fatal(err)
		}
	}
	rec := &notifier.Recorder{}
	tr := New(store, WithNotifier(rec), WithClock(func() time.Time { return testNow }))
	return tr, store, rec
}

func mustAdd(t *testing.T, tr *Tracker, name string) models.Habit {
	t.Helper()
	h, _, err := tr.AddHabit(NewHabit{Name: name, Category: "personal-growth"})
	if err != nil {
		t.Fatalf("AddHabit(%q) error = %v", name, err)
	}
	return h
}

func TestAddHabit(t *testing.T) {
	tr, store, rec := setupTracker(t)

	h, res, err := tr.AddHabit(NewHabit{Name: "  Read  ", Category: "personal-growth", ReminderTime: "07:30"})
	if err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	if h.ID == "" || h.Name != "Read" || h.Frequency != models.FrequencyDaily {
		t.Errorf("habit = %+v", h)
	}
	if h.Log == nil || len(h.Log) != 0 || h.CurrentStreak != 0 || h.LongestStreak != 0 {
		t.Errorf("new habit must start empty: %+v", h)
	}
	if !h.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, testNow)
	}

	if len(res.NewlyUnlocked) != 1 || res.NewlyUnlocked[0].ID != "first-habit" {
		t.Errorf("NewlyUnlocked = %v, want first-habit", res.NewlyUnlocked)
	}
	if res.Stats.TotalHabits != 1 || res.Stats.Points != 10 || res.Level != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(rec.Messages) != 1 || !strings.HasPrefix(rec.Messages[0], "Achievement Unlocked!") {
		t.Errorf("messages = %v", rec.Messages)
	}

	ids, _ := store.LoadAchievements()
	if len(ids) != 1 || ids[0] != "first-habit" {
		t.Errorf("persisted achievements = %v", ids)
	}

	_, res, err = tr.AddHabit(NewHabit{Name: "Walk"})
	if err != nil {
		t.Fatalf("second AddHabit() error = %v", err)
	}
	if len(res.NewlyUnlocked) != 0 {
		t.Errorf("second add unlocked %v, want nothing new", res.NewlyUnlocked)
	}
	if len(rec.Messages) != 1 {
		t.Errorf("got %d messages, want 1", len(rec.Messages))
	}
}

func TestAddHabitRejects(t *testing.T) {
	tr, _, _ := setupTracker(t)
	mustAdd(t, tr, "Read")

	tests := []struct {
		name    string
		input   NewHabit
		wantErr error
	}{
		{name: "empty name", input: NewHabit{Name: "   "}, wantErr: errors.ErrInvalidHabit},
		{name: "unknown category", input: NewHabit{Name: "Yoga", Category: "yoga"}, wantErr: errors.ErrInvalidHabit},
		{name: "unknown frequency", input: NewHabit{Name: "Yoga", Frequency: "monthly"}, wantErr: errors.ErrInvalidHabit},
		{name: "bad reminder", input: NewHabit{Name: "Yoga", ReminderTime: "25:00"}, wantErr: errors.ErrInvalidHabit},
		{name: "duplicate name", input: NewHabit{Name: "READ"}, wantErr: errors.ErrDuplicateHabit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tr.AddHabit(tt.input)
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("AddHabit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	habits, err := tr.Habits()
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 {
		t.Errorf("rejected adds must not persist, got %d habits", len(habits))
	}
}

func TestToggleToday(t *testing.T) {
	tr, _, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	got, _, err := tr.Toggle(h.ID, "")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !got.Log["2024-01-10"] || got.CurrentStreak != 1 || got.LongestStreak != 1 {
		t.Errorf("after toggle: log %v, streaks %d/%d", got.Log, got.CurrentStreak, got.LongestStreak)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %v", got.Entries)
	}
	e := got.Entries[0]
	if e.Timestamp != testNow.UnixMilli() || e.Backfilled || !e.Completed || e.ID == "" || e.HabitID != h.ID {
		t.Errorf("entry = %+v", e)
	}

	// Toggling back removes the key and records a non-completion.
	got, _, err = tr.Toggle("read", "2024-01-10")
	if err != nil {
		t.Fatalf("Toggle() by name error = %v", err)
	}
	if len(got.Log) != 0 || got.CurrentStreak != 0 || got.LongestStreak != 0 {
		t.Errorf("after second toggle: log %v, streaks %d/%d", got.Log, got.CurrentStreak, got.LongestStreak)
	}
	if len(got.Entries) != 2 || got.Entries[1].Completed {
		t.Errorf("entries = %+v", got.Entries)
	}
	if !habitlog.Equal(got.Log, habitlog.FromEntries(got.Entries, time.UTC)) {
		t.Error("log must stay the projection of its entries")
	}
}

func TestTogglePastDayBackfills(t *testing.T) {
	tr, _, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	got, _, err := tr.Toggle(h.ID, "2024-01-08")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	e := got.Entries[0]
	want := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	if !e.Backfilled || e.Timestamp != want.UnixMilli() {
		t.Errorf("entry = %+v, want backfilled at %v", e, want)
	}
	if got.CurrentStreak != 0 || got.LongestStreak != 1 {
		t.Errorf("streaks = %d/%d, want 0/1", got.CurrentStreak, got.LongestStreak)
	}

	// Entry ids stay unique when the same day is toggled repeatedly.
	if _, _, err := tr.Toggle(h.ID, "2024-01-08"); err != nil {
		t.Fatal(err)
	}
	got, _, _ = tr.Toggle(h.ID, "2024-01-08")
	seen := make(map[string]bool)
	for _, e := range got.Entries {
		if seen[e.ID] {
			t.Errorf("duplicate entry id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestToggleSeedsEntriesFromLog(t *testing.T) {
	legacy := models.Habit{
		ID:        "h1",
		Name:      "Walk",
		Frequency: models.FrequencyDaily,
		Log:       models.HabitLog{"2024-01-08": true, "2024-01-09": true},
		CreatedAt: testNow.Add(-72 * time.Hour),
		UpdatedAt: testNow.Add(-72 * time.Hour),
	}
	tr, _, _ := setupTracker(t, legacy)

	got, _, err := tr.Toggle("h1", "")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if len(got.Entries) != 3 {
		t.Errorf("got %d entries, want 2 rebuilt + 1 new", len(got.Entries))
	}
	if got.CurrentStreak != 3 || got.LongestStreak != 3 {
		t.Errorf("streaks = %d/%d, want 3/3", got.CurrentStreak, got.LongestStreak)
	}
	if !habitlog.Equal(got.Log, habitlog.FromEntries(got.Entries, time.UTC)) {
		t.Error("log must stay the projection of its entries")
	}
}

func TestToggleErrors(t *testing.T) {
	tr, _, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	tests := []struct {
		name    string
		habit   string
		day     string
		wantErr error
	}{
		{name: "future day", habit: h.ID, day: "2024-01-11", wantErr: errors.ErrFutureDay},
		{name: "bad key", habit: h.ID, day: "2024-1-5", wantErr: errors.ErrInvalidDateKey},
		{name: "unknown habit", habit: "nope", day: "", wantErr: errors.ErrHabitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tr.Toggle(tt.habit, tt.day); !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Toggle() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeekStreakUnlocks(t *testing.T) {
	tr, _, rec := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	var res Result
	var err error
	for day := 4; day <= 10; day++ {
		key := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if _, res, err = tr.Toggle(h.ID, key); err != nil {
			t.Fatalf("Toggle(%s) error = %v", key, err)
		}
		if day < 10 && len(res.NewlyUnlocked) != 0 {
			t.Errorf("day %d unlocked %v early", day, res.NewlyUnlocked)
		}
	}

	if len(res.NewlyUnlocked) != 1 || res.NewlyUnlocked[0].ID != "week-streak" {
		t.Errorf("NewlyUnlocked = %v, want week-streak", res.NewlyUnlocked)
	}
	if res.Stats.LongestStreak != 7 || res.Stats.Points != 60 || res.Level != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(rec.Messages) != 2 {
		t.Errorf("messages = %v", rec.Messages)
	}
}

func TestDelete(t *testing.T) {
	tr, store, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	res, err := tr.Delete(h.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if res.Stats.TotalHabits != 0 || len(res.Unlocked) != 0 || res.Level != 1 {
		t.Errorf("result = %+v", res)
	}
	ids, _ := store.LoadAchievements()
	if len(ids) != 0 {
		t.Errorf("persisted achievements = %v, want none", ids)
	}

	if _, err := tr.Delete(h.ID); !stderrors.Is(err, errors.ErrHabitNotFound) {
		t.Errorf("second Delete() error = %v, want ErrHabitNotFound", err)
	}
}

func TestNotifierFailureIsIgnored(t *testing.T) {
	tr, _, rec := setupTracker(t)
	rec.Err = stderrors.New("tray not running")

	_, res, err := tr.AddHabit(NewHabit{Name: "Read"})
	if err != nil {
		t.Fatalf("AddHabit() error = %v, notifier failures must not fail mutations", err)
	}
	if len(res.NewlyUnlocked) != 1 {
		t.Errorf("NewlyUnlocked = %v", res.NewlyUnlocked)
	}
}

func TestSaveFailure(t *testing.T) {
	tr, store, _ := setupTracker(t)
	store.SaveErr = stderrors.New("disk full")

	if _, _, err := tr.AddHabit(NewHabit{Name: "Read"}); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("AddHabit() error = %v, want save error", err)
	}
}

func TestHabitsSortedAndFresh(t *testing.T) {
	older := models.Habit{
		ID: "b", Name: "Older", Log: models.HabitLog{"2024-01-10": true},
		CurrentStreak: 9, LongestStreak: 9,
		CreatedAt: testNow.Add(-48 * time.Hour),
	}
	newer := models.Habit{ID: "a", Name: "Newer", Log: models.HabitLog{}, CreatedAt: testNow.Add(-24 * time.Hour)}
	tr, _, _ := setupTracker(t, newer, older)

	habits, err := tr.Habits()
	if err != nil {
		t.Fatal(err)
	}
	if habits[0].ID != "b" || habits[1].ID != "a" {
		t.Errorf("order = %s, %s; want oldest first", habits[0].ID, habits[1].ID)
	}
	if habits[0].CurrentStreak != 1 || habits[0].LongestStreak != 1 {
		t.Errorf("streaks = %d/%d, want recomputed 1/1", habits[0].CurrentStreak, habits[0].LongestStreak)
	}
}

func TestSummary(t *testing.T) {
	tr, _, _ := setupTracker(t)
	for _, name := range []string{"Read", "Walk", "Meditate"} {
		h := mustAdd(t, tr, name)
		if _, _, err := tr.Toggle(h.ID, ""); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := tr.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Stats.TotalHabits != 3 || sum.Stats.ActiveHabits != 3 || sum.Stats.TotalCompletions != 3 {
		t.Errorf("stats = %+v", sum.Stats)
	}
	if sum.Stats.Points != 40 || len(sum.Unlocked) != 2 {
		t.Errorf("points = %d, unlocked = %v", sum.Stats.Points, sum.Unlocked)
	}
	if len(sum.Catalog) != 4 || sum.Level != 1 || sum.NextLevelPoints != 100 {
		t.Errorf("summary = %+v", sum)
	}
}

// staleHabit completed its habit every morning for eight days ending two weeks ago.
func staleHabit() models.Habit {
	h := models.Habit{
		ID:           "h1",
		Name:         "Run",
		Frequency:    models.FrequencyDaily,
		ReminderTime: "19:00",
		CreatedAt:    time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	for day := 20; day < 28; day++ {
		h.Entries = append(h.Entries, models.HabitEntry{
			ID:        "e" + time.Date(2023, 12, day, 0, 0, 0, 0, time.UTC).Format("0102"),
			HabitID:   "h1",
			Timestamp: time.Date(2023, 12, day, 8, 0, 0, 0, time.UTC).UnixMilli(),
			Completed: true,
		})
	}
	h.Log = habitlog.FromEntries(h.Entries, time.UTC)
	return h
}

func TestAnalyzeSchedulesReminders(t *testing.T) {
	tr, store, rec := setupTracker(t, staleHabit())

	analysis, err := tr.Analyze()
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Patterns) != 1 || !analysis.Patterns[0].Sufficient() {
		t.Fatalf("patterns = %+v", analysis.Patterns)
	}
	if len(analysis.Stats) != 1 || analysis.Stats[0].TotalCompleted != 8 {
		t.Errorf("stats = %+v", analysis.Stats)
	}
	if len(analysis.Risks) != 1 || analysis.Risks[0].SuggestedTime != "08:00" {
		t.Fatalf("risks = %+v", analysis.Risks)
	}

	want := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)
	if len(rec.Reminders) != 1 || rec.Reminders[0].HabitID != "h1" || !rec.Reminders[0].At.Equal(want) {
		t.Errorf("reminders = %+v, want h1 at %v", rec.Reminders, want)
	}

	// The lead time moves the reminder earlier.
	settings, _ := store.GetSettings()
	settings.ReminderLeadMin = 30
	if err := tr.UpdateSettings(settings); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Analyze(); err != nil {
		t.Fatal(err)
	}
	if got := rec.Reminders[1].At; !got.Equal(want.Add(-30 * time.Minute)) {
		t.Errorf("reminder with lead = %v", got)
	}
}

func TestAnalyzeRespectsSettings(t *testing.T) {
	tr, store, rec := setupTracker(t, staleHabit())
	settings, _ := store.GetSettings()
	settings.NotificationsEnabled = false
	if err := store.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	analysis, err := tr.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.Risks) != 1 {
		t.Errorf("risks = %+v", analysis.Risks)
	}
	if len(rec.Reminders) != 0 {
		t.Errorf("reminders sent with notifications disabled: %+v", rec.Reminders)
	}

	settings.AnalysisMinEntries = 20
	if err := store.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	analysis, err = tr.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Patterns[0].Sufficient() || len(analysis.Risks) != 0 {
		t.Errorf("with a higher minimum the pattern must be low confidence: %+v", analysis)
	}
}

func TestHabitStatsHasNoSideEffects(t *testing.T) {
	tr, _, rec := setupTracker(t, staleHabit())

	st, err := tr.HabitStats("run")
	if err != nil {
		t.Fatalf("HabitStats() error = %v", err)
	}
	if st.HabitID != "h1" || st.TotalCompleted != 8 || st.SuccessRate != 100 {
		t.Errorf("stats = %+v", st)
	}
	if st.AverageCompletionTime != "08:00" {
		t.Errorf("AverageCompletionTime = %q, want 08:00", st.AverageCompletionTime)
	}
	if len(rec.Reminders) != 0 || len(rec.Messages) != 0 {
		t.Errorf("HabitStats must not notify: %+v %+v", rec.Reminders, rec.Messages)
	}

	if _, err := tr.HabitStats("missing"); !errors.Is(err, errors.ErrHabitNotFound) {
		t.Errorf("HabitStats(missing) error = %v, want ErrHabitNotFound", err)
	}

	now, err := tr.Now()
	if err != nil || !now.Equal(testNow) {
		t.Errorf("Now() = %v, %v", now, err)
	}
}

func TestHabitStatsIgnoresUndoneCompletion(t *testing.T) {
	tr, _, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")

	for i := 0; i < 2; i++ {
		if _, _, err := tr.Toggle(h.ID, ""); err != nil {
			t.Fatalf("Toggle() #%d error = %v", i+1, err)
		}
	}

	st, err := tr.HabitStats(h.ID)
	if err != nil {
		t.Fatalf("HabitStats() error = %v", err)
	}
	if st.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", st.TotalEntries)
	}
	if st.TotalCompleted != 0 || st.SuccessRate != 0 {
		t.Errorf("undone completion counted: completed=%d rate=%v", st.TotalCompleted, st.SuccessRate)
	}
	if st.LastCompletedAt != nil || st.AverageCompletionTime != "" {
		t.Errorf("undone completion timed: last=%v avg=%q", st.LastCompletedAt, st.AverageCompletionTime)
	}
}

func TestUpdateSettingsValidates(t *testing.T) {
	tr, _, _ := setupTracker(t)
	s := models.DefaultSettings()
	s.RiskThreshold = 1.5
	var verr *validation.Error
	if err := tr.UpdateSettings(s); !stderrors.As(err, &verr) {
		t.Errorf("UpdateSettings() error = %v, want *validation.Error", err)
	}
}

func TestExportImport(t *testing.T) {
	tr, _, _ := setupTracker(t)
	h := mustAdd(t, tr, "Read")
	if _, _, err := tr.Toggle(h.ID, "2024-01-09"); err != nil {
		t.Fatal(err)
	}

	doc, err := tr.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if doc.Version != 1 || len(doc.Habits) != 1 || len(doc.Achievements) != 1 {
		t.Errorf("doc = %+v", doc)
	}
	var buf bytes.Buffer
	if err := exporter.Encode(&buf, doc); err != nil {
		t.Fatal(err)
	}

	other, _, _ := setupTracker(t)
	mustAdd(t, other, "Walk")
	report, err := other.Import(buf.Bytes(), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if report.Habits != 1 || report.Format != exporter.FormatDocument {
		t.Errorf("report = %+v", report)
	}
	habits, _ := other.Habits()
	if len(habits) != 2 {
		t.Fatalf("got %d habits after merge, want 2", len(habits))
	}

	// Re-importing the same document replaces by id instead of duplicating.
	if _, err := other.Import(buf.Bytes(), false); err != nil {
		t.Fatal(err)
	}
	habits, _ = other.Habits()
	if len(habits) != 2 {
		t.Errorf("got %d habits after re-import, want 2", len(habits))
	}

	// A legacy habit named like an existing one is skipped.
	legacy := `[{"id":"x1","name":"walk","logs":{"2024-01-10":true}},{"id":"x2","name":"Stretch","logs":{"2024-01-10":true}}]`
	report, err = other.Import([]byte(legacy), false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Habits != 1 || len(report.Skipped) != 1 || report.Format != exporter.FormatLegacy {
		t.Errorf("legacy report = %+v", report)
	}

	report, err = other.Import(buf.Bytes(), true)
	if err != nil {
		t.Fatal(err)
	}
	habits, _ = other.Habits()
	if len(habits) != 1 || habits[0].Name != "Read" {
		t.Errorf("replace import left %+v", habits)
	}

	if _, err := other.Import([]byte("nonsense"), false); err == nil {
		t.Error("expected error for undecodable import")
	}
}

func TestBackupRestore(t *testing.T) {
	tr, _, _ := setupTracker(t)
	mustAdd(t, tr, "Read")
	mgr := backup.NewManager(filepath.Join(t.TempDir(), "habitlit.db"))

	path, err := tr.Backup(mgr)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	mustAdd(t, tr, "Walk")

	if _, err := tr.Restore(mgr, path); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	habits, _ := tr.Habits()
	if len(habits) != 1 || habits[0].Name != "Read" {
		t.Errorf("restored habits = %+v", habits)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("expected a pre-restore backup, got %d backups", len(backups))
	}
}

func TestValidateAndRepair(t *testing.T) {
	drifted := staleHabit()
	drifted.CurrentStreak = 5
	drifted.LongestStreak = 8
	delete(drifted.Log, "2023-12-21")
	tr, _, _ := setupTracker(t, drifted)

	result, err := tr.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	types := make(map[validation.ConflictType]bool)
	for _, c := range result.Conflicts {
		types[c.Type] = true
	}
	if !types[validation.ConflictStaleStreak] || !types[validation.ConflictLogDrift] {
		t.Errorf("conflicts = %+v", result.Conflicts)
	}
	if !result.Fixable() {
		t.Error("drift and stale streaks should be fixable")
	}

	changed, err := tr.Repair()
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if changed != 1 {
		t.Errorf("Repair() changed %d habits, want 1", changed)
	}

	result, err = tr.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if result.HasConflicts() {
		t.Errorf("conflicts after repair: %s", result.FormatReport())
	}

	if changed, _ := tr.Repair(); changed != 0 {
		t.Errorf("second Repair() changed %d habits, want 0", changed)
	}
}
