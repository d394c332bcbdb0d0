package analyzer

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
)

// Wednesday 2024-01-10, 20:00 UTC.
var testNow = time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func entryAt(day, hour, minute int, completed bool) models.HabitEntry {
	return models.HabitEntry{
		HabitID:   "h1",
		Timestamp: time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC).UnixMilli(),
		Completed: completed,
	}
}

func habitWith(entries ...models.HabitEntry) models.Habit {
	return models.Habit{
		ID:      "h1",
		Name:    "Read",
		Entries: entries,
		Log:     habitlog.FromEntries(entries, time.UTC),
	}
}

func TestConsistency(t *testing.T) {
	day := constants.Day.Milliseconds()
	tests := []struct {
		name       string
		timestamps []int64
		want       float64
	}{
		{name: "no timestamps", timestamps: nil, want: 0},
		{name: "single timestamp", timestamps: []int64{day}, want: 0},
		{name: "perfectly regular", timestamps: []int64{day, 2 * day, 3 * day, 4 * day}, want: 1},
		{name: "unsorted input is sorted first", timestamps: []int64{3 * day, day, 4 * day, 2 * day}, want: 1},
		// Intervals 1d and 3d: variance is one day squared.
		{name: "floored at zero", timestamps: []int64{0, day, 4 * day}, want: 0},
		// Intervals 1d and 2d: variance is a quarter day squared.
		{name: "partial regularity", timestamps: []int64{0, day, 3 * day}, want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Consistency(tt.timestamps)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Consistency() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Consistency() = %v out of range", got)
			}
		})
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{23, Evening},
	}
	for _, tt := range tests {
		if got := BucketFor(tt.hour); got != tt.want {
			t.Errorf("BucketFor(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestBestTimeOfDay(t *testing.T) {
	entries := []models.HabitEntry{
		entryAt(1, 8, 0, true),
		entryAt(2, 13, 0, true),
		entryAt(3, 19, 0, true),
		entryAt(4, 20, 0, true),
		entryAt(5, 9, 0, false),
		entryAt(6, 9, 0, false),
	}
	if got := BestTimeOfDay(entries, time.UTC); got != Evening {
		t.Errorf("BestTimeOfDay() = %s, want evening", got)
	}

	tie := []models.HabitEntry{entryAt(1, 18, 0, true), entryAt(2, 8, 0, true)}
	if got := BestTimeOfDay(tie, time.UTC); got != Morning {
		t.Errorf("BestTimeOfDay() tie = %s, want morning", got)
	}

	backfilled := entryAt(1, 12, 0, true)
	backfilled.Backfilled = true
	if got := BestTimeOfDay([]models.HabitEntry{backfilled}, time.UTC); got != "" {
		t.Errorf("BestTimeOfDay() with only backfilled entries = %q, want empty", got)
	}
}

func TestBestDayOfWeek(t *testing.T) {
	// Jan 1 2024 is a Monday.
	entries := []models.HabitEntry{
		entryAt(1, 8, 0, true),
		entryAt(8, 8, 0, true),
		entryAt(2, 8, 0, true),
		entryAt(9, 8, 0, false),
	}
	if got := BestDayOfWeek(entries, time.UTC); got != time.Monday {
		t.Errorf("BestDayOfWeek() = %s, want Monday", got)
	}

	// Tuesday and Saturday tie; the lower index wins.
	tie := []models.HabitEntry{entryAt(6, 8, 0, true), entryAt(2, 8, 0, true)}
	if got := BestDayOfWeek(tie, time.UTC); got != time.Tuesday {
		t.Errorf("BestDayOfWeek() tie = %s, want Tuesday", got)
	}
}

func TestPredictedSuccess(t *testing.T) {
	entries := []models.HabitEntry{
		entryAt(10, 1, 0, true),  // today
		entryAt(10, 5, 0, true),  // same day counted once
		entryAt(8, 23, 0, true),  // two days ago
		entryAt(7, 9, 0, false),  // not completed
		entryAt(2, 9, 0, true),   // outside the window
		entryAt(11, 9, 0, true),  // future
		entryAt(4, 0, 0, true),   // six days ago, last day in window
		entryAt(3, 23, 59, true), // seven days ago
	}
	got := PredictedSuccess(entries, testNow)
	if want := 3.0 / 7.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("PredictedSuccess() = %v, want %v", got, want)
	}
	if got := PredictedSuccess(nil, testNow); got != 0 {
		t.Errorf("PredictedSuccess(nil) = %v, want 0", got)
	}
}

func TestAnalyzeHabitLowConfidence(t *testing.T) {
	var entries []models.HabitEntry
	for d := 4; d <= 9; d++ {
		entries = append(entries, entryAt(d, 8, 0, true))
	}
	a := New(constants.MinPatternEntries, fixedClock)

	p, err := a.AnalyzeHabit(habitWith(entries...))
	if err != nil {
		t.Fatalf("AnalyzeHabit() error = %v", err)
	}
	if p.Sufficient() {
		t.Errorf("pattern with 6 completions should be low confidence: %+v", p)
	}
	if p.CompletedEntries != 6 || p.Consistency != 0 || p.TimeOfDay != "" || p.PredictedSuccess != 0 {
		t.Errorf("low confidence pattern carries results: %+v", p)
	}
	if p.DayOfWeek != nil || p.DayName != "" {
		t.Errorf("low confidence pattern has a weekday: %v %q", p.DayOfWeek, p.DayName)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "day_of_week") {
		t.Errorf("low confidence pattern serialized a weekday: %s", data)
	}
}

func TestAnalyzeHabitSufficient(t *testing.T) {
	var entries []models.HabitEntry
	for d := 4; d <= 10; d++ {
		entries = append(entries, entryAt(d, 8, 0, true))
	}
	a := New(constants.MinPatternEntries, fixedClock)

	p, err := a.AnalyzeHabit(habitWith(entries...))
	if err != nil {
		t.Fatalf("AnalyzeHabit() error = %v", err)
	}
	if !p.Sufficient() {
		t.Fatalf("expected sufficient pattern: %+v", p)
	}
	if math.Abs(p.Consistency-1) > 1e-9 {
		t.Errorf("Consistency = %v, want 1", p.Consistency)
	}
	if p.TimeOfDay != Morning {
		t.Errorf("TimeOfDay = %s, want morning", p.TimeOfDay)
	}
	// One completion per weekday: the tie goes to Sunday.
	if p.DayOfWeek == nil || *p.DayOfWeek != time.Sunday || p.DayName != "Sunday" {
		t.Errorf("DayOfWeek = %v (%s), want Sunday", p.DayOfWeek, p.DayName)
	}
	if p.PredictedSuccess != 1 {
		t.Errorf("PredictedSuccess = %v, want 1", p.PredictedSuccess)
	}
}

func TestAnalyzeHabitIgnoresUndoneCompletions(t *testing.T) {
	var entries []models.HabitEntry
	for d := 3; d <= 9; d++ {
		entries = append(entries, entryAt(d, 8, 0, true))
	}
	// Day 9 is toggled back off.
	entries = append(entries, entryAt(9, 21, 0, false))

	p, err := New(0, fixedClock).AnalyzeHabit(habitWith(entries...))
	if err != nil {
		t.Fatalf("AnalyzeHabit() error = %v", err)
	}
	if p.CompletedEntries != 6 || p.Sufficient() {
		t.Errorf("undone completion still counted: %+v", p)
	}
}

func TestAnalyzeHabitFromLogOnly(t *testing.T) {
	log := models.HabitLog{}
	for d := 1; d <= 7; d++ {
		log[time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat)] = true
	}
	h := models.Habit{ID: "legacy", Name: "Legacy", Log: log}

	p, err := New(0, fixedClock).AnalyzeHabit(h)
	if err != nil {
		t.Fatalf("AnalyzeHabit() error = %v", err)
	}
	if !p.Sufficient() {
		t.Fatalf("expected sufficient pattern from log: %+v", p)
	}
	// Rebuilt entries are backfilled, so there is no time-of-day signal.
	if p.TimeOfDay != "" {
		t.Errorf("TimeOfDay = %q, want empty for backfilled history", p.TimeOfDay)
	}
	// Jan 4..7 fall in the window ending Jan 10.
	if want := 4.0 / 7.0; math.Abs(p.PredictedSuccess-want) > 1e-9 {
		t.Errorf("PredictedSuccess = %v, want %v", p.PredictedSuccess, want)
	}
}

func TestAnalyzeAllSkipsFailingHabit(t *testing.T) {
	good := habitWith(entryAt(10, 8, 0, true))
	bad := models.Habit{
		ID:      "h2",
		Name:    "Broken",
		Entries: []models.HabitEntry{{HabitID: "someone-else", Timestamp: 1, Completed: true}},
	}
	zero := models.Habit{
		ID:      "h3",
		Name:    "Zero",
		Entries: []models.HabitEntry{{HabitID: "h3", Timestamp: 0, Completed: true}},
	}

	patterns := New(0, fixedClock).AnalyzeAll([]models.Habit{bad, good, zero})
	if len(patterns) != 1 {
		t.Fatalf("AnalyzeAll() returned %d patterns, want 1", len(patterns))
	}
	if patterns[0].HabitID != "h1" {
		t.Errorf("AnalyzeAll() kept %q, want h1", patterns[0].HabitID)
	}
}

func TestSummarize(t *testing.T) {
	var entries []models.HabitEntry
	for d := 1; d <= 10; d++ {
		entries = append(entries, entryAt(d, 9, 30, d > 5))
	}
	stats := New(0, fixedClock).Summarize(habitWith(entries...))

	if stats.TotalEntries != 10 || stats.TotalCompleted != 5 {
		t.Errorf("totals = %d/%d, want 10/5", stats.TotalEntries, stats.TotalCompleted)
	}
	if stats.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", stats.SuccessRate)
	}
	if stats.AverageCompletionTime != "09:30" {
		t.Errorf("AverageCompletionTime = %q, want 09:30", stats.AverageCompletionTime)
	}
	if stats.CurrentStreak != 5 || stats.LongestStreak != 5 {
		t.Errorf("streaks = %d/%d, want 5/5", stats.CurrentStreak, stats.LongestStreak)
	}
	if stats.LastCompletedAt == nil || stats.LastCompletedAt.Day() != 10 {
		t.Errorf("LastCompletedAt = %v, want Jan 10", stats.LastCompletedAt)
	}
	if stats.Trend != 1 {
		t.Errorf("Trend = %v, want 1", stats.Trend)
	}

	want := []string{
		"You're most successful at this habit on Sunday.",
		constants.ImprovingMessage,
	}
	if strings.Join(stats.Insights, "|") != strings.Join(want, "|") {
		t.Errorf("Insights = %q, want %q", stats.Insights, want)
	}
}

func TestSummarizeNotEnoughData(t *testing.T) {
	stats := New(0, fixedClock).Summarize(habitWith(entryAt(9, 7, 0, true), entryAt(10, 7, 0, true)))
	if len(stats.Insights) != 1 || stats.Insights[0] != constants.NoInsightDataMessage {
		t.Errorf("Insights = %q, want not-enough-data message", stats.Insights)
	}
	if stats.Trend != 0 {
		t.Errorf("Trend = %v, want 0 below the trend threshold", stats.Trend)
	}

	empty := New(0, fixedClock).Summarize(models.Habit{ID: "e", Name: "Empty"})
	if empty.SuccessRate != 0 || empty.AverageCompletionTime != "" || empty.LastCompletedAt != nil {
		t.Errorf("empty habit stats = %+v", empty)
	}
}

func TestAverageTime(t *testing.T) {
	tests := []struct {
		minutes []int
		want    string
	}{
		{nil, ""},
		{[]int{0, 59}, "00:30"},
		{[]int{8 * 60, 10 * 60}, "09:00"},
		{[]int{23*60 + 59}, "23:59"},
	}
	for _, tt := range tests {
		if got := AverageTime(tt.minutes); got != tt.want {
			t.Errorf("AverageTime(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestRiskSignals(t *testing.T) {
	habits := []models.Habit{
		{ID: "a", Name: "Run"},
		{ID: "b", Name: "Read"},
		{ID: "c", Name: "Stretch"},
		{ID: "d", Name: "Journal", ReminderTime: "07:15"},
	}
	patterns := []Pattern{
		{HabitID: "a", HabitName: "Run", Confidence: ConfidenceSufficient, TimeOfDay: Evening, PredictedSuccess: 0.2},
		{HabitID: "b", HabitName: "Read", Confidence: ConfidenceSufficient, TimeOfDay: Morning, PredictedSuccess: 0.9},
		{HabitID: "c", HabitName: "Stretch", Confidence: ConfidenceLow},
		{HabitID: "d", HabitName: "Journal", Confidence: ConfidenceSufficient, PredictedSuccess: 0.1},
	}

	signals := RiskSignals(habits, patterns, constants.DefaultRiskThreshold)
	if len(signals) != 2 {
		t.Fatalf("RiskSignals() returned %d signals, want 2: %+v", len(signals), signals)
	}
	if signals[0].HabitID != "a" || signals[0].SuggestedTime != "18:00" {
		t.Errorf("first signal = %+v, want Run at 18:00", signals[0])
	}
	if signals[0].Message != "Time to work on your habit: Run" {
		t.Errorf("Message = %q", signals[0].Message)
	}
	if signals[1].HabitID != "d" || signals[1].SuggestedTime != "07:15" {
		t.Errorf("second signal = %+v, want Journal at 07:15", signals[1])
	}
}
