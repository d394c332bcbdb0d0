package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/analyzer"
	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/exporter"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/streak"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

// Analysis holds the pattern, stats and risk view of every habit.
type Analysis struct {
	Patterns []analyzer.Pattern    `json:"patterns"`
	Stats    []analyzer.HabitStats `json:"stats"`
	Risks    []analyzer.RiskSignal `json:"risks"`
}

// Analyze computes patterns and per-habit stats, and schedules a reminder
// for every at-risk habit at the next occurrence of its suggested time
// (less the configured lead). Reminder failures are logged and ignored.
func (t *Tracker) Analyze() (Analysis, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return Analysis{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return Analysis{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return Analysis{}, err
	}

	a := analyzer.New(s.AnalysisMinEntries, func() time.Time { return now })
	patterns := a.AnalyzeAll(habits)
	out := Analysis{
		Patterns: patterns,
		Stats:    a.SummarizeAll(habits),
		Risks:    analyzer.RiskSignals(habits, patterns, s.RiskThreshold),
	}

	if s.NotificationsEnabled {
		byID := make(map[string]models.Habit, len(habits))
		for _, h := range habits {
			byID[h.ID] = h
		}
		lead := time.Duration(s.ReminderLeadMin) * time.Minute
		for _, risk := range out.Risks {
			next, err := utils.NextOccurrence(now.Add(lead), risk.SuggestedTime)
			if err != nil {
				logger.Warn("Invalid suggested reminder time", "habit_id", risk.HabitID, "time", risk.SuggestedTime, "error", err)
				continue
			}
			if err := t.notifier.ScheduleReminder(byID[risk.HabitID], next.Add(-lead)); err != nil {
				logger.Warn("Failed to schedule reminder", "habit_id", risk.HabitID, "error", err)
			}
		}
	}

	return out, nil
}

// HabitStats summarizes one habit without scheduling anything.
func (t *Tracker) HabitStats(idOrName string) (analyzer.HabitStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return analyzer.HabitStats{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return analyzer.HabitStats{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return analyzer.HabitStats{}, err
	}
	i, err := find(habits, idOrName)
	if err != nil {
		return analyzer.HabitStats{}, err
	}
	return analyzer.New(s.AnalysisMinEntries, func() time.Time { return now }).Summarize(habits[i]), nil
}

// Export builds an export document of the whole collection.
func (t *Tracker) Export() (exporter.Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.export()
}

func (t *Tracker) export() (exporter.Document, error) {
	s, err := t.settings()
	if err != nil {
		return exporter.Document{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return exporter.Document{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return exporter.Document{}, err
	}
	unlocked, err := t.store.LoadAchievements()
	if err != nil {
		return exporter.Document{}, fmt.Errorf("failed to load achievements: %w", err)
	}
	return exporter.Build(habits, unlocked, now), nil
}

// Import reads an export document or a legacy habit list. Imported habits
// replace existing habits with the same id; with replace set, the existing
// collection is discarded first. A habit whose name collides with a
// different existing habit is skipped and reported.
func (t *Tracker) Import(data []byte, replace bool) (exporter.ImportReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return exporter.ImportReport{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return exporter.ImportReport{}, err
	}

	imported, report, err := exporter.Parse(data, now.Location(), now)
	if err != nil {
		return report, err
	}
	return t.merge(imported, report, replace, s, now)
}

func (t *Tracker) merge(imported []models.Habit, report exporter.ImportReport, replace bool, s models.Settings, now time.Time) (exporter.ImportReport, error) {
	var habits []models.Habit
	if !replace {
		existing, err := t.load(now)
		if err != nil {
			return report, err
		}
		habits = existing
	}

	index := make(map[string]int, len(habits))
	names := make(map[string]string, len(habits))
	for i, h := range habits {
		index[h.ID] = i
		names[strings.ToLower(h.Name)] = h.ID
	}

	kept := 0
	for _, h := range imported {
		if owner, ok := names[strings.ToLower(h.Name)]; ok && owner != h.ID {
			report.Skipped = append(report.Skipped, models.Diagnostic{HabitID: h.ID, Key: "name", Value: h.Name, Reason: "a different habit already has this name"})
			continue
		}
		if i, ok := index[h.ID]; ok {
			delete(names, strings.ToLower(habits[i].Name))
			habits[i] = h
		} else {
			index[h.ID] = len(habits)
			habits = append(habits, h)
		}
		names[strings.ToLower(h.Name)] = h.ID
		kept++
	}
	report.Habits = kept

	if _, err := t.commit(habits, s); err != nil {
		return report, err
	}
	logger.Info("Imported habits", "format", report.Format, "habits", kept, "skipped", len(report.Skipped))
	return report, nil
}

// Backup writes a snapshot of the collection through m.
func (t *Tracker) Backup(m *backup.Manager) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc, err := t.export()
	if err != nil {
		return "", err
	}
	return m.CreateBackup(doc)
}

// Restore replaces the collection with the snapshot at path. The current
// collection is snapshotted first.
func (t *Tracker) Restore(m *backup.Manager, path string) (exporter.ImportReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return exporter.ImportReport{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return exporter.ImportReport{}, err
	}
	current, err := t.export()
	if err != nil {
		return exporter.ImportReport{}, err
	}

	habits, report, err := m.RestoreBackup(path, current, now.Location())
	if err != nil {
		return report, err
	}
	return t.merge(habits, report, true, s, now)
}

// Validate checks the stored collection as it is, without refreshing
// cached streaks first.
func (t *Tracker) Validate() (validation.ValidationResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return validation.ValidationResult{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	habits, err := t.store.LoadHabits()
	if err != nil {
		return validation.ValidationResult{}, fmt.Errorf("failed to load habits: %w", err)
	}
	return t.validator.ValidateHabits(habits, now), nil
}

// Repair rebuilds every log from its entries and recomputes streaks, which
// resolves log_drift and stale_streak conflicts. It returns the number of
// habits that changed.
func (t *Tracker) Repair() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return 0, err
	}
	now, err := t.now(s)
	if err != nil {
		return 0, err
	}
	habits, err := t.store.LoadHabits()
	if err != nil {
		return 0, fmt.Errorf("failed to load habits: %w", err)
	}

	changed := 0
	for i := range habits {
		h := &habits[i]
		before := streak.Result{Current: h.CurrentStreak, Longest: h.LongestStreak}
		drifted := false
		if len(h.Entries) > 0 {
			if log := habitlog.FromEntries(h.Entries, now.Location()); !habitlog.Equal(log, h.Log) {
				h.Log = log
				drifted = true
			}
		}
		streak.Recompute(h, now)
		if drifted || before.Current != h.CurrentStreak || before.Longest != h.LongestStreak {
			h.UpdatedAt = now.UTC()
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if _, err := t.commit(habits, s); err != nil {
		return 0, err
	}
	return changed, nil
}
