// Package tracker composes storage, the streak and achievement engine, the
// pattern analyzer and the notifier into the operations every front end
// (CLI, TUI, HTTP) uses. All operations are serialized; the tracker is the
// single writer of its store.
package tracker

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/stats"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/streak"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

type Tracker struct {
	mu        sync.Mutex
	store     storage.Provider
	notifier  notifier.Notifier
	clock     func() time.Time
	validator *validation.Validator
}

type Option func(*Tracker)

// WithNotifier sets the collaborator that receives reminders and unlock notices.
func WithNotifier(n notifier.Notifier) Option {
	return func(t *Tracker) {
		t.notifier = n
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New returns a tracker over an already loaded store.
func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		notifier:  notifier.Nop{},
		clock:     time.Now,
		validator: validation.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewHabit is the input for AddHabit.
type NewHabit struct {
	Name         string           `json:"name" validate:"required,notblank,max=120"`
	Category     string           `json:"category" validate:"omitempty,category"`
	Frequency    models.Frequency `json:"frequency" validate:"omitempty,frequency"`
	ReminderTime string           `json:"reminder_time" validate:"omitempty,datetime=15:04"`
	Notes        string           `json:"notes" validate:"max=1000"`
}

// Result is returned by every mutation.
type Result struct {
	Stats         models.AggregateStats      `json:"stats"`
	Unlocked      []achievements.Achievement `json:"unlocked"`
	NewlyUnlocked []achievements.Achievement `json:"newly_unlocked"`
	Level         int                        `json:"level"`
}

// Summary is the aggregate view of the collection.
type Summary struct {
	Stats           models.AggregateStats      `json:"stats"`
	Unlocked        []achievements.Achievement `json:"unlocked"`
	Catalog         []achievements.Achievement `json:"catalog"`
	Level           int                        `json:"level"`
	NextLevelPoints int                        `json:"next_level_points"`
}

// Settings returns the persisted settings.
func (t *Tracker) Settings() (models.Settings, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings()
}

// UpdateSettings validates and persists s.
func (t *Tracker) UpdateSettings(s models.Settings) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.validator.ValidateSettings(s); err != nil {
		return err
	}
	return t.store.SaveSettings(s)
}

// Now returns the current time in the configured timezone.
func (t *Tracker) Now() (time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return time.Time{}, err
	}
	return t.now(s)
}

func (t *Tracker) settings() (models.Settings, error) {
	s, err := t.store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	models.ApplyDefaultSettings(&s)
	return s, nil
}

// now returns the current time in the user's configured timezone.
func (t *Tracker) now(s models.Settings) (time.Time, error) {
	loc, err := utils.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	return t.clock().In(loc), nil
}

// load reads every habit and refreshes cached streaks against today.
func (t *Tracker) load(now time.Time) ([]models.Habit, error) {
	habits, err := t.store.LoadHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	for i := range habits {
		streak.Recompute(&habits[i], now)
	}
	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

// find resolves a habit by id, then by name (case-insensitive).
func find(habits []models.Habit, idOrName string) (int, error) {
	for i, h := range habits {
		if h.ID == idOrName {
			return i, nil
		}
	}
	query := strings.ToLower(strings.TrimSpace(idOrName))
	for i, h := range habits {
		if strings.ToLower(h.Name) == query {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", errors.ErrHabitNotFound, idOrName)
}

// Habits returns every habit, oldest first, with fresh streaks.
func (t *Tracker) Habits() ([]models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return nil, err
	}
	now, err := t.now(s)
	if err != nil {
		return nil, err
	}
	return t.load(now)
}

// Habit returns a single habit by id or name.
func (t *Tracker) Habit(idOrName string) (models.Habit, error) {
	habits, err := t.Habits()
	if err != nil {
		return models.Habit{}, err
	}
	i, err := find(habits, idOrName)
	if err != nil {
		return models.Habit{}, err
	}
	return habits[i], nil
}

// AddHabit creates a habit with an empty log.
func (t *Tracker) AddHabit(input NewHabit) (models.Habit, Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	input.Name = strings.TrimSpace(input.Name)
	if err := t.validator.Struct(input); err != nil {
		return models.Habit{}, Result{}, fmt.Errorf("%w: %v", errors.ErrInvalidHabit, err)
	}

	s, err := t.settings()
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return models.Habit{}, Result{}, err
	}

	for _, h := range habits {
		if strings.EqualFold(h.Name, input.Name) {
			return models.Habit{}, Result{}, fmt.Errorf("%w: %s", errors.ErrDuplicateHabit, h.Name)
		}
	}

	freq := input.Frequency
	if freq == "" {
		freq = models.FrequencyDaily
	}
	h := models.Habit{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Category:     input.Category,
		Frequency:    freq,
		ReminderTime: input.ReminderTime,
		Notes:        input.Notes,
		Log:          models.HabitLog{},
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	habits = append(habits, h)

	res, err := t.commit(habits, s)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	logger.Info("Added habit", "habit_id", h.ID, "name", h.Name)
	return h, res, nil
}

// Toggle flips the completion of day (YYYY-MM-DD, empty for today) and
// records the change as an entry. Today's entries carry the current time;
// past days are backfilled at local noon.
func (t *Tracker) Toggle(idOrName, day string) (models.Habit, Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	today := utils.NormalizeKey(now)
	if day == "" {
		day = today
	}
	date, err := utils.ParseKey(day, now.Location())
	if err != nil {
		return models.Habit{}, Result{}, fmt.Errorf("%w: %q", errors.ErrInvalidDateKey, day)
	}
	if day > today {
		return models.Habit{}, Result{}, fmt.Errorf("%w: %s", errors.ErrFutureDay, day)
	}

	habits, err := t.load(now)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	i, err := find(habits, idOrName)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	h := &habits[i]

	log, err := habitlog.Toggle(h.Log, day)
	if err != nil {
		return models.Habit{}, Result{}, err
	}

	// Seed entries for habits that only have a log so the log stays a
	// projection of its entries.
	if len(h.Entries) == 0 && len(h.Log) > 0 {
		h.Entries = habitlog.ToEntries(h.ID, h.Log, now.Location())
	}

	completed := log[day]
	var entry models.HabitEntry
	if day == today {
		entry = models.HabitEntry{
			HabitID:   h.ID,
			Timestamp: now.UnixMilli(),
			Completed: completed,
		}
	} else {
		entry = habitlog.BackfillEntry(h.ID, date, completed)
	}
	entry.ID = uuid.NewString()
	h.Entries = append(h.Entries, entry)
	h.Log = log
	h.UpdatedAt = now.UTC()
	streak.Recompute(h, now)

	updated := *h
	res, err := t.commit(habits, s)
	if err != nil {
		return models.Habit{}, Result{}, err
	}
	logger.Debug("Toggled habit", "habit_id", updated.ID, "day", day, "completed", completed)
	return updated, res, nil
}

// Delete removes a habit and its history.
func (t *Tracker) Delete(idOrName string) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return Result{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return Result{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return Result{}, err
	}
	i, err := find(habits, idOrName)
	if err != nil {
		return Result{}, err
	}
	removed := habits[i]
	habits = append(habits[:i], habits[i+1:]...)

	res, err := t.commit(habits, s)
	if err != nil {
		return Result{}, err
	}
	logger.Info("Deleted habit", "habit_id", removed.ID, "name", removed.Name)
	return res, nil
}

// Summary returns aggregate stats, unlocked achievements and the level.
func (t *Tracker) Summary() (Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.settings()
	if err != nil {
		return Summary{}, err
	}
	now, err := t.now(s)
	if err != nil {
		return Summary{}, err
	}
	habits, err := t.load(now)
	if err != nil {
		return Summary{}, err
	}

	aggregate := stats.Compose(habits)
	level := achievements.Level(aggregate.Points)
	return Summary{
		Stats:           aggregate,
		Unlocked:        achievements.Evaluate(aggregate),
		Catalog:         achievements.Catalog(),
		Level:           level,
		NextLevelPoints: achievements.NextLevelPoints(level),
	}, nil
}

// commit persists habits, re-evaluates achievements over the whole
// collection and announces the ones that were not unlocked before.
func (t *Tracker) commit(habits []models.Habit, s models.Settings) (Result, error) {
	if err := t.store.SaveHabits(habits); err != nil {
		return Result{}, fmt.Errorf("failed to save habits: %w", err)
	}

	aggregate := stats.Compose(habits)
	unlocked := achievements.Evaluate(aggregate)

	previous, err := t.store.LoadAchievements()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load achievements: %w", err)
	}
	newly := achievements.NewlyUnlocked(previous, unlocked)
	if err := t.store.SaveAchievements(achievements.IDs(unlocked)); err != nil {
		return Result{}, fmt.Errorf("failed to save achievements: %w", err)
	}

	if s.NotificationsEnabled {
		for _, a := range newly {
			msg := fmt.Sprintf("Achievement Unlocked! %s %s: %s", a.Icon, a.Title, a.Description)
			if err := t.notifier.Notify(msg); err != nil {
				logger.Warn("Failed to send achievement notification", "achievement", a.ID, "error", err)
			}
		}
	}

	return Result{
		Stats:         aggregate,
		Unlocked:      unlocked,
		NewlyUnlocked: newly,
		Level:         achievements.Level(aggregate.Points),
	}, nil
}
