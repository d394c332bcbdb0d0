package postgres

import (
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitlit/internal/models"
)

func (s *Store) LoadHabits() ([]models.Habit, error) {
	rows, err := s.db.Query(`
		SELECT id, name, category, frequency, reminder_time, notes,
		       current_streak, longest_streak, created_at, updated_at
		FROM habits ORDER BY position, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	index := make(map[string]int)
	for rows.Next() {
		var h models.Habit
		var freq string
		if err := rows.Scan(&h.ID, &h.Name, &h.Category, &freq, &h.ReminderTime, &h.Notes,
			&h.CurrentStreak, &h.LongestStreak, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.Frequency = models.Frequency(freq)
		h.Log = models.HabitLog{}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logRows, err := s.db.Query("SELECT habit_id, day FROM habit_log WHERE completed")
	if err != nil {
		return nil, err
	}
	defer logRows.Close()
	for logRows.Next() {
		var habitID, day string
		if err := logRows.Scan(&habitID, &day); err != nil {
			return nil, err
		}
		if i, ok := index[habitID]; ok {
			habits[i].Log[day] = true
		}
	}
	if err := logRows.Err(); err != nil {
		return nil, err
	}

	entryRows, err := s.db.Query(`
		SELECT habit_id, id, ts_ms, completed, mood, difficulty, note, backfilled
		FROM habit_entries ORDER BY habit_id, seq`)
	if err != nil {
		return nil, err
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var e models.HabitEntry
		if err := entryRows.Scan(&e.HabitID, &e.ID, &e.Timestamp, &e.Completed,
			&e.Mood, &e.Difficulty, &e.Note, &e.Backfilled); err != nil {
			return nil, err
		}
		if i, ok := index[e.HabitID]; ok {
			habits[i].Entries = append(habits[i].Entries, e)
		}
	}
	return habits, entryRows.Err()
}

// SaveHabits replaces the whole collection in one transaction. Rows are
// bulk-loaded with COPY.
func (s *Store) SaveHabits(habits []models.Habit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Cascades to habit_log and habit_entries.
	if _, err := tx.Exec("DELETE FROM habits"); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}

	habitStmt, err := tx.Prepare(pq.CopyIn("habits",
		"id", "position", "name", "category", "frequency", "reminder_time", "notes",
		"current_streak", "longest_streak", "created_at", "updated_at"))
	if err != nil {
		return err
	}
	for pos, h := range habits {
		if _, err := habitStmt.Exec(h.ID, pos, h.Name, h.Category, string(h.Frequency), h.ReminderTime, h.Notes,
			h.CurrentStreak, h.LongestStreak, h.CreatedAt.UTC(), h.UpdatedAt.UTC()); err != nil {
			habitStmt.Close()
			return fmt.Errorf("failed to save habit %s: %w", h.ID, err)
		}
	}
	if _, err := habitStmt.Exec(); err != nil {
		habitStmt.Close()
		return fmt.Errorf("failed to flush habits: %w", err)
	}
	if err := habitStmt.Close(); err != nil {
		return err
	}

	logStmt, err := tx.Prepare(pq.CopyIn("habit_log", "habit_id", "day", "completed"))
	if err != nil {
		return err
	}
	for _, h := range habits {
		for day, completed := range h.Log {
			if !completed {
				continue
			}
			if _, err := logStmt.Exec(h.ID, day, true); err != nil {
				logStmt.Close()
				return fmt.Errorf("failed to save log for habit %s: %w", h.ID, err)
			}
		}
	}
	if _, err := logStmt.Exec(); err != nil {
		logStmt.Close()
		return fmt.Errorf("failed to flush habit log: %w", err)
	}
	if err := logStmt.Close(); err != nil {
		return err
	}

	entryStmt, err := tx.Prepare(pq.CopyIn("habit_entries",
		"habit_id", "seq", "id", "ts_ms", "completed", "mood", "difficulty", "note", "backfilled"))
	if err != nil {
		return err
	}
	for _, h := range habits {
		for seq, e := range h.Entries {
			if _, err := entryStmt.Exec(h.ID, seq, e.ID, e.Timestamp, e.Completed,
				e.Mood, e.Difficulty, e.Note, e.Backfilled); err != nil {
				entryStmt.Close()
				return fmt.Errorf("failed to save entry for habit %s: %w", h.ID, err)
			}
		}
	}
	if _, err := entryStmt.Exec(); err != nil {
		entryStmt.Close()
		return fmt.Errorf("failed to flush habit entries: %w", err)
	}
	if err := entryStmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) LoadAchievements() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM achievements ORDER BY unlocked_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveAchievements replaces the unlocked set, keeping the unlock time of ids
// that were already present.
func (s *Store) SaveAchievements(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM achievements WHERE NOT (id = ANY($1))", pq.Array(ids)); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := tx.Exec("INSERT INTO achievements (id, unlocked_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", id, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}
