package sqlite

import (
	"database/sql"
	"fmt"
	"time"

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
		var freq, createdAt, updatedAt string
		if err := rows.Scan(&h.ID, &h.Name, &h.Category, &freq, &h.ReminderTime, &h.Notes,
			&h.CurrentStreak, &h.LongestStreak, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		h.Frequency = models.Frequency(freq)
		if h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
		}
		if h.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at for habit %s: %w", h.ID, err)
		}
		h.Log = models.HabitLog{}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadLogs(habits, index); err != nil {
		return nil, err
	}
	if err := s.loadEntries(habits, index); err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *Store) loadLogs(habits []models.Habit, index map[string]int) error {
	rows, err := s.db.Query("SELECT habit_id, day, completed FROM habit_log")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var habitID, day string
		var completed bool
		if err := rows.Scan(&habitID, &day, &completed); err != nil {
			return err
		}
		if i, ok := index[habitID]; ok && completed {
			habits[i].Log[day] = true
		}
	}
	return rows.Err()
}

func (s *Store) loadEntries(habits []models.Habit, index map[string]int) error {
	rows, err := s.db.Query(`
		SELECT habit_id, id, ts_ms, completed, mood, difficulty, note, backfilled
		FROM habit_entries ORDER BY habit_id, seq`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e models.HabitEntry
		if err := rows.Scan(&e.HabitID, &e.ID, &e.Timestamp, &e.Completed,
			&e.Mood, &e.Difficulty, &e.Note, &e.Backfilled); err != nil {
			return err
		}
		if i, ok := index[e.HabitID]; ok {
			habits[i].Entries = append(habits[i].Entries, e)
		}
	}
	return rows.Err()
}

// SaveHabits replaces every habit, log and entry in one transaction.
func (s *Store) SaveHabits(habits []models.Habit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"habit_entries", "habit_log", "habits"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	habitStmt, err := tx.Prepare(`
		INSERT INTO habits (id, position, name, category, frequency, reminder_time, notes,
		                    current_streak, longest_streak, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer habitStmt.Close()

	logStmt, err := tx.Prepare("INSERT INTO habit_log (habit_id, day, completed) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer logStmt.Close()

	entryStmt, err := tx.Prepare(`
		INSERT INTO habit_entries (habit_id, seq, id, ts_ms, completed, mood, difficulty, note, backfilled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	for pos, h := range habits {
		if _, err := habitStmt.Exec(h.ID, pos, h.Name, h.Category, string(h.Frequency), h.ReminderTime, h.Notes,
			h.CurrentStreak, h.LongestStreak, h.CreatedAt.Format(time.RFC3339Nano), h.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to save habit %s: %w", h.ID, err)
		}
		for day, completed := range h.Log {
			if !completed {
				continue
			}
			if _, err := logStmt.Exec(h.ID, day, true); err != nil {
				return fmt.Errorf("failed to save log for habit %s: %w", h.ID, err)
			}
		}
		for seq, e := range h.Entries {
			if _, err := entryStmt.Exec(h.ID, seq, e.ID, e.Timestamp, e.Completed,
				e.Mood, e.Difficulty, e.Note, e.Backfilled); err != nil {
				return fmt.Errorf("failed to save entry for habit %s: %w", h.ID, err)
			}
		}
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

// SaveAchievements replaces the unlocked set, keeping the original unlock
// time of ids that were already present.
func (s *Store) SaveAchievements(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	existing, err := existingAchievements(tx)
	if err != nil {
		return err
	}
	for _, id := range existing {
		if !keep[id] {
			if _, err := tx.Exec("DELETE FROM achievements WHERE id = ?", id); err != nil {
				return err
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range ids {
		if _, err := tx.Exec("INSERT INTO achievements (id, unlocked_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING", id, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func existingAchievements(tx *sql.Tx) ([]string, error) {
	rows, err := tx.Query("SELECT id FROM achievements")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
