// Package habitlog holds the date-keyed completion log primitives and the
// conversions between a habit's timestamped entries and its log.
package habitlog

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// entryNamespace seeds deterministic ids for entries rebuilt from a log.
var entryNamespace = uuid.MustParse("8f0c6c1e-6f54-4d55-9a59-3a4bde1c2a11")

// Toggle returns a copy of log with the flag at key flipped. A completed day
// is removed; anything else becomes completed. The input is never modified.
func Toggle(log models.HabitLog, key string) (models.HabitLog, error) {
	if !utils.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidDateKey, key)
	}
	out := log.Clone()
	if out[key] {
		delete(out, key)
	} else {
		out[key] = true
	}
	return out, nil
}

// FromEntries projects entries onto a log. Entries are bucketed by their
// local calendar day in loc and the last entry in slice order wins.
func FromEntries(entries []models.HabitEntry, loc *time.Location) models.HabitLog {
	if loc == nil {
		loc = time.Local
	}
	out := make(models.HabitLog)
	for _, e := range entries {
		key := utils.NormalizeKey(e.Time(loc))
		if e.Completed {
			out[key] = true
		} else {
			delete(out, key)
		}
	}
	return out
}

// ToEntries rebuilds one backfilled entry per completed day, stamped at
// local noon. Ids are derived from the habit id and key, so rebuilding the
// same log twice yields identical entries.
func ToEntries(habitID string, log models.HabitLog, loc *time.Location) []models.HabitEntry {
	if loc == nil {
		loc = time.Local
	}
	keys := CompletedKeys(log)
	entries := make([]models.HabitEntry, 0, len(keys))
	for _, key := range keys {
		day, err := utils.ParseKey(key, loc)
		if err != nil {
			continue
		}
		entries = append(entries, BackfillEntry(habitID, day, true))
	}
	return entries
}

// BackfillEntry returns an entry for day stamped at BackfillHour local time.
func BackfillEntry(habitID string, day time.Time, completed bool) models.HabitEntry {
	y, m, d := day.Date()
	ts := time.Date(y, m, d, constants.BackfillHour, 0, 0, 0, day.Location())
	return models.HabitEntry{
		ID:         uuid.NewSHA1(entryNamespace, []byte(habitID+"/"+utils.NormalizeKey(ts))).String(),
		HabitID:    habitID,
		Timestamp:  ts.UnixMilli(),
		Completed:  completed,
		Backfilled: true,
	}
}

// Parse cleans a raw decoded log. Entries whose key is not a canonical date
// or whose value is not a boolean are skipped and reported; the rest of
// the log is kept. False values are dropped since absence means the same.
func Parse(habitID string, raw map[string]any) (models.HabitLog, []models.Diagnostic) {
	out := make(models.HabitLog, len(raw))
	var diags []models.Diagnostic

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if !utils.ValidKey(key) {
			diags = append(diags, models.Diagnostic{
				HabitID: habitID,
				Key:     key,
				Value:   fmt.Sprint(value),
				Reason:  "unparseable date key",
			})
			continue
		}
		done, ok := value.(bool)
		if !ok {
			diags = append(diags, models.Diagnostic{
				HabitID: habitID,
				Key:     key,
				Value:   fmt.Sprint(value),
				Reason:  fmt.Sprintf("non-boolean value of type %T", value),
			})
			continue
		}
		if done {
			out[key] = true
		}
	}
	return out, diags
}

// CompletedKeys returns the valid keys with a true flag, oldest first.
func CompletedKeys(log models.HabitLog) []string {
	keys := make([]string, 0, len(log))
	for k, done := range log {
		if done && utils.ValidKey(k) {
			keys = append(keys, k)
		}
	}
	// Canonical keys sort chronologically as strings.
	sort.Strings(keys)
	return keys
}

// Completions counts the true entries in log.
func Completions(log models.HabitLog) int {
	n := 0
	for _, done := range log {
		if done {
			n++
		}
	}
	return n
}

// Equal reports whether two logs mark the same days completed.
func Equal(a, b models.HabitLog) bool {
	if Completions(a) != Completions(b) {
		return false
	}
	for k, done := range a {
		if done && !b[k] {
			return false
		}
	}
	return true
}
