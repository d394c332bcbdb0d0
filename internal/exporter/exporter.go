package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/stats"
	"github.com/julianstephens/habitlit/internal/streak"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Document is the versioned export format.
type Document struct {
	Version      int                   `json:"version"`
	ExportedAt   time.Time             `json:"exported_at"`
	Habits       []models.Habit        `json:"habits"`
	Stats        models.AggregateStats `json:"stats"`
	Achievements []string              `json:"achievements"`
	Level        int                   `json:"level"`
}

// Format names the layout an import was read from.
type Format string

const (
	FormatDocument Format = "document"
	FormatLegacy   Format = "legacy"
)

// ImportReport describes what an import kept and what it skipped.
type ImportReport struct {
	Format         Format              `json:"format"`
	Habits         int                 `json:"habits"`
	RebuiltEntries int                 `json:"rebuilt_entries"`
	Skipped        []models.Diagnostic `json:"skipped,omitempty"`
}

// Build assembles an export document. Stats and level are derived from
// habits so they always agree with the exported collection.
func Build(habits []models.Habit, unlocked []string, now time.Time) Document {
	if habits == nil {
		habits = []models.Habit{}
	}
	if unlocked == nil {
		unlocked = []string{}
	}
	aggregate := stats.Compose(habits)
	return Document{
		Version:      constants.ExportVersion,
		ExportedAt:   now.UTC(),
		Habits:       habits,
		Stats:        aggregate,
		Achievements: unlocked,
		Level:        achievements.Level(aggregate.Points),
	}
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes doc to path through a temporary file.
func WriteFile(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// rawHabit accepts both the export layout and the legacy array layout,
// which uses camelCase keys and carries no entries.
type rawHabit struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Category           string              `json:"category"`
	Frequency          string              `json:"frequency"`
	ReminderTime       string              `json:"reminder_time"`
	LegacyReminderTime string              `json:"reminderTime"`
	Notes              string              `json:"notes"`
	Logs               map[string]any      `json:"logs"`
	Entries            []models.HabitEntry `json:"entries"`
	CreatedAt          string              `json:"created_at"`
	LegacyCreatedAt    string              `json:"createdAt"`
}

type rawDocument struct {
	Version      int        `json:"version"`
	Habits       []rawHabit `json:"habits"`
	Achievements []string   `json:"achievements"`
}

// Parse decodes an export document or a legacy habit array. Malformed
// pieces are skipped and reported; only an undecodable payload fails.
// Habits without entries get entries rebuilt from their log, stamped in loc.
func Parse(data []byte, loc *time.Location, now time.Time) ([]models.Habit, ImportReport, error) {
	var report ImportReport
	var raws []rawHabit

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, report, fmt.Errorf("import is empty")
	case trimmed[0] == '[':
		report.Format = FormatLegacy
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, report, fmt.Errorf("failed to decode legacy habit list: %w", err)
		}
	case trimmed[0] == '{':
		report.Format = FormatDocument
		var doc rawDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, report, fmt.Errorf("failed to decode export document: %w", err)
		}
		if doc.Version < 1 {
			return nil, report, fmt.Errorf("not a %s export: missing version", constants.AppName)
		}
		if doc.Version > constants.ExportVersion {
			return nil, report, fmt.Errorf("export version %d is newer than supported version %d", doc.Version, constants.ExportVersion)
		}
		raws = doc.Habits
	default:
		return nil, report, fmt.Errorf("import must be a JSON object or array")
	}

	habits := make([]models.Habit, 0, len(raws))
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	for _, raw := range raws {
		h, diags, ok := convert(raw, loc, now)
		report.Skipped = append(report.Skipped, diags...)
		if !ok {
			continue
		}
		if seenIDs[h.ID] {
			report.Skipped = append(report.Skipped, models.Diagnostic{HabitID: h.ID, Key: "id", Reason: "duplicate habit id"})
			continue
		}
		folded := strings.ToLower(h.Name)
		if seenNames[folded] {
			report.Skipped = append(report.Skipped, models.Diagnostic{HabitID: h.ID, Key: "name", Value: h.Name, Reason: "duplicate habit name"})
			continue
		}
		seenIDs[h.ID] = true
		seenNames[folded] = true

		if len(raw.Entries) == 0 {
			report.RebuiltEntries += len(h.Entries)
		}
		habits = append(habits, h)
	}
	report.Habits = len(habits)
	return habits, report, nil
}

// ReadFile parses the import at path.
func ReadFile(path string, loc *time.Location, now time.Time) ([]models.Habit, ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ImportReport{}, fmt.Errorf("failed to read import: %w", err)
	}
	return Parse(data, loc, now)
}

func convert(raw rawHabit, loc *time.Location, now time.Time) (models.Habit, []models.Diagnostic, bool) {
	var diags []models.Diagnostic

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = uuid.NewString()
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return models.Habit{}, []models.Diagnostic{{HabitID: id, Key: "name", Reason: "habit has no name"}}, false
	}

	h := models.Habit{
		ID:        id,
		Name:      name,
		Category:  raw.Category,
		Frequency: models.Frequency(raw.Frequency),
		Notes:     raw.Notes,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}

	if h.Frequency == "" {
		h.Frequency = models.FrequencyDaily
	} else if !h.Frequency.Valid() {
		diags = append(diags, models.Diagnostic{HabitID: id, Key: "frequency", Value: raw.Frequency, Reason: "unknown frequency, using daily"})
		h.Frequency = models.FrequencyDaily
	}

	reminder := raw.ReminderTime
	if reminder == "" {
		reminder = raw.LegacyReminderTime
	}
	if reminder != "" {
		if utils.ValidateTimeFormat(reminder) {
			h.ReminderTime = reminder
		} else {
			diags = append(diags, models.Diagnostic{HabitID: id, Key: "reminder_time", Value: reminder, Reason: "not a HH:MM time"})
		}
	}

	created := raw.CreatedAt
	if created == "" {
		created = raw.LegacyCreatedAt
	}
	if created != "" {
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			h.CreatedAt = t.UTC()
		} else {
			diags = append(diags, models.Diagnostic{HabitID: id, Key: "created_at", Value: created, Reason: "not an RFC 3339 timestamp"})
		}
	}

	log, logDiags := habitlog.Parse(id, raw.Logs)
	diags = append(diags, logDiags...)

	if len(raw.Entries) > 0 {
		for _, e := range raw.Entries {
			if e.Timestamp <= 0 {
				diags = append(diags, models.Diagnostic{HabitID: id, Key: "entries", Value: e.ID, Reason: "entry has no timestamp"})
				continue
			}
			e.HabitID = id
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			h.Entries = append(h.Entries, e)
		}
		// Entries are the record of truth; the log is their projection.
		h.Log = habitlog.FromEntries(h.Entries, loc)
	} else {
		h.Log = log
		h.Entries = habitlog.ToEntries(id, log, loc)
	}

	streak.Recompute(&h, now.In(loc))
	return h, diags, true
}
