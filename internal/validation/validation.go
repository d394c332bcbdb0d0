package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/julianstephens/habitlit/internal/habitlog"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/streak"
	"github.com/julianstephens/habitlit/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictDuplicateHabitID   ConflictType = "duplicate_habit_id"
	ConflictInvalidField       ConflictType = "invalid_field"
	ConflictUnknownCategory    ConflictType = "unknown_category"
	ConflictStaleStreak        ConflictType = "stale_streak"
	ConflictLogDrift           ConflictType = "log_drift"
)

// Conflict represents a problem detected in the habit collection
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Habit names involved
	HabitIDs    []string // IDs of habits involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Fixable reports whether every conflict can be repaired by recomputing
// derived fields.
func (vr *ValidationResult) Fixable() bool {
	for _, c := range vr.Conflicts {
		if c.Type != ConflictStaleStreak && c.Type != ConflictLogDrift {
			return false
		}
	}
	return true
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Error lists every field that failed validation.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return strings.Join(e.Fields, "; ")
}

// Validator wraps a go-playground validator with the habit-specific rules
// registered.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// The rules below are fixed; a registration failure is a programming error.
	must(v.RegisterValidation("notblank", validators.NotBlank))
	must(v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return models.Frequency(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := models.LookupCategory(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("tzname", func(fl validator.FieldLevel) bool {
		return utils.ValidateTimezone(fl.Field().String())
	}))

	return &Validator{validate: v}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates s against its `validate` tags. Field failures are
// returned as *Error with one readable message per field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{Fields: make([]string, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, describe(fe))
	}
	return out
}

// ValidateHabit checks a single habit's fields.
func (v *Validator) ValidateHabit(h models.Habit) error {
	return v.Struct(h)
}

// ValidateSettings checks persisted settings.
func (v *Validator) ValidateSettings(s models.Settings) error {
	return v.Struct(s)
}

// ValidateHabits checks the whole collection: field rules, duplicate names
// and ids, unknown categories, and derived fields that no longer match the
// log as of today.
func (v *Validator) ValidateHabits(habits []models.Habit, today time.Time) ValidationResult {
	var result ValidationResult

	byName := make(map[string][]models.Habit)
	byID := make(map[string][]models.Habit)
	for _, h := range habits {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		byName[key] = append(byName[key], h)
		byID[h.ID] = append(byID[h.ID], h)
	}

	for _, h := range habits {
		if err := v.ValidateHabit(h); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidField,
				Description: fmt.Sprintf("Habit %q is invalid: %v", h.Name, err),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		if h.Category != "" {
			if _, ok := models.LookupCategory(h.Category); !ok {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictUnknownCategory,
					Description: fmt.Sprintf("Habit %q uses unknown category %q", h.Name, h.Category),
					Items:       []string{h.Name},
					HabitIDs:    []string{h.ID},
				})
			}
		}

		if len(h.Entries) > 0 && !habitlog.Equal(h.Log, habitlog.FromEntries(h.Entries, today.Location())) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictLogDrift,
				Description: fmt.Sprintf("Habit %q has a log that does not match its entries", h.Name),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		if s := streak.Calculate(h.Log, today); s.Current != h.CurrentStreak || s.Longest != h.LongestStreak {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type: ConflictStaleStreak,
				Description: fmt.Sprintf("Habit %q caches streaks %d/%d but its log gives %d/%d",
					h.Name, h.CurrentStreak, h.LongestStreak, s.Current, s.Longest),
				Items:    []string{h.Name},
				HabitIDs: []string{h.ID},
			})
		}
	}

	seen := make(map[string]bool)
	for _, h := range habits {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if group := byName[key]; len(group) > 1 && !seen["name:"+key] {
			seen["name:"+key] = true
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("Duplicate habit name: %q (%d habits)", h.Name, len(group)),
				Items:       names(group),
				HabitIDs:    ids(group),
			})
		}
		if group := byID[h.ID]; len(group) > 1 && !seen["id:"+h.ID] {
			seen["id:"+h.ID] = true
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("Duplicate habit id: %s (%d habits)", h.ID, len(group)),
				Items:       names(group),
				HabitIDs:    ids(group),
			})
		}
	}

	return result
}

func names(habits []models.Habit) []string {
	out := make([]string, len(habits))
	for i, h := range habits {
		out[i] = h.Name
	}
	return out
}

func ids(habits []models.Habit) []string {
	out := make([]string, len(habits))
	for i, h := range habits {
		out[i] = h.ID
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return field + " must be a time in HH:MM format"
	case "frequency":
		return fmt.Sprintf("%s must be one of %s", field, frequencyList())
	case "category":
		return fmt.Sprintf("%s %q is not a known category", field, fe.Value())
	case "tzname":
		return fmt.Sprintf("%s %q is not a valid timezone", field, fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func frequencyList() string {
	parts := make([]string, len(models.Frequencies))
	for i, f := range models.Frequencies {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
