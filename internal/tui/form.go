package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// NewHabitForm creates the form for adding a habit.
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	categories := make([]huh.Option[string], len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = huh.NewOption(c.Emoji+" "+c.Label, c.Value)
	}
	frequencies := make([]huh.Option[models.Frequency], len(models.Frequencies))
	for i, f := range models.Frequencies {
		frequencies[i] = huh.NewOption(string(f), f)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Category").
				Options(categories...).
				Value(&fm.Category),
			huh.NewSelect[models.Frequency]().
				Title("Frequency").
				Options(frequencies...).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Description("Leave empty for no reminder").
				Value(&fm.Reminder).
				Validate(func(s string) error {
					if s = strings.TrimSpace(s); s != "" && !utils.ValidateTimeFormat(s) {
						return fmt.Errorf("reminder must be in HH:MM format")
					}
					return nil
				}),
			huh.NewText().
				Title("Notes").
				Value(&fm.Notes),
		),
	).WithTheme(huh.ThemeDracula())
}
