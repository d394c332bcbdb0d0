package habits

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Toggle HabitToggleCmd `cmd:"" help:"Toggle a habit for a day."`
	Today  HabitTodayCmd  `cmd:"" help:"Show today's habit status."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit's statistics and insights."`
	Log    HabitLogCmd    `cmd:"" help:"Show habit log (ASCII history)."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Category  string `help:"Category (see 'categories')." default:"productivity"`
	Frequency string `help:"Frequency: daily, hourly, weekly, every-15-minutes, custom." default:"daily"`
	Reminder  string `help:"Reminder time (HH:MM)."`
	Notes     string `help:"Free-form notes."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	habit, res, err := ctx.Tracker.AddHabit(tracker.NewHabit{
		Name:         c.Name,
		Category:     c.Category,
		Frequency:    models.Frequency(c.Frequency),
		ReminderTime: c.Reminder,
		Notes:        c.Notes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added habit: %s\n", habit.Name)
	cli.PrintUnlocked(res.NewlyUnlocked)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Tracker.Habits()
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		cat := models.CategoryFor(h.Category)
		fmt.Printf("%s %-24s %-16s streak %3d (best %d)\n", cat.Emoji, h.Name, h.Frequency, h.CurrentStreak, h.LongestStreak)
	}
	return nil
}

type HabitToggleCmd struct {
	Name string `arg:"" help:"Habit name or id."`
	Date string `help:"Day to toggle: YYYY-MM-DD, 'today' or 'yesterday' (default: today)." default:""`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	now, err := ctx.Tracker.Now()
	if err != nil {
		return err
	}
	day, err := resolveDay(c.Date, now)
	if err != nil {
		return err
	}

	habit, res, err := ctx.Tracker.Toggle(c.Name, day)
	if err != nil {
		return err
	}

	if day == "" {
		day = utils.NormalizeKey(now)
	}
	if habit.Log[day] {
		fmt.Printf("Marked habit %q for %s (streak %d)\n", habit.Name, day, habit.CurrentStreak)
	} else {
		fmt.Printf("Unmarked habit %q for %s (streak %d)\n", habit.Name, day, habit.CurrentStreak)
	}
	cli.PrintUnlocked(res.NewlyUnlocked)
	return nil
}

// resolveDay turns the --date value into a date key; empty means today.
func resolveDay(value string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return "", nil
	case "yesterday":
		return utils.NormalizeKey(now.AddDate(0, 0, -1)), nil
	}
	if !utils.ValidKey(value) {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", value)
	}
	return value, nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Tracker.Habits()
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	now, err := ctx.Tracker.Now()
	if err != nil {
		return err
	}

	today := utils.NormalizeKey(now)
	fmt.Printf("Habits for %s:\n\n", today)
	recorded := 0
	for _, h := range habits {
		status := "[ ]"
		if h.Log[today] {
			status = "[x]"
			recorded++
		}
		fmt.Printf("%s %s\n", status, h.Name)
	}
	fmt.Printf("\nRecorded: %d/%d\n", recorded, len(habits))
	return nil
}

type HabitShowCmd struct {
	Name string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Tracker.Habit(c.Name)
	if err != nil {
		return err
	}
	stats, err := ctx.Tracker.HabitStats(habit.ID)
	if err != nil {
		return err
	}

	cat := models.CategoryFor(habit.Category)
	fmt.Printf("%s %s\n", cat.Emoji, habit.Name)
	fmt.Printf("  ID:             %s\n", habit.ID)
	fmt.Printf("  Category:       %s\n", cat.Label)
	fmt.Printf("  Frequency:      %s\n", habit.Frequency)
	if habit.ReminderTime != "" {
		fmt.Printf("  Reminder:       %s\n", habit.ReminderTime)
	}
	if habit.Notes != "" {
		fmt.Printf("  Notes:          %s\n", habit.Notes)
	}
	fmt.Printf("  Current streak: %d\n", stats.CurrentStreak)
	fmt.Printf("  Longest streak: %d\n", stats.LongestStreak)
	fmt.Printf("  Entries:        %d (%d completed, %.0f%%)\n", stats.TotalEntries, stats.TotalCompleted, stats.SuccessRate)
	if stats.LastCompletedAt != nil {
		fmt.Printf("  Last completed: %s\n", stats.LastCompletedAt.Format("2006-01-02 15:04"))
	}
	if stats.AverageCompletionTime != "" {
		fmt.Printf("  Usual time:     %s\n", stats.AverageCompletionTime)
	}
	if len(stats.Insights) > 0 {
		fmt.Println("\nInsights:")
		for _, insight := range stats.Insights {
			fmt.Printf("  • %s\n", insight)
		}
	}
	return nil
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	var selected []models.Habit
	if c.Habit != "" {
		habit, err := ctx.Tracker.Habit(c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{habit}
	} else {
		habits, err := ctx.Tracker.Habits()
		if err != nil {
			return err
		}
		selected = habits
	}
	if len(selected) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	now, err := ctx.Tracker.Now()
	if err != nil {
		return err
	}
	fmt.Printf("Habit log (last %d days):\n\n", c.Days)
	fmt.Print(RenderLog(selected, now, c.Days))
	return nil
}

const logNameWidth = 20

// RenderLog draws one row per habit over the days ending at end: "x" for a
// completed day, "." otherwise.
func RenderLog(habits []models.Habit, end time.Time, days int) string {
	start := end.AddDate(0, 0, -(days - 1))
	var b strings.Builder

	b.WriteString(padName("Habit"))
	for i := 0; i < days; i++ {
		fmt.Fprintf(&b, " %5s", start.AddDate(0, 0, i).Format("01/02"))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", logNameWidth+6*days))
	b.WriteString("\n")

	for _, h := range habits {
		b.WriteString(padName(h.Name))
		for i := 0; i < days; i++ {
			if h.Log[start.AddDate(0, 0, i).Format(constants.DateFormat)] {
				b.WriteString("  x   ")
			} else {
				b.WriteString("  .   ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func padName(name string) string {
	r := []rune(name)
	if len(r) > logNameWidth {
		return string(r[:logNameWidth-3]) + "..."
	}
	return name + strings.Repeat(" ", logNameWidth-len(r))
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name or id to delete."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

// confirmDelete asks before a habit's history is discarded.
var confirmDelete = func(name string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %q and its whole history?", name)).
		Description("This cannot be undone. Backups are not affected.").
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Tracker.Habit(c.Name)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirmDelete(habit.Name)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	if _, err := ctx.Tracker.Delete(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}
