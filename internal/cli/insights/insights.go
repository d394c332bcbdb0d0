package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	unlockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	riskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

const progressWidth = 20

type StatsCmd struct {
	JSON bool `help:"Print the summary as JSON."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	summary, err := ctx.Tracker.Summary()
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(summary)
	}
	fmt.Print(RenderStats(summary))
	return nil
}

// RenderStats formats the aggregate stats and level progress.
func RenderStats(s tracker.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Habit Stats") + "\n\n")
	fmt.Fprintf(&b, "  Habits:            %d (%d active)\n", s.Stats.TotalHabits, s.Stats.ActiveHabits)
	fmt.Fprintf(&b, "  Longest streak:    %d days\n", s.Stats.LongestStreak)
	fmt.Fprintf(&b, "  Total completions: %d\n", s.Stats.TotalCompletions)
	fmt.Fprintf(&b, "  Points:            %d\n", s.Stats.Points)
	fmt.Fprintf(&b, "  Level:             %d %s %d/%d\n", s.Level, progressBar(s.Stats.Points, s.NextLevelPoints), s.Stats.Points, s.NextLevelPoints)
	fmt.Fprintf(&b, "  Achievements:      %d/%d\n", len(s.Unlocked), len(s.Catalog))
	return b.String()
}

func progressBar(points, next int) string {
	filled := 0
	if next > 0 {
		filled = points * progressWidth / next
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled) + "]"
}

type AchievementsCmd struct {
	Unlocked bool `help:"Only show unlocked achievements."`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	summary, err := ctx.Tracker.Summary()
	if err != nil {
		return err
	}
	fmt.Print(RenderAchievements(summary, c.Unlocked))
	return nil
}

// RenderAchievements lists the catalog with each achievement's lock state.
func RenderAchievements(s tracker.Summary, unlockedOnly bool) string {
	unlocked := make(map[string]bool, len(s.Unlocked))
	for _, a := range s.Unlocked {
		unlocked[a.ID] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d/%d, level %d)\n\n", titleStyle.Render("Achievements"), len(s.Unlocked), len(s.Catalog), s.Level)
	for _, a := range s.Catalog {
		if unlocked[a.ID] {
			b.WriteString(unlockedStyle.Render(fmt.Sprintf("  ✓ %s %-18s %s (%d pts)", a.Icon, a.Title, a.Description, a.Points)) + "\n")
		} else if !unlockedOnly {
			b.WriteString(lockedStyle.Render(fmt.Sprintf("  · %s %-18s %s (%d pts)", a.Icon, a.Title, a.Description, a.Points)) + "\n")
		}
	}
	return b.String()
}

type AnalyzeCmd struct {
	JSON bool `help:"Print the analysis as JSON."`
}

func (c *AnalyzeCmd) Run(ctx *cli.Context) error {
	analysis, err := ctx.Tracker.Analyze()
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(analysis)
	}
	fmt.Print(RenderAnalysis(analysis))
	return nil
}

// RenderAnalysis formats patterns, per-habit insights and risk signals.
func RenderAnalysis(a tracker.Analysis) string {
	if len(a.Patterns) == 0 {
		return "No habits to analyze.\n"
	}

	stats := make(map[string][]string, len(a.Stats))
	for _, s := range a.Stats {
		stats[s.HabitID] = s.Insights
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Patterns") + "\n")
	for _, p := range a.Patterns {
		fmt.Fprintf(&b, "\n%s\n", p.HabitName)
		if !p.Sufficient() {
			fmt.Fprintf(&b, "  Not enough data yet (%d completions)\n", p.CompletedEntries)
		} else {
			fmt.Fprintf(&b, "  Best time:   %s\n", p.TimeOfDay)
			fmt.Fprintf(&b, "  Best day:    %s\n", p.DayName)
			fmt.Fprintf(&b, "  Consistency: %.0f%%\n", p.Consistency*100)
			fmt.Fprintf(&b, "  Last 7 days: %.0f%%\n", p.PredictedSuccess*100)
		}
		for _, insight := range stats[p.HabitID] {
			fmt.Fprintf(&b, "  • %s\n", insight)
		}
	}

	if len(a.Risks) > 0 {
		b.WriteString("\n" + riskStyle.Render("At risk") + "\n")
		for _, r := range a.Risks {
			fmt.Fprintf(&b, "  ⚠ %s: %.0f%% recent success, reminder suggested at %s\n", r.HabitName, r.PredictedSuccess*100, r.SuggestedTime)
		}
	}
	return b.String()
}

type CategoriesCmd struct{}

func (c *CategoriesCmd) Run(ctx *cli.Context) error {
	for _, cat := range models.Categories {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(cat.Color))
		fmt.Printf("%s %s %s\n", cat.Emoji, style.Render(fmt.Sprintf("%-22s", cat.Label)), cat.Value)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
