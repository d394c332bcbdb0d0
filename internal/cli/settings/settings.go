package settings

import (
	"fmt"

	"github.com/julianstephens/habitlit/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone             *string  `help:"IANA timezone for day boundaries, or 'Local'."`
	RiskThreshold        *float64 `help:"Recent success rate (0-1) below which a habit is at risk."`
	NotificationsEnabled *bool    `help:"Enable or disable notifications."`
	ReminderLeadMin      *int     `help:"Minutes before the suggested time that reminders fire."`
	AnalysisMinEntries   *int     `help:"Completions required before patterns are reported."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Tracker.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:              %s\n", settings.Timezone)
		fmt.Printf("  Risk Threshold:        %.2f\n", settings.RiskThreshold)
		fmt.Printf("  Analysis Min Entries:  %d\n", settings.AnalysisMinEntries)
		fmt.Println("\nNotification Settings:")
		fmt.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)
		fmt.Printf("  Reminder Lead:         %d min\n", settings.ReminderLeadMin)
		return nil
	}

	updated := false
	if c.Timezone != nil {
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.RiskThreshold != nil {
		settings.RiskThreshold = *c.RiskThreshold
		updated = true
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}
	if c.ReminderLeadMin != nil {
		settings.ReminderLeadMin = *c.ReminderLeadMin
		updated = true
	}
	if c.AnalysisMinEntries != nil {
		settings.AnalysisMinEntries = *c.AnalysisMinEntries
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if err := ctx.Tracker.UpdateSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}
