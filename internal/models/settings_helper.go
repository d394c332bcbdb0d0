package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/habitlit/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingRiskThreshold:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing risk_threshold: %w", err)
			}
			settings.RiskThreshold = f
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingReminderLeadMin:
			if _, err := fmt.Sscanf(value, "%d", &settings.ReminderLeadMin); err != nil {
				return Settings{}, fmt.Errorf("parsing reminder_lead_min: %w", err)
			}
		case constants.SettingAnalysisMinEntries:
			if _, err := fmt.Sscanf(value, "%d", &settings.AnalysisMinEntries); err != nil {
				return Settings{}, fmt.Errorf("parsing analysis_min_entries: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingRiskThreshold:        strconv.FormatFloat(settings.RiskThreshold, 'f', -1, 64),
		constants.SettingNotificationsEnabled: fmt.Sprintf("%v", settings.NotificationsEnabled),
		constants.SettingReminderLeadMin:      fmt.Sprintf("%d", settings.ReminderLeadMin),
		constants.SettingAnalysisMinEntries:   fmt.Sprintf("%d", settings.AnalysisMinEntries),
	}
}

// DefaultSettings returns the settings a fresh store is initialized with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		RiskThreshold:        constants.DefaultRiskThreshold,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		ReminderLeadMin:      constants.DefaultReminderLeadMin,
		AnalysisMinEntries:   constants.DefaultAnalysisMinEntries,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
// NotificationsEnabled has no "missing" state and is left untouched.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.RiskThreshold == 0 {
		settings.RiskThreshold = constants.DefaultRiskThreshold
	}
	if settings.AnalysisMinEntries == 0 {
		settings.AnalysisMinEntries = constants.DefaultAnalysisMinEntries
	}
}
