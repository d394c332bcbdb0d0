package constants

const (
	SettingTimezone             = "timezone"
	SettingRiskThreshold        = "risk_threshold"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingReminderLeadMin      = "reminder_lead_min"
	SettingAnalysisMinEntries   = "analysis_min_entries"

	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultRiskThreshold        = 0.5
	DefaultNotificationsEnabled = true
	DefaultReminderLeadMin      = 0
	DefaultAnalysisMinEntries   = MinPatternEntries
)
