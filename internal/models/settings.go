package models

// Settings represents application-wide settings
type Settings struct {
	// IANA timezone name (e.g. "America/New_York"), or "Local" for the system timezone.
	Timezone string `json:"timezone" validate:"tzname"`
	// Predicted success below which a habit is flagged as at risk.
	RiskThreshold float64 `json:"risk_threshold" validate:"gte=0,lte=1"`
	// Whether reminders and unlock notices are sent.
	NotificationsEnabled bool `json:"notifications_enabled"`
	// Minutes before the suggested time that reminders fire.
	ReminderLeadMin int `json:"reminder_lead_min" validate:"gte=0,lte=720"`
	// Completed entries required before a pattern is reported.
	AnalysisMinEntries int `json:"analysis_min_entries" validate:"gte=2,lte=365"`
}
