package constants

const (
	// Pattern analysis thresholds.
	// - MinPatternEntries is the number of completed entries required before a pattern is reported.
	// - PredictionWindowDays is the trailing window of calendar days used for predicted success.
	// - AfternoonStartHour and EveningStartHour split the day into morning/afternoon/evening buckets.
	MinPatternEntries    = 7
	PredictionWindowDays = 7
	AfternoonStartHour   = 12
	EveningStartHour     = 17

	// Habit stats thresholds
	MinInsightEntries     = 5   // completed entries required before insights are generated
	MinTrendEntries       = 10  // entries required before a trend is computed
	InsightSuccessRate    = 0.7 // success rate above which a weekday/time bucket is called out
	TrendImprovingDelta   = 0.1
	TrendStrugglingDelta  = -0.1
	NoInsightDataMessage  = "Not enough data to generate meaningful insights yet."
	BestDayMessageFormat  = "You're most successful at this habit on %s."
	BestTimeMessageFormat = "You tend to complete this habit most in the %s."
	ImprovingMessage      = "You're improving at maintaining this habit recently."
	StrugglingMessage     = "You've been struggling with this habit recently."
	ReminderMessageFormat = "Time to work on your habit: %s"

	// Level curve: level = floor(sqrt(points / LevelPointsDivisor)) + 1
	LevelPointsDivisor = 100

	// Suggested reminder times per time-of-day bucket
	MorningReminderTime   = "08:00"
	AfternoonReminderTime = "13:00"
	EveningReminderTime   = "18:00"
)

func init() {
	if AfternoonStartHour >= EveningStartHour {
		panic("AfternoonStartHour must be before EveningStartHour")
	}
	if TrendImprovingDelta <= 0 || TrendStrugglingDelta >= 0 {
		panic("trend deltas must straddle zero")
	}
}
