package analyzer

import (
	"fmt"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// RiskSignal flags a habit whose recent completion rate is below threshold.
// It is only a signal; delivery belongs to the notifier.
type RiskSignal struct {
	HabitID          string  `json:"habit_id"`
	HabitName        string  `json:"habit_name"`
	PredictedSuccess float64 `json:"predicted_success"`
	SuggestedTime    string  `json:"suggested_time"`
	Message          string  `json:"message"`
}

// RiskSignals returns a signal for every sufficient pattern whose predicted
// success is below threshold. The suggested time follows the habit's best
// time of day, then its own reminder time, then the morning default.
func RiskSignals(habits []models.Habit, patterns []Pattern, threshold float64) []RiskSignal {
	byID := make(map[string]models.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	var signals []RiskSignal
	for _, p := range patterns {
		if !p.Sufficient() || p.PredictedSuccess >= threshold {
			continue
		}
		at := p.TimeOfDay.ReminderTime()
		if at == "" {
			at = byID[p.HabitID].ReminderTime
		}
		if at == "" {
			at = constants.MorningReminderTime
		}
		signals = append(signals, RiskSignal{
			HabitID:          p.HabitID,
			HabitName:        p.HabitName,
			PredictedSuccess: p.PredictedSuccess,
			SuggestedTime:    at,
			Message:          fmt.Sprintf(constants.ReminderMessageFormat, p.HabitName),
		})
	}
	return signals
}
