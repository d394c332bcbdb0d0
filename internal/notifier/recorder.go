package notifier

import (
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

// Reminder is a reminder captured by Recorder.
type Reminder struct {
	HabitID string
	At      time.Time
}

// Recorder keeps every notification in memory. Set Err to make every call fail.
type Recorder struct {
	mu        sync.Mutex
	Messages  []string
	Reminders []Reminder
	Err       error
}

var _ Notifier = (*Recorder)(nil)

func (r *Recorder) Notify(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, text)
	return nil
}

func (r *Recorder) ScheduleReminder(habit models.Habit, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Reminders = append(r.Reminders, Reminder{HabitID: habit.ID, At: at})
	return nil
}

// Nop drops every notification.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) Notify(string) error                            { return nil }
func (Nop) ScheduleReminder(models.Habit, time.Time) error { return nil }
