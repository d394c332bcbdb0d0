package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/tui/components/habitlist"
	"github.com/julianstephens/habitlit/internal/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Tabs, status line and help take four rows; docStyle margins take the rest.
		h, v := docStyle.GetFrameSize()
		m.habitList.SetSize(msg.Width-h, msg.Height-v-4)
		m.summary.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m, m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m, m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{
			Category:  models.DefaultCategory,
			Frequency: models.FrequencyDaily,
		}
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.ToggleHabitMsg:
		m.toggle(msg.ID)
		return m, nil

	case habitlist.DeleteHabitMsg:
		m.habitToDelete = msg
		m.state = StateConfirmDelete
		return m, nil

	case tea.KeyMsg:
		if m.state == StateHabits && m.habitList.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateHabits:
		m.habitList, cmd = m.habitList.Update(msg)
	case StateStats:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggle(id string) {
	habit, res, err := m.tracker.Toggle(id, "")
	if err != nil {
		m.setError(err)
		return
	}
	m.err = nil
	m.refresh()

	now, _ := m.tracker.Now()
	if habit.Log[utils.NormalizeKey(now)] {
		m.status = fmt.Sprintf("✓ %s done today (🔥 %d)", habit.Name, habit.CurrentStreak)
	} else {
		m.status = fmt.Sprintf("○ %s unmarked for today", habit.Name)
	}
	m.status += unlockedSuffix(res.NewlyUnlocked)
}

func (m *Model) updateAddHabit(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.createHabit()
		m.state = StateHabits
	case huh.StateAborted:
		m.state = StateHabits
	}
	return cmd
}

// createHabit adds the habit described by the form.
func (m *Model) createHabit() {
	fm := m.habitForm
	habit, res, err := m.tracker.AddHabit(tracker.NewHabit{
		Name:         fm.Name,
		Category:     fm.Category,
		Frequency:    fm.Frequency,
		ReminderTime: strings.TrimSpace(fm.Reminder),
		Notes:        fm.Notes,
	})
	if err != nil {
		m.setError(err)
		return
	}
	m.err = nil
	m.refresh()
	m.status = fmt.Sprintf("Added habit: %s", habit.Name) + unlockedSuffix(res.NewlyUnlocked)
}

func (m *Model) updateConfirmDelete(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if _, err := m.tracker.Delete(m.habitToDelete.ID); err != nil {
			m.setError(err)
		} else {
			m.err = nil
			m.refresh()
			m.status = fmt.Sprintf("Deleted habit: %s", m.habitToDelete.Name)
		}
		m.habitToDelete = habitlist.DeleteHabitMsg{}
		m.state = StateHabits
	case "n", "N", "esc":
		m.habitToDelete = habitlist.DeleteHabitMsg{}
		m.state = StateHabits
	}
	return nil
}

func (m *Model) setError(err error) {
	logger.Warn("TUI action failed", "error", err)
	m.err = err
	m.status = ""
}

func unlockedSuffix(unlocked []achievements.Achievement) string {
	if len(unlocked) == 0 {
		return ""
	}
	titles := make([]string, len(unlocked))
	for i, a := range unlocked {
		titles[i] = a.Icon + " " + a.Title
	}
	return " | 🏆 " + strings.Join(titles, ", ")
}
