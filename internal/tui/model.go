package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/tui/components/habitlist"
	"github.com/julianstephens/habitlit/internal/tui/components/summary"
	"github.com/julianstephens/habitlit/internal/utils"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateStats
	StateAddHabit
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 2

type HabitFormModel struct {
	Name      string
	Category  string
	Frequency models.Frequency
	Reminder  string
	Notes     string
}

type Model struct {
	tracker       *tracker.Tracker
	state         SessionState
	keys          KeyMap
	help          help.Model
	habitList     habitlist.Model
	summary       summary.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	habitToDelete habitlist.DeleteHabitMsg
	status        string
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(t *tracker.Tracker) Model {
	m := Model{
		tracker:   t,
		state:     StateHabits,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		habitList: habitlist.New(0, 0),
		summary:   summary.New(0, 0),
	}
	m.refresh()
	return m
}

// refresh reloads habits and the summary from the tracker.
func (m *Model) refresh() {
	now, err := m.tracker.Now()
	if err != nil {
		m.err = err
		return
	}
	habits, err := m.tracker.Habits()
	if err != nil {
		m.err = err
		return
	}
	m.habitList.SetHabits(habits, utils.NormalizeKey(now))

	s, err := m.tracker.Summary()
	if err != nil {
		m.err = err
		return
	}
	m.summary.SetSummary(s)
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateHabits {
		keys = append(keys, m.keys.Toggle, m.keys.Add, m.keys.Delete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Filter}

	var actions []key.Binding
	if m.state == StateHabits {
		actions = []key.Binding{m.keys.Toggle, m.keys.Add, m.keys.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}
