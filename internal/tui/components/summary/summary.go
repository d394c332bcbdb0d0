package summary

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitlit/internal/cli/insights"
	"github.com/julianstephens/habitlit/internal/tracker"
)

// Model is a scrollable panel with the overall stats and the achievement catalog.
type Model struct {
	viewport viewport.Model
	Summary  *tracker.Summary
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Summary == nil {
		return "No stats yet."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetSummary(s tracker.Summary) {
	m.Summary = &s
	m.Render()
}

func (m *Model) Render() {
	if m.Summary == nil {
		m.viewport.SetContent("No stats yet.")
		return
	}
	m.viewport.SetContent(insights.RenderStats(*m.Summary) + "\n" + insights.RenderAchievements(*m.Summary, false))
}
