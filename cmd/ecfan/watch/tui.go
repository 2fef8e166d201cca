package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/ecfan"
)

type tickMsg time.Time

type model struct {
	table    table.Model
	ctrl     *ecfan.Controller
	interval time.Duration
	err      error
}

func newTUI(ctrl *ecfan.Controller, interval time.Duration) *model {
	columns := []table.Column{
		{Title: "Fans", Width: 20},
		{Title: "Speeds", Width: 12},
		{Title: "Duty cycle", Width: 16},
		{Title: "Mode", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table:    t,
		ctrl:     ctrl,
		interval: interval,
	}
}

func (m *model) Init() tea.Cmd {
	return func() tea.Msg {
		return tickMsg(time.Now())
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height - 2)
	case tickMsg:
		m.refresh()
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	view := m.table.View() + "\n"
	if m.err != nil {
		view += lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Render(m.err.Error()) + "\n"
	}
	return view + "q: back"
}

func (m *model) refresh() {
	var statuses []ecfan.FanStatus
	statuses, m.err = m.ctrl.Status()
	if statuses == nil {
		return
	}

	fans := m.ctrl.Fans()
	rows := make([]table.Row, 0, len(statuses))
	for i, s := range statuses {
		ch := fans[i]

		duty := fmt.Sprintf("%3d (0x%02X)", s.PWM, ch.PWMRegister)
		if len(ch.DutyCycle) > 0 {
			duty = fmt.Sprintf("%3d%% (%d)", s.Percent, s.PWM)
		}

		mode := "-"
		if ch.Enable != nil {
			mode = "auto"
			if s.Manual {
				mode = "manual"
			}
		}

		rows = append(rows, table.Row{
			ch.Name(),
			fmt.Sprintf("%5d RPM", s.RPM),
			duty,
			mode,
		})
	}

	m.table.SetRows(rows)
}
