package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/clientside"
	"github.com/taksyapp/tasks-api/pkg/apiclient"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var (
	statusCycle   = []string{clientside.Wildcard, "pending", "in-progress", "completed"}
	priorityCycle = []string{clientside.Wildcard, "low", "medium", "high"}
	dueCycle      = []string{
		clientside.Wildcard,
		clientside.RangeOverdue,
		clientside.RangeToday,
		clientside.RangeThisWeek,
		clientside.RangeThisMonth,
	}
	sortCycle = []string{"dueDate", "priority", "status", "title", "createdAt"}
)

type dashModel struct {
	client    *apiclient.Client
	session   sessionState
	stateFile string

	tasks      []internal.Task
	filtered   []internal.Task
	filter     clientside.FilterState
	selectedID string

	searching bool
	searchBuf string

	loading  bool
	errMsg   string
	fatalErr error
}

type tasksMsg struct {
	tasks []internal.Task
}

type errorMsg struct {
	err error
}

type loggedOutMsg struct{}

func newModel(client *apiclient.Client, session sessionState, stateFile string) dashModel {
	return dashModel{
		client:    client,
		session:   session,
		stateFile: stateFile,
		filter:    clientside.NewFilterState(),
		loading:   true,
	}
}

func (m dashModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// A large page keeps all refinement local.
		selection, err := m.client.Tasks(ctx, internal.TaskCriteria{Page: 1, Limit: 500})
		if err != nil {
			return errorMsg{err: err}
		}

		return tasksMsg{tasks: selection.Tasks}
	}
}

func (m dashModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.client.Logout(ctx); err != nil {
			return errorMsg{err: err}
		}

		if err := clearSession(m.stateFile); err != nil {
			return errorMsg{err: err}
		}

		return loggedOutMsg{}
	}
}

func (m dashModel) Init() tea.Cmd {
	return m.fetchCmd()
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksMsg:
		m.tasks = msg.tasks
		m.loading = false
		m.errMsg = ""
		m.refilter()
		return m, nil

	case errorMsg:
		m.loading = false
		m.errMsg = msg.err.Error()
		return m, nil

	case loggedOutMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m dashModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.filter.Search = m.searchBuf
		m.refilter()
	case "backspace":
		if len(m.searchBuf) > 0 {
			m.searchBuf = m.searchBuf[:len(m.searchBuf)-1]
		}
	case "ctrl+c":
		return m, tea.Quit
	default:
		if len(msg.String()) == 1 || msg.Type == tea.KeySpace {
			m.searchBuf += msg.String()
		}
	}

	return m, nil
}

func (m dashModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.fetchCmd()
	case "L":
		return m, m.logoutCmd()
	case "/":
		m.searching = true
		m.searchBuf = m.filter.Search
	case "s":
		m.filter.Status = cycle(statusCycle, m.filter.Status)
		m.refilter()
	case "p":
		m.filter.Priority = cycle(priorityCycle, m.filter.Priority)
		m.refilter()
	case "d":
		m.filter.DueDateRange = cycle(dueCycle, m.filter.DueDateRange)
		m.refilter()
	case "b":
		m.filter.SortBy = cycle(sortCycle, m.filter.SortBy)
		m.refilter()
	case "o":
		if m.filter.SortOrder == clientside.OrderAsc {
			m.filter.SortOrder = clientside.OrderDesc
		} else {
			m.filter.SortOrder = clientside.OrderAsc
		}
		m.refilter()
	case "x":
		m.filter = clientside.NewFilterState()
		m.refilter()
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	}

	return m, nil
}

func (m *dashModel) refilter() {
	m.filtered = clientside.Apply(m.tasks, m.filter, time.Now())
	m.selectedID = clientside.Reselect(m.filtered, m.selectedID)
}

func (m *dashModel) moveSelection(delta int) {
	if len(m.filtered) == 0 {
		return
	}

	idx := 0
	for i, task := range m.filtered {
		if task.ID == m.selectedID {
			idx = i
			break
		}
	}

	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.filtered) {
		idx = len(m.filtered) - 1
	}

	m.selectedID = m.filtered[idx].ID
}

func (m dashModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s (%s)\n\n", m.session.Email, m.session.Role)))

	b.WriteString(dimStyle.Render(fmt.Sprintf("status:%s  priority:%s  due:%s  sort:%s/%s  search:%q\n\n",
		m.filter.Status, m.filter.Priority, m.filter.DueDateRange,
		m.filter.SortBy, m.filter.SortOrder, m.filter.Search)))

	switch {
	case m.loading:
		b.WriteString("Loading...\n")
	case m.errMsg != "":
		b.WriteString(errStyle.Render("Error: "+m.errMsg) + "\n")
	case len(m.filtered) == 0:
		b.WriteString(dimStyle.Render("No tasks match the current filters.\n"))
	default:
		now := time.Now()
		for _, task := range m.filtered {
			line := fmt.Sprintf("%-10s %-8s %s  %s",
				task.Status, task.Priority, task.DueDate.Format("2006-01-02"), task.Title)

			switch clientside.DueDateStatus(task.DueDate, now) {
			case "overdue":
				line = overdueStyle.Render(line)
			case "today":
				line = todayStyle.Render(line)
			}

			if task.ID == m.selectedID {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}

			b.WriteString(line + "\n")
		}
	}

	if m.searching {
		b.WriteString("\nSearch: " + m.searchBuf + "▌\n")
	}

	b.WriteString(dimStyle.Render("\ns status  p priority  d due  b sort  o order  / search  x reset  r refresh  L logout  q quit\n"))

	return b.String()
}

func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}

	return values[0]
}
