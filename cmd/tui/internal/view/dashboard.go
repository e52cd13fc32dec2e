package view

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/report"
)

var (
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
	labelStyle    = lipgloss.NewStyle().Faint(true)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DashboardModel shows the summary cards, the category breakdown and the daily cash flow
// for the active filter.
type DashboardModel struct {
	CommonModel
	reports  *report.Service
	tenantID uuid.UUID

	values *FilterValues // shared across model copies so the form can write it
	form   *huh.Form

	table      table.Model
	stats      report.Stats
	categories map[string]decimal.Decimal

	loading bool
	err     error
}

func NewDashboardModel(reports *report.Service, tenantID uuid.UUID) DashboardModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Inflow", Width: 14},
		{Title: "Outflow", Width: 14},
		{Title: "Daily", Width: 14},
		{Title: "Balance", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	return DashboardModel{
		reports:  reports,
		tenantID: tenantID,
		values:   new(DefaultFilterValues()),
		table:    t,
		loading:  true,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	if m.form != nil {
		return "Enter: apply | Esc: cancel"
	}

	return "Esc: back | f: filter | r: refresh"
}

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		m.err = msg.err

		if msg.err != nil {
			return m, nil
		}

		m.stats = msg.stats
		m.categories = msg.categories
		m.refreshTable(msg.flow)

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-18, 5))

		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "f":
			m.form = newFilterForm(m.values)
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DashboardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil
	m.loading = true
	m.table.Focus()

	return m, m.loadCmd()
}

func (m *DashboardModel) refreshTable(flow []report.CashFlowDay) {
	rows := make([]table.Row, 0, len(flow))
	for _, day := range flow {
		rows = append(rows, table.Row{
			day.Date.Format(time.DateOnly),
			FormatAmount(day.Inflow),
			FormatAmount(day.Outflow),
			FormatAmount(day.DailyBalance),
			FormatAmount(day.RunningBalance),
		})
	}

	m.table.SetRows(rows)
}

func (m DashboardModel) View() string {
	if m.form != nil {
		return lipgloss.NewStyle().Padding(1).Render(panelStyle.Render("Filter\n\n" + m.form.View()))
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading dashboard...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(negativeStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().PaddingBottom(1).Render("Filter: " + activeStyle(m.values.Label()))

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Revenues", m.stats.Revenues, "Received", m.stats.Received),
		card("Expenses", m.stats.Expenses, "Paid", m.stats.Paid),
		card("Receivables", m.stats.Receivables, "Payables", m.stats.Payables),
		card("Balance", m.stats.Balance, "Overdue", m.stats.Overdue),
	)

	flow := panelStyle.Render("Cash flow\n\n" + m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		cards,
		lipgloss.JoinHorizontal(lipgloss.Top, flow, m.categoriesView()),
	))
}

func (m DashboardModel) categoriesView() string {
	var b strings.Builder

	b.WriteString("By category\n\n")

	names := slices.Sorted(maps.Keys(m.categories))
	for _, name := range names {
		fmt.Fprintf(&b, "%-20s %12s\n", name, FormatAmount(m.categories[name]))
	}

	if len(names) == 0 {
		b.WriteString(labelStyle.Render("No transactions"))
	}

	return panelStyle.Render(b.String())
}

func card(title string, value decimal.Decimal, subtitle string, sub decimal.Decimal) string {
	style := positiveStyle
	if value.IsNegative() {
		style = negativeStyle
	}

	return panelStyle.Width(24).Render(fmt.Sprintf("%s\n%s\n\n%s\n%s",
		labelStyle.Render(title),
		style.Render(FormatAmount(value)),
		labelStyle.Render(subtitle),
		FormatAmount(sub),
	))
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

// Messages

type dashboardLoadedMsg struct {
	stats      report.Stats
	flow       []report.CashFlowDay
	categories map[string]decimal.Decimal
	err        error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	values := *m.values

	return func() tea.Msg {
		f, err := values.ListFilter(m.tenantID, time.Now())
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		var msg dashboardLoadedMsg

		if msg.stats, err = m.reports.Stats(ctx, f); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		if msg.flow, err = m.reports.CashFlow(ctx, f); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		if msg.categories, err = m.reports.ByCategory(ctx, f); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		return msg
	}
}
