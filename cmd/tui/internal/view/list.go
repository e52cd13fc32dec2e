package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateFilter
	listStateEdit
)

type editValues struct {
	Description string
	Category    string
	CostCenter  string
	Notes       string
}

type ListModel struct {
	CommonModel
	txService *transaction.Service
	tenantID  uuid.UUID

	state listState
	table table.Model
	txs   []*transaction.Transaction
	form  *huh.Form

	values *FilterValues
	edit   *editValues

	loading bool
	err     error
	status  string
}

func NewListModel(txSvc *transaction.Service, tenantID uuid.UUID) ListModel {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Type", Width: 11},
		{Title: "Status", Width: 10},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 36},
		{Title: "Category", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return ListModel{
		txService: txSvc,
		tenantID:  tenantID,
		table:     t,
		values:    new(DefaultFilterValues()),
		edit:      &editValues{},
		loading:   true,
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	if m.state != listStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | f: filter | e: edit | p: pay | x: exclude | c: cancel | a: reactivate | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		m.err = msg.err

		if msg.err != nil {
			return m, nil
		}

		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case listActionMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateFilter, listStateEdit:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "f":
			m.state = listStateFilter
			m.form = newFilterForm(m.values)
			m.table.Blur()

			return m, m.form.Init()
		case "e":
			return m.enterEditMode()
		case "p":
			return m, m.lifecycleCmd("Marked as paid", func(tx *transaction.Transaction) error {
				ctx, cancel := DbCtx()
				defer cancel()

				_, err := m.txService.MarkPaid(ctx, m.tenantID, tx.ID)

				return err
			})
		case "x", "c":
			reason := transaction.StatusExcluded
			if keyMsg.String() == "c" {
				reason = transaction.StatusCancelled
			}

			return m, m.lifecycleCmd("Moved to "+string(reason), func(tx *transaction.Transaction) error {
				ctx, cancel := DbCtx()
				defer cancel()

				_, err := m.txService.Exclude(ctx, m.tenantID, tx.ID, reason)

				return err
			})
		case "a":
			return m, m.lifecycleCmd("Reactivated", func(tx *transaction.Transaction) error {
				ctx, cancel := DbCtx()
				defer cancel()

				_, err := m.txService.Reactivate(ctx, m.tenantID, tx.ID)

				return err
			})
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	*m.edit = editValues{
		Description: tx.Description,
		Category:    deref(tx.Category),
		CostCenter:  deref(tx.CostCenter),
		Notes:       deref(tx.Notes),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.edit.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("category").
				Title("Category").
				Value(&m.edit.Category),

			huh.NewInput().
				Key("cost_center").
				Title("Cost center").
				Value(&m.edit.CostCenter),

			huh.NewText().
				Key("notes").
				Title("Notes").
				Value(&m.edit.Notes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = listStateBrowse
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

	if m.state == listStateEdit {
		return m, m.saveCmd()
	}

	m.state = listStateBrowse
	m.form = nil
	m.loading = true
	m.table.Focus()

	return m, m.loadTxsCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(negativeStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := "Filter: " + activeStyle(m.values.Label())

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.form != nil {
		title := "Filter"
		if m.state == listStateEdit {
			title = "Edit Transaction"
		}

		panel := panelStyle.
			Padding(1, 2).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = labelStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.DueDate),
			string(tx.Type),
			string(tx.Status),
			FormatAmount(tx.Amount),
			tx.Description,
			tx.CategoryName(),
		})
	}

	m.table.SetRows(rows)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	values := *m.values

	return func() tea.Msg {
		f, err := values.ListFilter(m.tenantID, time.Now())
		if err != nil {
			return loadListMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := transaction.Collect(m.txService.List(ctx, f))

		return loadListMsg{txs: txs, err: err}
	}
}

type listActionMsg struct {
	status string
	err    error
}

func (m ListModel) lifecycleCmd(done string, apply func(*transaction.Transaction) error) tea.Cmd {
	tx := m.selected()
	if tx == nil {
		return nil
	}

	return func() tea.Msg {
		if err := apply(tx); err != nil {
			return listActionMsg{err: err}
		}

		return listActionMsg{status: fmt.Sprintf("%s: %s", done, tx.Description)}
	}
}

func (m ListModel) saveCmd() tea.Cmd {
	tx := m.selected()
	if tx == nil {
		return nil
	}

	edit := *m.edit

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.txService.Update(ctx, m.tenantID, tx.ID, transaction.UpdateParams{
			Description: &edit.Description,
			Category:    &edit.Category,
			CostCenter:  &edit.CostCenter,
			Notes:       &edit.Notes,
		})
		if err != nil {
			return listActionMsg{err: err}
		}

		return listActionMsg{status: "Saved " + edit.Description}
	}
}
