package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	importStepPick importStep = iota
	importStepLoading
	importStepPreview
	importStepCategory
	importStepConflicts
	importStepDone
)

// ImportModel walks a CSV through preview, category review and duplicate resolution
// before anything reaches the ledger.
type ImportModel struct {
	CommonModel
	importer *importer.Service
	tenantID uuid.UUID

	step   importStep
	picker filepicker.Model
	table  table.Model
	form   *huh.Form

	file     string
	batch    *importer.Batch
	category *string // bound to the category form

	fresh     []transaction.CreateParams
	conflicts []transaction.Conflict
	keep      map[int]bool

	message string
	err     error
}

func NewImportModel(impSvc *importer.Service, tenantID uuid.UUID) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	t := table.New(table.WithFocused(true), table.WithHeight(15))
	t.SetStyles(tableStyles())

	return ImportModel{
		importer: impSvc,
		tenantID: tenantID,
		picker:   fp,
		table:    t,
		category: new(string),
		keep:     make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import CSV" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case importStepPreview:
		return "Enter: import | e: set category | F: import ignoring duplicates | Esc: other file"
	case importStepCategory:
		return "Enter: save | Esc: cancel"
	case importStepConflicts:
		return "Space: keep/skip | a: keep all | n: skip all | Enter: write | Esc: back to preview"
	case importStepDone:
		return "Esc: import another file"
	}

	return "Enter: open | Esc: back"
}

func (m ImportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))

	case preparedMsg:
		if m.step != importStepLoading {
			return m, nil
		}

		if msg.err != nil {
			return m.finish("", msg.err), nil
		}

		m.batch = msg.batch
		m.step = importStepPreview
		m.showPreview()

		return m, nil

	case writtenMsg:
		if m.step != importStepLoading {
			return m, nil
		}

		if msg.err != nil {
			return m.finish("", msg.err), nil
		}

		if len(msg.result.Conflicts) > 0 {
			m.fresh = msg.result.New
			m.conflicts = msg.result.Conflicts
			m.keep = make(map[int]bool)
			m.step = importStepConflicts
			m.showConflicts()

			return m, nil
		}

		return m.finish(fmt.Sprintf("Imported %d transactions from %s.", len(msg.result.Imported), filepath.Base(m.file)), nil), nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.back()
		}
	}

	switch m.step {
	case importStepPick:
		return m.updatePick(msg)
	case importStepPreview:
		return m.updatePreview(msg)
	case importStepCategory:
		return m.updateCategory(msg)
	case importStepConflicts:
		return m.updateConflicts(msg)
	}

	return m, nil
}

func (m ImportModel) back() (tea.Model, tea.Cmd) {
	switch m.step {
	case importStepPick:
		return m, Back
	case importStepCategory:
		m.step = importStepPreview
		m.form = nil
		m.table.Focus()

		return m, nil
	case importStepConflicts:
		m.step = importStepPreview
		m.conflicts = nil
		m.fresh = nil
		m.showPreview()

		return m, nil
	}

	m.step = importStepPick
	m.batch = nil
	m.message = ""
	m.err = nil

	return m, m.picker.Init()
}

func (m ImportModel) finish(message string, err error) ImportModel {
	m.step = importStepDone
	m.message = message
	m.err = err

	return m
}

func (m ImportModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.file = path
		m.step = importStepLoading

		return m, m.prepareCmd(path)
	}

	return m, cmd
}

func (m ImportModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.step = importStepLoading
			return m, m.writeCmd(m.batch.Params, false)
		case "F":
			m.step = importStepLoading
			return m, m.writeCmd(m.batch.Params, true)
		case "e":
			return m.editCategory()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ImportModel) editCategory() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.batch.Params) {
		return m, nil
	}

	p := m.batch.Params[idx]
	*m.category = deref(p.Category)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("category").
				Title("Category for " + p.Description).
				Description("Leave empty for " + transaction.Uncategorized).
				Value(m.category),
		),
	).WithWidth(45).WithShowHelp(false)

	m.step = importStepCategory
	m.table.Blur()

	return m, m.form.Init()
}

func (m ImportModel) updateCategory(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	idx := m.table.Cursor()
	if category := strings.TrimSpace(*m.category); category != "" {
		m.batch.Params[idx].Category = &category
	} else {
		m.batch.Params[idx].Category = nil
	}

	m.batch.Suggested[idx] = false

	m.step = importStepPreview
	m.form = nil
	m.showPreview()

	return m, nil
}

func (m ImportModel) updateConflicts(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case " ":
			idx := m.table.Cursor()
			m.keep[idx] = !m.keep[idx]
			m.showConflicts()

			return m, nil
		case "a", "n":
			for i := range m.conflicts {
				m.keep[i] = keyMsg.String() == "a"
			}

			m.showConflicts()

			return m, nil
		case "enter":
			params := append([]transaction.CreateParams(nil), m.fresh...)
			for i, c := range m.conflicts {
				if m.keep[i] {
					params = append(params, c.Incoming)
				}
			}

			if len(params) == 0 {
				return m.finish("Nothing to import: every entry was already in the ledger.", nil), nil
			}

			m.step = importStepLoading

			return m, m.writeCmd(params, true)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

// showPreview lists the parsed entries. Categories proposed by a rule carry a marker.
func (m *ImportModel) showPreview() {
	m.table.SetRows(nil)
	m.table.SetColumns([]table.Column{
		{Title: "Due", Width: 12},
		{Title: "Type", Width: 11},
		{Title: "Status", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 32},
		{Title: "Category", Width: 22},
	})

	rows := make([]table.Row, len(m.batch.Params))
	for i, p := range m.batch.Params {
		status := p.Status
		if status == "" {
			status = transaction.StatusPending
		}

		category := transaction.Uncategorized
		if p.Category != nil {
			category = *p.Category
		}

		if m.batch.Suggested[i] {
			category += " (rule)"
		}

		rows[i] = table.Row{
			FormatDate(p.DueDate),
			string(p.Type),
			string(status),
			FormatAmount(p.Amount),
			p.Description,
			category,
		}
	}

	m.table.SetRows(rows)
	m.table.Focus()
}

// showConflicts pairs each incoming entry with the ledger entry it collides with.
func (m *ImportModel) showConflicts() {
	m.table.SetRows(nil)
	m.table.SetColumns([]table.Column{
		{Title: "Keep", Width: 5},
		{Title: "Due", Width: 12},
		{Title: "Type", Width: 11},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 28},
		{Title: "Category", Width: 16},
		{Title: "In ledger", Width: 24},
	})

	rows := make([]table.Row, len(m.conflicts))
	for i, c := range m.conflicts {
		keep := "[ ]"
		if m.keep[i] {
			keep = "[x]"
		}

		category := transaction.Uncategorized
		if c.Incoming.Category != nil {
			category = *c.Incoming.Category
		}

		rows[i] = table.Row{
			keep,
			FormatDate(c.Incoming.DueDate),
			string(c.Incoming.Type),
			FormatAmount(c.Incoming.Amount),
			c.Incoming.Description,
			category,
			fmt.Sprintf("%s, %s", c.Existing.Status, c.Existing.CategoryName()),
		}
	}

	m.table.SetRows(rows)
	m.table.Focus()
}

func (m ImportModel) View() string {
	switch m.step {
	case importStepPick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Choose a ledger export or bank statement:\n\n" + m.picker.View(),
		)
	case importStepLoading:
		return lipgloss.NewStyle().Padding(2).Render("Reading " + filepath.Base(m.file) + "...")
	case importStepPreview, importStepCategory:
		return m.viewPreview()
	case importStepConflicts:
		return m.viewConflicts()
	case importStepDone:
		return m.viewDone()
	}

	return ""
}

func (m ImportModel) viewPreview() string {
	suggested := 0
	for _, s := range m.batch.Suggested {
		if s {
			suggested++
		}
	}

	header := fmt.Sprintf("%s: %s entries, %s categorized by rules",
		filepath.Base(m.file),
		activeStyle(fmt.Sprint(len(m.batch.Params))),
		activeStyle(fmt.Sprint(suggested)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.table.View(),
	)

	if m.form != nil {
		panel := panelStyle.Padding(1, 2).Width(48).Render("Category\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ImportModel) viewConflicts() string {
	kept := 0
	for _, k := range m.keep {
		if k {
			kept++
		}
	}

	header := fmt.Sprintf("%d new entries, %d already in the ledger (%d kept)",
		len(m.fresh), len(m.conflicts), kept)

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.table.View(),
	))
}

func (m ImportModel) viewDone() string {
	text := positiveStyle.Render(m.message)
	if m.err != nil {
		text = negativeStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(2).Render(text)
}

// Messages

type preparedMsg struct {
	batch *importer.Batch
	err   error
}

type writtenMsg struct {
	result *transaction.ImportResult
	err    error
}

func (m ImportModel) prepareCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return preparedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		batch, err := m.importer.Prepare(ctx, m.tenantID, f)

		return preparedMsg{batch: batch, err: err}
	}
}

func (m ImportModel) writeCmd(params []transaction.CreateParams, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importer.Write(ctx, m.tenantID, params, force)

		return writtenMsg{result: result, err: err}
	}
}
