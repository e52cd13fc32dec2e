package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledger/internal/cache"
	"github.com/MrJamesThe3rd/ledger/internal/category"
	categoryStore "github.com/MrJamesThe3rd/ledger/internal/category/store"
	"github.com/MrJamesThe3rd/ledger/internal/config"
	"github.com/MrJamesThe3rd/ledger/internal/database"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/ledger/internal/matching/store"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledger/internal/transaction/store"
)

type model struct {
	tenantID      uuid.UUID
	txService     *transaction.Service
	reportService *report.Service
	importService *importer.Service

	currentView View

	dashboardView view.DashboardModel
	listView      view.ListModel
	importView    view.ImportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewList      View = 2
	ViewImport    View = 3
)

func initialModel() (model, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return model{}, nil, err
	}

	tenantID, err := uuid.Parse(cfg.Ledger.TenantID)
	if err != nil {
		return model{}, nil, fmt.Errorf("LEDGER_TENANT_ID must be a UUID: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.ConnectionString())
	if err != nil {
		return model{}, nil, err
	}

	categories, err := cache.New[[]category.Category](cfg.Ledger.CacheSize)
	if err != nil {
		db.Close()
		return model{}, nil, err
	}

	// Cost centers are not shown in the TUI; a nil cache disables caching.
	categorySvc := category.NewService(categoryStore.New(db), categories, nil)

	txSvc := transaction.NewService(txStore.New(db),
		transaction.WithCategoryDefault(categorySvc, cfg.Ledger.DefaultCategory))
	reportSvc := report.NewService(txSvc, time.Now)
	impSvc := importer.NewService(txSvc,
		importer.WithSuggester(matching.NewService(matchingStore.New(db))))

	cleanup := func() {
		categories.Close()
		db.Close()
	}

	return model{
		tenantID:      tenantID,
		txService:     txSvc,
		reportService: reportSvc,
		importService: impSvc,
		currentView:   ViewMenu,
	}, cleanup, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.reportService, m.tenantID)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.txService, m.tenantID)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.importService, m.tenantID)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Ledger\n\n" +
				"1. Dashboard\n" +
				"2. Transactions\n" +
				"3. Import CSV\n\n" +
				"q. Quit",
		)
	case ViewDashboard:
		return m.withHelp(m.dashboardView.View(), m.dashboardView.ShortHelp())
	case ViewList:
		return m.withHelp(m.listView.View(), m.listView.ShortHelp())
	case ViewImport:
		return m.withHelp(m.importView.View(), m.importView.ShortHelp())
	}

	return "Unknown View"
}

func (m model) withHelp(content, help string) string {
	return content + "\n" + lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(help)
}

func main() {
	m, cleanup, err := initialModel()
	if err != nil {
		slog.Error("failed to start TUI", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		cleanup()
		os.Exit(1)
	}
}
