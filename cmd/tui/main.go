package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/pawfund/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	campaignStore "github.com/MrJamesThe3rd/pawfund/internal/campaign/store"
	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/config"
	"github.com/MrJamesThe3rd/pawfund/internal/database"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/fx"
	"github.com/MrJamesThe3rd/pawfund/internal/gateway"
)

type model struct {
	campaignService *campaign.Service
	exportService   *export.Service
	issuer          *checkout.Issuer
	currency        string

	currentView View

	campaignsView view.CampaignsModel
	ledgerView    view.LedgerModel
}

type View int

const (
	ViewMenu      View = 0
	ViewCampaigns View = 1
	ViewLedger    View = 2
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var rates fx.Source = fx.NewHTTPSource(cfg.FX.APIURL)

	rate, fixed, err := cfg.FixedRate()
	if err != nil {
		slog.Error("invalid exchange rate configuration", "error", err)
		os.Exit(1)
	}

	if fixed {
		rates = fx.NewStatic(rate)
	}

	campaignSvc := campaign.NewService(campaignStore.New(db))
	exportSvc := export.NewService(campaignSvc, cfg.FX.CampaignCurrency)
	issuer := checkout.NewIssuer(
		campaignSvc,
		rates,
		gateway.NewStripe(cfg.Stripe.SecretKey, cfg.SuccessURL(), cfg.CancelURL(), nil),
		checkout.Config{
			CampaignCurrency:   cfg.FX.CampaignCurrency,
			SettlementCurrency: cfg.Stripe.SettlementCurrency,
			MinimumCharge:      cfg.Stripe.MinimumCharge,
		},
	)

	return model{
		campaignService: campaignSvc,
		exportService:   exportSvc,
		issuer:          issuer,
		currency:        cfg.FX.CampaignCurrency,
		currentView:     ViewMenu,
		campaignsView:   view.NewCampaignsModel(campaignSvc, issuer, cfg.FX.CampaignCurrency),
	}
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
				m.currentView = ViewCampaigns
				m.campaignsView = view.NewCampaignsModel(m.campaignService, m.issuer, m.currency)

				return m, m.campaignsView.Init()
			}
		}
	case view.OpenLedgerMsg:
		m.currentView = ViewLedger
		m.ledgerView = view.NewLedgerModel(m.campaignService, m.exportService, m.currency, msg.Campaign)

		return m, m.ledgerView.Init()
	case view.BackMsg:
		if m.currentView == ViewLedger {
			m.currentView = ViewCampaigns
			return m, m.campaignsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewCampaigns:
		var newModel tea.Model
		newModel, cmd = m.campaignsView.Update(msg)
		m.campaignsView = newModel.(view.CampaignsModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"PawFund\n\n" +
				"1. Campaigns\n\n" +
				"q. Quit",
		)
	case ViewCampaigns:
		return m.campaignsView.View() + "\n" + helpStyle.Render(m.campaignsView.ShortHelp())
	case ViewLedger:
		return m.ledgerView.View() + "\n" + helpStyle.Render(m.ledgerView.ShortHelp())
	}

	return "Unknown View"
}

var helpStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("241"))

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
