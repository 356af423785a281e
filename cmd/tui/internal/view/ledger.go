package view

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

// LedgerModel shows one campaign's progress and its donations.
type LedgerModel struct {
	CommonModel
	campaigns *campaign.Service
	exporter  *export.Service
	currency  string
	dir       string

	campaign  *campaign.Campaign
	donations []*campaign.Donation
	table     table.Model
	bar       progress.Model
	spinner   spinner.Model

	loading   bool
	exporting bool
	err       error
	status    string
}

func NewLedgerModel(campaigns *campaign.Service, exporter *export.Service, currency string, c *campaign.Campaign) LedgerModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Donor", Width: 16},
		{Title: "Credited", Width: 20},
		{Title: "Charged", Width: 14},
		{Title: "Transaction", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return LedgerModel{
		campaigns: campaigns,
		exporter:  exporter,
		currency:  currency,
		dir:       "./exports",
		campaign:  c,
		table:     t,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spinner:   s,
		loading:   true,
	}
}

func (m LedgerModel) Title() string { return "Ledger: " + m.campaign.Title }

func (m LedgerModel) ShortHelp() string {
	return "Esc: back | x: export XLSX | r: refresh"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.campaign = msg.campaign
		m.donations = msg.donations
		m.refreshTable()
		return m, nil

	case ledgerExportedMsg:
		m.exporting = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.status = "Exported to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "x":
			if m.exporting {
				return m, nil
			}
			m.exporting = true
			m.status = ""
			return m, tea.Batch(m.spinner.Tick, m.exportCmd())
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	c := m.campaign
	pct := money.PercentFunded(c.RaisedAmount, c.GoalAmount)

	header := fmt.Sprintf("%s [%s]\n\n%s %d%%\n%s of %s",
		lipgloss.NewStyle().Bold(true).Render(c.Title),
		activeStyle(string(c.State)),
		m.bar.ViewAs(float64(pct)/100),
		pct,
		FormatAmount(c.RaisedAmount, m.currency),
		FormatAmount(c.GoalAmount, m.currency),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		fmt.Sprintf("%d donations", len(m.donations)),
		tableView,
	)

	switch {
	case m.exporting:
		content += "\n" + m.spinner.View() + " Exporting..."
	case m.status != "":
		content += "\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *LedgerModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.donations))
	for _, d := range m.donations {
		rows = append(rows, table.Row{
			FormatDate(d.CreatedAt),
			d.DonorID,
			FormatAmount(d.AmountCredited, m.currency),
			FormatAmount(d.AmountCharged, d.ChargedCurrency),
			d.ExternalTransactionID,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadLedgerMsg struct {
	campaign  *campaign.Campaign
	donations []*campaign.Donation
	err       error
}

func (m LedgerModel) loadCmd() tea.Cmd {
	id := m.campaign.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		c, err := m.campaigns.Get(ctx, id)
		if err != nil {
			return loadLedgerMsg{err: err}
		}

		ds, err := m.campaigns.Donations(ctx, id)
		return loadLedgerMsg{campaign: c, donations: ds, err: err}
	}
}

type ledgerExportedMsg struct {
	path string
	err  error
}

func (m LedgerModel) exportCmd() tea.Cmd {
	c := m.campaign
	dir := m.dir

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ledgerExportedMsg{err: fmt.Errorf("creating output directory: %w", err)}
		}

		path := filepath.Join(dir, export.Filename(c, time.Now()))

		f, err := os.Create(path)
		if err != nil {
			return ledgerExportedMsg{err: fmt.Errorf("creating file: %w", err)}
		}
		defer f.Close()

		if err := m.exporter.Ledger(ctx, c.ID, f); err != nil {
			return ledgerExportedMsg{err: err}
		}

		return ledgerExportedMsg{path: path}
	}
}
