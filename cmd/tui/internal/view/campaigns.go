package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

type campaignsState int

const (
	campaignsStateBrowse campaignsState = iota
	campaignsStateCreate
	campaignsStatePledge
)

// OpenLedgerMsg asks the root model to show the ledger of a campaign.
type OpenLedgerMsg struct {
	Campaign *campaign.Campaign
}

type CampaignsModel struct {
	CommonModel
	campaigns *campaign.Service
	issuer    *checkout.Issuer
	currency  string

	state campaignsState
	table table.Model
	list  []*campaign.Campaign
	form  *huh.Form

	stateFilterIdx int

	filter  campaign.ListFilter
	loading bool
	err     error
	status  string

	// Form bindings
	formTitle   string
	formGoal    string
	formOrg     string
	formSubject string
	formDonor   string
	formAmount  string
}

func NewCampaignsModel(campaigns *campaign.Service, issuer *checkout.Issuer, currency string) CampaignsModel {
	columns := []table.Column{
		{Title: "Title", Width: 28},
		{Title: "State", Width: 10},
		{Title: "Raised", Width: 20},
		{Title: "Goal", Width: 20},
		{Title: "Funded", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

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
	t.SetStyles(s)

	return CampaignsModel{
		campaigns: campaigns,
		issuer:    issuer,
		currency:  currency,
		table:     t,
		loading:   true,
	}
}

func (m CampaignsModel) Title() string { return "Campaigns" }
func (m CampaignsModel) ShortHelp() string {
	if m.state != campaignsStateBrowse {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | Enter: ledger | n: new | p: pledge | s: state filter | r: refresh"
}

func (m CampaignsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CampaignsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadCampaignsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.list = msg.campaigns
		m.refreshTable()
		return m, nil

	case campaignCreatedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error creating campaign: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Created campaign %s", msg.campaign.ID)
		}
		m.closeForm()
		return m, m.loadCmd()

	case pledgeOpenedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Pledge rejected: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Checkout opened for %s: %s",
				msg.result.ChargeAmount.StringFixed(2), msg.result.RedirectURL)
		}
		m.closeForm()
		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == campaignsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m CampaignsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.stateFilterIdx = (m.stateFilterIdx + 1) % 3
			m.applyFilter()
			return m, m.loadCmd()
		case "n":
			return m.enterCreateMode()
		case "p":
			return m.enterPledgeMode()
		case "enter":
			if c := m.selected(); c != nil {
				return m, func() tea.Msg { return OpenLedgerMsg{Campaign: c} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m CampaignsModel) enterCreateMode() (tea.Model, tea.Cmd) {
	m.formTitle, m.formGoal, m.formOrg, m.formSubject = "", "", "", ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&m.formTitle).
				Validate(notEmpty("title")),
			huh.NewInput().
				Key("goal").
				Title(fmt.Sprintf("Goal (%s)", strings.ToUpper(m.currency))).
				Value(&m.formGoal).
				Validate(positiveDecimal),
			huh.NewInput().
				Key("org").
				Title("Organization ID").
				Value(&m.formOrg).
				Validate(notEmpty("organization")),
			huh.NewInput().
				Key("subject").
				Title("Pet / case ID").
				Value(&m.formSubject).
				Validate(notEmpty("subject")),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = campaignsStateCreate
	m.table.Blur()
	return m, m.form.Init()
}

func (m CampaignsModel) enterPledgeMode() (tea.Model, tea.Cmd) {
	c := m.selected()
	if c == nil {
		return m, nil
	}

	m.formDonor, m.formAmount = "", ""

	remaining := decimal.Max(c.Remaining(), decimal.Zero)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("donor").
				Title("Donor ID").
				Value(&m.formDonor).
				Validate(notEmpty("donor")),
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Description("Remaining: "+FormatAmount(remaining, m.currency)).
				Value(&m.formAmount).
				Validate(positiveDecimal),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = campaignsStatePledge
	m.table.Blur()
	return m, m.form.Init()
}

func (m CampaignsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.closeForm()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == campaignsStateCreate {
		return m, m.createCmd()
	}

	return m, m.pledgeCmd()
}

func (m *CampaignsModel) closeForm() {
	m.state = campaignsStateBrowse
	m.form = nil
	m.table.Focus()
}

func (m CampaignsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading campaigns...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	stateLabels := []string{"All", "Active", "Completed"}

	header := fmt.Sprintf("Filter: [s] State: %s", activeStyle(stateLabels[m.stateFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.form != nil {
		title := "New Campaign"
		if c := m.selected(); m.state == campaignsStatePledge && c != nil {
			title = "Pledge to " + c.Title
		}

		panel := panelStyle().Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m CampaignsModel) selected() *campaign.Campaign {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m *CampaignsModel) applyFilter() {
	switch m.stateFilterIdx {
	case 1:
		m.filter.State = new(campaign.StateActive)
	case 2:
		m.filter.State = new(campaign.StateCompleted)
	default:
		m.filter.State = nil
	}
}

func (m *CampaignsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, c := range m.list {
		rows = append(rows, table.Row{
			c.Title,
			string(c.State),
			FormatAmount(c.RaisedAmount, m.currency),
			FormatAmount(c.GoalAmount, m.currency),
			fmt.Sprintf("%d%%", money.PercentFunded(c.RaisedAmount, c.GoalAmount)),
		})
	}
	m.table.SetRows(rows)
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func positiveDecimal(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return errors.New("enter a positive amount")
	}
	return nil
}

// Messages

type loadCampaignsMsg struct {
	campaigns []*campaign.Campaign
	err       error
}

func (m CampaignsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cs, err := m.campaigns.List(ctx, m.filter)
		return loadCampaignsMsg{campaigns: cs, err: err}
	}
}

type campaignCreatedMsg struct {
	campaign *campaign.Campaign
	err      error
}

func (m CampaignsModel) createCmd() tea.Cmd {
	params := campaign.CreateParams{
		Title:          m.formTitle,
		OrganizationID: strings.TrimSpace(m.formOrg),
		SubjectID:      strings.TrimSpace(m.formSubject),
		GoalAmount:     decimal.RequireFromString(strings.TrimSpace(m.formGoal)),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		c, err := m.campaigns.Create(ctx, params)
		return campaignCreatedMsg{campaign: c, err: err}
	}
}

type pledgeOpenedMsg struct {
	result *checkout.Result
	err    error
}

func (m CampaignsModel) pledgeCmd() tea.Cmd {
	c := m.selected()
	if c == nil {
		return nil
	}

	donor := strings.TrimSpace(m.formDonor)
	amount := decimal.RequireFromString(strings.TrimSpace(m.formAmount))

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.issuer.Open(ctx, c.ID, donor, amount)
		return pledgeOpenedMsg{result: res, err: err}
	}
}
