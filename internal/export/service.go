package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	ledgerSheet = "Donations"
)

var ledgerHeaders = []string{
	"Date", "Donation ID", "Donor", "Organization", "Subject",
	"Charged", "Charged Currency", "Credited", "Rate", "Transaction",
}

// Service renders campaign ledgers for operators.
type Service struct {
	campaigns        *campaign.Service
	campaignCurrency string
	lang             language.Tag
}

// NewService creates a new export Service. Credited amounts are labelled with
// campaignCurrency.
func NewService(campaigns *campaign.Service, campaignCurrency string) *Service {
	return &Service{
		campaigns:        campaigns,
		campaignCurrency: campaignCurrency,
		lang:             language.English,
	}
}

// Ledger writes a one-sheet XLSX workbook with one row per donation of the
// campaign, oldest first.
func (s *Service) Ledger(ctx context.Context, campaignID uuid.UUID, w io.Writer) error {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return fmt.Errorf("getting campaign: %w", err)
	}

	donations, err := s.campaigns.Donations(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("listing donations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, header := range ledgerHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("resolving header cell: %w", err)
		}

		if err := f.SetCellValue(ledgerSheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, d := range donations {
		// Amount cells are written from the decimal text so large sums keep
		// their cents; nil leaves them for writeAmount.
		row := []any{
			d.CreatedAt.UTC().Format(time.DateTime),
			d.ID.String(),
			d.DonorID,
			d.BeneficiaryOrgID,
			d.BeneficiarySubjectID,
			nil,
			strings.ToUpper(d.ChargedCurrency),
			nil,
			d.ConversionRate.String(),
			d.ExternalTransactionID,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolving row cell: %w", err)
		}

		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return fmt.Errorf("writing donation %s: %w", d.ID, err)
		}

		if err := writeAmount(f, chargedCol, i+2, d.AmountCharged); err != nil {
			return fmt.Errorf("writing donation %s: %w", d.ID, err)
		}

		if err := writeAmount(f, creditedCol, i+2, d.AmountCredited); err != nil {
			return fmt.Errorf("writing donation %s: %w", d.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

// Ledger columns holding money, 1-based.
const (
	chargedCol  = 6
	creditedCol = 8
)

// writeAmount stores amount as a numeric cell with exactly two decimals.
func writeAmount(f *excelize.File, col, row int, amount decimal.Decimal) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	return f.SetCellDefault(ledgerSheet, cell, amount.StringFixed(2))
}

// Filename returns the download name of a campaign ledger.
func Filename(c *campaign.Campaign, now time.Time) string {
	safeTitle := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, c.Title)

	if safeTitle == "" {
		safeTitle = c.ID.String()
	}

	return fmt.Sprintf("%s_%s.xlsx", now.Format("20060102"), safeTitle)
}

// Summary renders a plain-text progress report for the campaign.
func (s *Service) Summary(ctx context.Context, campaignID uuid.UUID) (string, error) {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return "", fmt.Errorf("getting campaign: %w", err)
	}

	donations, err := s.campaigns.Donations(ctx, campaignID)
	if err != nil {
		return "", fmt.Errorf("listing donations: %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s]\n", c.Title, c.State)
	fmt.Fprintf(&sb, "Raised:    %s of %s (%d%%)\n",
		money.Format(c.RaisedAmount, s.campaignCurrency, s.lang),
		money.Format(c.GoalAmount, s.campaignCurrency, s.lang),
		money.PercentFunded(c.RaisedAmount, c.GoalAmount))

	if c.GoalReached() {
		sb.WriteString("Remaining: none\n")
	} else {
		fmt.Fprintf(&sb, "Remaining: %s\n", money.Format(c.Remaining(), s.campaignCurrency, s.lang))
	}

	fmt.Fprintf(&sb, "Donations: %d\n", len(donations))

	for _, d := range donations {
		fmt.Fprintf(&sb, "* %s | %s | %s\n",
			d.CreatedAt.UTC().Format(time.DateOnly),
			d.DonorID,
			money.Format(d.AmountCredited, s.campaignCurrency, s.lang))
	}

	return sb.String(), nil
}
