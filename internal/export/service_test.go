package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
)

func fixture() (*campaign.Campaign, []*campaign.Donation) {
	c := &campaign.Campaign{
		ID:           uuid.New(),
		Title:        "Surgery for Biscuit",
		GoalAmount:   decimal.NewFromInt(250000),
		RaisedAmount: decimal.NewFromInt(250000),
		State:        campaign.StateCompleted,
	}

	donations := []*campaign.Donation{
		{
			ID:                    uuid.New(),
			CampaignID:            c.ID,
			DonorID:               "donor-1",
			BeneficiaryOrgID:      "org-7",
			BeneficiarySubjectID:  "pet-42",
			AmountCharged:         decimal.NewFromInt(430),
			ChargedCurrency:       "usd",
			AmountCredited:        decimal.NewFromInt(215000),
			ConversionRate:        decimal.RequireFromString("0.002"),
			ExternalTransactionID: "cs_test_1",
			Status:                campaign.DonationSucceeded,
			CreatedAt:             time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}

	return c, donations
}

func TestService_Ledger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, donations := fixture()

	repo := campaign.NewMockRepository(ctrl)
	repo.EXPECT().GetCampaign(gomock.Any(), c.ID).Return(c, nil)
	repo.EXPECT().ListDonations(gomock.Any(), c.ID).Return(donations, nil)

	svc := export.NewService(campaign.NewService(repo), "kzt")

	var buf bytes.Buffer
	require.NoError(t, svc.Ledger(context.Background(), c.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Donations")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Transaction", rows[0][9])
	assert.Equal(t, "2026-03-14 09:30:00", rows[1][0])
	assert.Equal(t, "donor-1", rows[1][2])
	assert.Equal(t, "USD", rows[1][6])
	assert.Equal(t, "0.002", rows[1][8])
	assert.Equal(t, "cs_test_1", rows[1][9])
}

func TestService_Ledger_LargeAmountsKeepCents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, donations := fixture()
	donations[0].AmountCharged = decimal.RequireFromString("430.10")
	donations[0].AmountCredited = decimal.RequireFromString("92233720368547.75")

	repo := campaign.NewMockRepository(ctrl)
	repo.EXPECT().GetCampaign(gomock.Any(), c.ID).Return(c, nil)
	repo.EXPECT().ListDonations(gomock.Any(), c.ID).Return(donations, nil)

	var buf bytes.Buffer
	require.NoError(t, export.NewService(campaign.NewService(repo), "kzt").Ledger(context.Background(), c.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	credited, err := f.GetCellValue("Donations", "H2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "92233720368547.75", credited)

	charged, err := f.GetCellValue("Donations", "F2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "430.10", charged)

	typ, err := f.GetCellType("Donations", "H2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestService_Ledger_CampaignNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()

	repo := campaign.NewMockRepository(ctrl)
	repo.EXPECT().GetCampaign(gomock.Any(), id).Return(nil, campaign.ErrNotFound)

	var buf bytes.Buffer
	err := export.NewService(campaign.NewService(repo), "kzt").Ledger(context.Background(), id, &buf)
	assert.ErrorIs(t, err, campaign.ErrNotFound)
	assert.Zero(t, buf.Len())
}

func TestService_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, donations := fixture()

	repo := campaign.NewMockRepository(ctrl)
	repo.EXPECT().GetCampaign(gomock.Any(), c.ID).Return(c, nil)
	repo.EXPECT().ListDonations(gomock.Any(), c.ID).Return(donations, nil)

	got, err := export.NewService(campaign.NewService(repo), "kzt").Summary(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Contains(t, got, "Surgery for Biscuit [completed]")
	assert.Contains(t, got, "(100%)")
	assert.Contains(t, got, "Remaining: none")
	assert.Contains(t, got, "Donations: 1")
	assert.Contains(t, got, "* 2026-03-14 | donor-1 | KZT")
}

func TestFilename(t *testing.T) {
	c := &campaign.Campaign{ID: uuid.New(), Title: "Surgery for Biscuit!"}

	got := export.Filename(c, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "20260314_Surgery_for_Biscuit_.xlsx", got)
}
