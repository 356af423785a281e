package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

type campaignResponse struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	OrganizationID string          `json:"organizationId"`
	SubjectID      string          `json:"subjectId"`
	Currency       string          `json:"currency"`
	GoalAmount     decimal.Decimal `json:"goalAmount"`
	RaisedAmount   decimal.Decimal `json:"raisedAmount"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentFunded  int             `json:"percentFunded"`
	State          campaign.State  `json:"state"`
	Display        displayAmounts  `json:"display"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

type displayAmounts struct {
	Goal      string `json:"goal"`
	Raised    string `json:"raised"`
	Remaining string `json:"remaining"`
}

type donationResponse struct {
	ID                    uuid.UUID               `json:"id"`
	DonorID               string                  `json:"donorId"`
	BeneficiaryOrgID      string                  `json:"beneficiaryOrgId"`
	BeneficiarySubjectID  string                  `json:"beneficiarySubjectId"`
	AmountCharged         decimal.Decimal         `json:"amountCharged"`
	ChargedCurrency       string                  `json:"chargedCurrency"`
	AmountCredited        decimal.Decimal         `json:"amountCredited"`
	ConversionRate        decimal.Decimal         `json:"conversionRate"`
	ExternalTransactionID string                  `json:"externalTransactionId"`
	Status                campaign.DonationStatus `json:"status"`
	CreatedAt             time.Time               `json:"createdAt"`
}

func toResponse(c *campaign.Campaign, currency string, lang language.Tag) campaignResponse {
	remaining := decimal.Max(c.Remaining(), decimal.Zero)

	return campaignResponse{
		ID:             c.ID,
		Title:          c.Title,
		OrganizationID: c.OrganizationID,
		SubjectID:      c.SubjectID,
		Currency:       currency,
		GoalAmount:     c.GoalAmount,
		RaisedAmount:   c.RaisedAmount,
		Remaining:      remaining,
		PercentFunded:  money.PercentFunded(c.RaisedAmount, c.GoalAmount),
		State:          c.State,
		Display: displayAmounts{
			Goal:      money.Format(c.GoalAmount, currency, lang),
			Raised:    money.Format(c.RaisedAmount, currency, lang),
			Remaining: money.Format(remaining, currency, lang),
		},
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		CompletedAt: c.CompletedAt,
	}
}

func toResponseList(cs []*campaign.Campaign, currency string, lang language.Tag) []campaignResponse {
	resp := make([]campaignResponse, len(cs))
	for i, c := range cs {
		resp[i] = toResponse(c, currency, lang)
	}

	return resp
}

func toDonationList(ds []*campaign.Donation) []donationResponse {
	resp := make([]donationResponse, len(ds))
	for i, d := range ds {
		resp[i] = donationResponse{
			ID:                    d.ID,
			DonorID:               d.DonorID,
			BeneficiaryOrgID:      d.BeneficiaryOrgID,
			BeneficiarySubjectID:  d.BeneficiarySubjectID,
			AmountCharged:         d.AmountCharged,
			ChargedCurrency:       d.ChargedCurrency,
			AmountCredited:        d.AmountCredited,
			ConversionRate:        d.ConversionRate,
			ExternalTransactionID: d.ExternalTransactionID,
			Status:                d.Status,
			CreatedAt:             d.CreatedAt,
		}
	}

	return resp
}
