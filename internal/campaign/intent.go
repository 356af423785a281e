package campaign

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

// Metadata keys carried on the gateway session. They round-trip unchanged
// through the provider and back on the webhook call.
const (
	MetaCampaignID           = "campaign_id"
	MetaDonorID              = "donor_id"
	MetaBeneficiaryOrgID     = "beneficiary_org_id"
	MetaBeneficiarySubjectID = "beneficiary_subject_id"
	MetaRequestedAmount      = "requested_amount"
	MetaConversionRate       = "conversion_rate"
)

// Intent describes what a checkout session was opened for. It is never
// stored locally; the gateway session metadata is its only record.
type Intent struct {
	CampaignID           uuid.UUID
	DonorID              string
	BeneficiaryOrgID     string
	BeneficiarySubjectID string
	RequestedAmount      decimal.Decimal // campaign currency
	ConversionRate       decimal.Decimal // settlement units per campaign unit
}

// Metadata encodes the intent as gateway session metadata.
func (i Intent) Metadata() map[string]string {
	return map[string]string{
		MetaCampaignID:           i.CampaignID.String(),
		MetaDonorID:              i.DonorID,
		MetaBeneficiaryOrgID:     i.BeneficiaryOrgID,
		MetaBeneficiarySubjectID: i.BeneficiarySubjectID,
		MetaRequestedAmount:      i.RequestedAmount.String(),
		MetaConversionRate:       i.ConversionRate.String(),
	}
}

// ParseIntent decodes session metadata. Every field is required.
func ParseIntent(meta map[string]string) (Intent, error) {
	for _, key := range []string{
		MetaCampaignID, MetaDonorID, MetaBeneficiaryOrgID, MetaBeneficiarySubjectID,
		MetaRequestedAmount, MetaConversionRate,
	} {
		if meta[key] == "" {
			return Intent{}, fmt.Errorf("%w: missing %s", ErrIncompleteMetadata, key)
		}
	}

	campaignID, err := uuid.Parse(meta[MetaCampaignID])
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %s: %v", ErrIncompleteMetadata, MetaCampaignID, err)
	}

	amount, err := decimal.NewFromString(meta[MetaRequestedAmount])
	if err != nil || !amount.IsPositive() {
		return Intent{}, fmt.Errorf("%w: %s must be a positive decimal", ErrIncompleteMetadata, MetaRequestedAmount)
	}

	if !money.HasWholeCents(amount) {
		return Intent{}, fmt.Errorf("%w: %s has sub-cent precision", ErrIncompleteMetadata, MetaRequestedAmount)
	}

	rate, err := decimal.NewFromString(meta[MetaConversionRate])
	if err != nil || !rate.IsPositive() {
		return Intent{}, fmt.Errorf("%w: %s must be a positive decimal", ErrIncompleteMetadata, MetaConversionRate)
	}

	return Intent{
		CampaignID:           campaignID,
		DonorID:              meta[MetaDonorID],
		BeneficiaryOrgID:     meta[MetaBeneficiaryOrgID],
		BeneficiarySubjectID: meta[MetaBeneficiarySubjectID],
		RequestedAmount:      amount,
		ConversionRate:       rate,
	}, nil
}
