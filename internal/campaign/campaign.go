package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State represents the lifecycle state of a campaign.
type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// DonationStatus represents the settlement state of a donation. Only successful
// payments are ever persisted.
type DonationStatus string

const (
	DonationSucceeded DonationStatus = "succeeded"
)

// Campaign is a fundraising goal attached to a case (usually a pet).
// Amounts are in the campaign's currency of record.
type Campaign struct {
	ID             uuid.UUID
	Title          string
	OrganizationID string
	SubjectID      string
	GoalAmount     decimal.Decimal
	RaisedAmount   decimal.Decimal
	State          State
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	CompletedAt    *time.Time
}

// Remaining returns how much is left until the goal. It is negative for
// over-funded campaigns.
func (c *Campaign) Remaining() decimal.Decimal {
	return c.GoalAmount.Sub(c.RaisedAmount)
}

// GoalReached reports whether the raised amount covers the goal.
func (c *Campaign) GoalReached() bool {
	return c.RaisedAmount.GreaterThanOrEqual(c.GoalAmount)
}

// Donation is an immutable ledger entry for one captured payment.
type Donation struct {
	ID                    uuid.UUID
	CampaignID            uuid.UUID
	DonorID               string
	BeneficiaryOrgID      string
	BeneficiarySubjectID  string
	AmountCharged         decimal.Decimal // settlement currency
	ChargedCurrency       string
	AmountCredited        decimal.Decimal // campaign currency
	ConversionRate        decimal.Decimal
	ExternalTransactionID string
	Status                DonationStatus
	CreatedAt             time.Time
}
