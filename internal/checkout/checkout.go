// Package checkout admits donor pledges and opens hosted payment sessions for
// them.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/fx"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

var (
	ErrInvalidAmount      = errors.New("requested amount must be positive")
	ErrMissingDonor       = errors.New("donor is required")
	ErrAlreadyFunded      = errors.New("campaign already funded")
	ErrExceedsRemaining   = errors.New("amount exceeds remaining goal")
	ErrBelowMinimum       = errors.New("amount below gateway minimum")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// SessionRequest is what the gateway needs to open a hosted session. Amount is
// in the settlement currency.
type SessionRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	DonorID     string
	Metadata    map[string]string
}

type Session struct {
	ID  string
	URL string
}

//go:generate mockgen -source=checkout.go -destination=gateway_mock.go -package=checkout
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

type Config struct {
	CampaignCurrency   string
	SettlementCurrency string
	// MinimumCharge is the smallest amount the gateway accepts, in the
	// settlement currency.
	MinimumCharge decimal.Decimal
}

// Issuer validates a pledge against the campaign's current remaining goal and
// opens a gateway session carrying the reconciliation metadata.
//
// The remaining-goal check reads the campaign without a lock, so concurrent
// donors can together be admitted past the goal. Reconciliation accepts
// over-funding; this check only keeps single pledges sensible.
type Issuer struct {
	campaigns *campaign.Service
	rates     fx.Source
	gateway   Gateway
	cfg       Config
}

func NewIssuer(campaigns *campaign.Service, rates fx.Source, gateway Gateway, cfg Config) *Issuer {
	return &Issuer{
		campaigns: campaigns,
		rates:     rates,
		gateway:   gateway,
		cfg:       cfg,
	}
}

type Result struct {
	SessionID      string
	RedirectURL    string
	ChargeAmount   decimal.Decimal
	ConversionRate decimal.Decimal
}

// Open admits a pledge of requestedAmount (campaign currency) from donorID and
// returns where to redirect the donor. Nothing is persisted locally.
func (i *Issuer) Open(ctx context.Context, campaignID uuid.UUID, donorID string, requestedAmount decimal.Decimal) (*Result, error) {
	if !requestedAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Credited amounts are stored to the cent; anything finer would be
	// rounded by storage and drift from what the donor pledged.
	if !money.HasWholeCents(requestedAmount) {
		return nil, fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	if strings.TrimSpace(donorID) == "" {
		return nil, ErrMissingDonor
	}

	c, err := i.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	remaining := c.Remaining()
	if !remaining.IsPositive() {
		return nil, ErrAlreadyFunded
	}

	if requestedAmount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: %s remaining", ErrExceedsRemaining, remaining.StringFixed(2))
	}

	rate, err := i.rates.Rate(ctx, i.cfg.CampaignCurrency, i.cfg.SettlementCurrency)
	if err != nil {
		return nil, fmt.Errorf("getting exchange rate: %w", err)
	}

	charge := money.Convert(requestedAmount, rate)
	if charge.LessThan(i.cfg.MinimumCharge) || money.ToMinor(charge) < 1 {
		return nil, fmt.Errorf("%w: %s %s", ErrBelowMinimum, charge.StringFixed(2), i.cfg.SettlementCurrency)
	}

	intent := campaign.Intent{
		CampaignID:           c.ID,
		DonorID:              donorID,
		BeneficiaryOrgID:     c.OrganizationID,
		BeneficiarySubjectID: c.SubjectID,
		RequestedAmount:      requestedAmount,
		ConversionRate:       rate,
	}

	sess, err := i.gateway.CreateSession(ctx, SessionRequest{
		Amount:      charge,
		Currency:    i.cfg.SettlementCurrency,
		Description: description(c),
		DonorID:     donorID,
		Metadata:    intent.Metadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	return &Result{
		SessionID:      sess.ID,
		RedirectURL:    sess.URL,
		ChargeAmount:   charge,
		ConversionRate: rate,
	}, nil
}

func description(c *campaign.Campaign) string {
	if c.Title != "" {
		return "Donation: " + c.Title
	}

	return "Donation to campaign " + c.ID.String()
}
