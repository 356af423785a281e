package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=campaign
type Repository interface {
	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	ListCampaigns(ctx context.Context, filter ListFilter) ([]*Campaign, error)

	ListDonations(ctx context.Context, campaignID uuid.UUID) ([]*Donation, error)
	// GetDonationByExternalID returns nil without an error when no donation
	// carries the given external transaction id.
	GetDonationByExternalID(ctx context.Context, externalID string) (*Donation, error)

	BeginReconcile(ctx context.Context) (ReconcileTx, error)
}

// ReconcileTx groups the donation insert and the campaign progress update into
// one atomic unit. Nothing is visible to other callers until Commit.
type ReconcileTx interface {
	// InsertDonation fails with ErrDuplicateDonation when the external
	// transaction id is already recorded.
	InsertDonation(ctx context.Context, d *Donation) error
	// IncrementRaised adds amount to the campaign's raised amount in place and
	// returns the updated campaign.
	IncrementRaised(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*Campaign, error)
	MarkCompleted(ctx context.Context, campaignID uuid.UUID) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Title          string
	OrganizationID string
	SubjectID      string
	GoalAmount     decimal.Decimal
}

type ListFilter struct {
	State *State
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Campaign, error) {
	if !params.GoalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: goal amount must be positive", ErrInvalidCampaign)
	}

	if strings.TrimSpace(params.OrganizationID) == "" || strings.TrimSpace(params.SubjectID) == "" {
		return nil, fmt.Errorf("%w: organization and subject are required", ErrInvalidCampaign)
	}

	c := &Campaign{
		Title:          strings.TrimSpace(params.Title),
		OrganizationID: params.OrganizationID,
		SubjectID:      params.SubjectID,
		GoalAmount:     params.GoalAmount,
		RaisedAmount:   decimal.Zero,
		State:          StateActive,
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Campaign, error) {
	return s.repo.ListCampaigns(ctx, filter)
}

func (s *Service) Donations(ctx context.Context, campaignID uuid.UUID) ([]*Donation, error) {
	return s.repo.ListDonations(ctx, campaignID)
}
