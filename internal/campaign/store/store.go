package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
)

const (
	uniqueViolation          = "23505"
	donationExternalIDUnique = "donations_external_transaction_id_key"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectCampaignColumns = `
	id, title, organization_id, subject_id, goal_amount, raised_amount, state,
	created_at, updated_at, completed_at
`

// scanCampaign expects the column order of selectCampaignColumns.
func scanCampaign(s scanner) (*campaign.Campaign, error) {
	var c campaign.Campaign

	var state string

	if err := s.Scan(
		&c.ID, &c.Title, &c.OrganizationID, &c.SubjectID, &c.GoalAmount, &c.RaisedAmount, &state,
		&c.CreatedAt, &c.UpdatedAt, &c.CompletedAt,
	); err != nil {
		return nil, err
	}

	c.State = campaign.State(state)

	return &c, nil
}

const selectDonationColumns = `
	id, campaign_id, donor_id, beneficiary_org_id, beneficiary_subject_id,
	amount_charged, charged_currency, amount_credited, conversion_rate,
	external_transaction_id, status, created_at
`

func scanDonation(s scanner) (*campaign.Donation, error) {
	var d campaign.Donation

	var status string

	if err := s.Scan(
		&d.ID, &d.CampaignID, &d.DonorID, &d.BeneficiaryOrgID, &d.BeneficiarySubjectID,
		&d.AmountCharged, &d.ChargedCurrency, &d.AmountCredited, &d.ConversionRate,
		&d.ExternalTransactionID, &status, &d.CreatedAt,
	); err != nil {
		return nil, err
	}

	d.Status = campaign.DonationStatus(status)

	return &d, nil
}

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	query := `
		INSERT INTO campaigns (title, organization_id, subject_id, goal_amount, raised_amount, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Title,
		c.OrganizationID,
		c.SubjectID,
		c.GoalAmount,
		c.RaisedAmount,
		c.State,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating campaign: %w", err)
	}

	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	query := `SELECT ` + selectCampaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, campaign.ErrNotFound
		}

		return nil, fmt.Errorf("getting campaign: %w", err)
	}

	return c, nil
}

func (s *Store) ListCampaigns(ctx context.Context, filter campaign.ListFilter) ([]*campaign.Campaign, error) {
	query := `SELECT ` + selectCampaignColumns + ` FROM campaigns`

	var args []any

	if filter.State != nil {
		query += " WHERE state = $1"

		args = append(args, *filter.State)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*campaign.Campaign

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}

		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaign rows: %w", err)
	}

	return campaigns, nil
}

func (s *Store) ListDonations(ctx context.Context, campaignID uuid.UUID) ([]*campaign.Donation, error) {
	query := `SELECT ` + selectDonationColumns + `
		FROM donations
		WHERE campaign_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []*campaign.Donation

	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}

		donations = append(donations, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating donation rows: %w", err)
	}

	return donations, nil
}

func (s *Store) GetDonationByExternalID(ctx context.Context, externalID string) (*campaign.Donation, error) {
	query := `SELECT ` + selectDonationColumns + ` FROM donations WHERE external_transaction_id = $1`

	d, err := scanDonation(s.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting donation: %w", err)
	}

	return d, nil
}

type reconcileTx struct {
	tx *sql.Tx
}

func (s *Store) BeginReconcile(ctx context.Context) (campaign.ReconcileTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reconcile tx: %w", err)
	}

	return &reconcileTx{tx: dbTx}, nil
}

func (rtx *reconcileTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *reconcileTx) Rollback() error { return rtx.tx.Rollback() }

// InsertDonation relies on the unique index over external_transaction_id. A
// concurrent insert of the same key blocks until the first transaction ends
// and then fails with a unique violation.
func (rtx *reconcileTx) InsertDonation(ctx context.Context, d *campaign.Donation) error {
	query := `
		INSERT INTO donations (
			campaign_id, donor_id, beneficiary_org_id, beneficiary_subject_id,
			amount_charged, charged_currency, amount_credited, conversion_rate,
			external_transaction_id, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	err := rtx.tx.QueryRowContext(ctx, query,
		d.CampaignID,
		d.DonorID,
		d.BeneficiaryOrgID,
		d.BeneficiarySubjectID,
		d.AmountCharged,
		d.ChargedCurrency,
		d.AmountCredited,
		d.ConversionRate,
		d.ExternalTransactionID,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if isDuplicateDonation(err) {
			return campaign.ErrDuplicateDonation
		}

		return fmt.Errorf("inserting donation: %w", err)
	}

	return nil
}

// IncrementRaised adds in SQL rather than writing back a value read earlier,
// so concurrent increments on the same campaign are never lost.
func (rtx *reconcileTx) IncrementRaised(ctx context.Context, campaignID uuid.UUID, amount decimal.Decimal) (*campaign.Campaign, error) {
	query := `
		UPDATE campaigns
		SET raised_amount = raised_amount + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + selectCampaignColumns

	c, err := scanCampaign(rtx.tx.QueryRowContext(ctx, query, amount, campaignID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, campaign.ErrNotFound
		}

		return nil, fmt.Errorf("incrementing raised amount: %w", err)
	}

	return c, nil
}

// MarkCompleted is a no-op for campaigns that are already completed.
func (rtx *reconcileTx) MarkCompleted(ctx context.Context, campaignID uuid.UUID) error {
	query := `
		UPDATE campaigns
		SET state = $1, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND state <> $1
	`

	if _, err := rtx.tx.ExecContext(ctx, query, campaign.StateCompleted, campaignID); err != nil {
		return fmt.Errorf("marking campaign completed: %w", err)
	}

	return nil
}

func isDuplicateDonation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == donationExternalIDUnique
}
