// Package reconcile turns verified payment events into exactly one ledger
// entry and one campaign progress update per external transaction.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/webhook"
)

// ErrTransient marks storage failures the provider should retry. A retried
// delivery re-enters reconciliation from the idempotency check.
var ErrTransient = errors.New("transient storage failure")

type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeIgnored          Outcome = "ignored"
)

type Result struct {
	Outcome         Outcome
	DonationID      uuid.UUID
	CampaignID      uuid.UUID
	NewRaisedAmount decimal.Decimal
	// CampaignCompleted reports whether the campaign is completed after the
	// update. CompletedNow is set only for the update that crossed the goal.
	CampaignCompleted bool
	CompletedNow      bool
}

type Reconciler struct {
	repo campaign.Repository
}

func New(repo campaign.Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile applies evt at most once. Duplicate deliveries, including
// concurrent ones, resolve to OutcomeAlreadyProcessed without side effects.
func (r *Reconciler) Reconcile(ctx context.Context, evt *webhook.Event) (*Result, error) {
	if evt.Type != webhook.EventPaymentCompleted {
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	if evt.Payment == nil || evt.Payment.TransactionID == "" {
		return nil, fmt.Errorf("%w: missing transaction id", campaign.ErrIncompleteMetadata)
	}

	intent, err := campaign.ParseIntent(evt.Payment.Metadata)
	if err != nil {
		return nil, err
	}

	existing, err := r.repo.GetDonationByExternalID(ctx, evt.Payment.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up donation: %w", ErrTransient, err)
	}

	if existing != nil {
		return alreadyProcessed(existing), nil
	}

	c, err := r.repo.GetCampaign(ctx, intent.CampaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: loading campaign: %w", ErrTransient, err)
	}

	donation := &campaign.Donation{
		CampaignID:            c.ID,
		DonorID:               intent.DonorID,
		BeneficiaryOrgID:      intent.BeneficiaryOrgID,
		BeneficiarySubjectID:  intent.BeneficiarySubjectID,
		AmountCharged:         evt.Payment.AmountCharged,
		ChargedCurrency:       evt.Payment.Currency,
		AmountCredited:        intent.RequestedAmount,
		ConversionRate:        intent.ConversionRate,
		ExternalTransactionID: evt.Payment.TransactionID,
		Status:                campaign.DonationSucceeded,
	}

	return r.apply(ctx, donation)
}

// apply inserts the donation, increments the campaign and decides completion
// inside one transaction.
func (r *Reconciler) apply(ctx context.Context, d *campaign.Donation) (*Result, error) {
	rtx, err := r.repo.BeginReconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer rtx.Rollback()

	if err := rtx.InsertDonation(ctx, d); err != nil {
		if errors.Is(err, campaign.ErrDuplicateDonation) {
			// Lost the race against a concurrent delivery of the same payment.
			return &Result{Outcome: OutcomeAlreadyProcessed, CampaignID: d.CampaignID}, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	updated, err := rtx.IncrementRaised(ctx, d.CampaignID, d.AmountCredited)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	completedNow := false

	if updated.GoalReached() && updated.State != campaign.StateCompleted {
		if err := rtx.MarkCompleted(ctx, updated.ID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransient, err)
		}

		completedNow = true
	}

	if err := rtx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing: %w", ErrTransient, err)
	}

	return &Result{
		Outcome:           OutcomeApplied,
		DonationID:        d.ID,
		CampaignID:        updated.ID,
		NewRaisedAmount:   updated.RaisedAmount,
		CampaignCompleted: completedNow || updated.State == campaign.StateCompleted,
		CompletedNow:      completedNow,
	}, nil
}

func alreadyProcessed(d *campaign.Donation) *Result {
	return &Result{
		Outcome:    OutcomeAlreadyProcessed,
		DonationID: d.ID,
		CampaignID: d.CampaignID,
	}
}
