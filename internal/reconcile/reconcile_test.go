package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/reconcile"
	"github.com/MrJamesThe3rd/pawfund/internal/webhook"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func completedEvent(campaignID uuid.UUID, txID, requested string) *webhook.Event {
	intent := campaign.Intent{
		CampaignID:           campaignID,
		DonorID:              "donor-1",
		BeneficiaryOrgID:     "org-7",
		BeneficiarySubjectID: "pet-42",
		RequestedAmount:      dec(requested),
		ConversionRate:       dec("0.002"),
	}

	return &webhook.Event{
		ID:   "evt_" + txID,
		Type: webhook.EventPaymentCompleted,
		Payment: &webhook.Payment{
			TransactionID: txID,
			AmountCharged: dec(requested).Mul(dec("0.002")),
			Currency:      "usd",
			Metadata:      intent.Metadata(),
		},
	}
}

func TestReconciler_Reconcile(t *testing.T) {
	campaignID := uuid.New()
	donationID := uuid.New()

	active := &campaign.Campaign{
		ID:           campaignID,
		GoalAmount:   dec("250000"),
		RaisedAmount: dec("35000"),
		State:        campaign.StateActive,
	}

	type testCase struct {
		name      string
		event     *webhook.Event
		setupMock func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx)
		want      *reconcile.Result
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "AppliedAndCompletesCampaign",
			event: completedEvent(campaignID, "cs_1", "215000"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_1").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().
					InsertDonation(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, d *campaign.Donation) error {
						assert.Equal(t, "cs_1", d.ExternalTransactionID)
						assert.True(t, dec("215000").Equal(d.AmountCredited))
						assert.True(t, dec("430").Equal(d.AmountCharged))
						assert.Equal(t, "org-7", d.BeneficiaryOrgID)
						assert.Equal(t, campaign.DonationSucceeded, d.Status)
						d.ID = donationID
						return nil
					})
				rtx.EXPECT().IncrementRaised(gomock.Any(), campaignID, gomock.Any()).Return(&campaign.Campaign{
					ID:           campaignID,
					GoalAmount:   dec("250000"),
					RaisedAmount: dec("250000"),
					State:        campaign.StateActive,
				}, nil)
				rtx.EXPECT().MarkCompleted(gomock.Any(), campaignID).Return(nil)
				rtx.EXPECT().Commit().Return(nil)
				rtx.EXPECT().Rollback().Return(nil)
			},
			want: &reconcile.Result{
				Outcome:           reconcile.OutcomeApplied,
				DonationID:        donationID,
				CampaignID:        campaignID,
				NewRaisedAmount:   dec("250000"),
				CampaignCompleted: true,
				CompletedNow:      true,
			},
		},
		{
			name:  "AppliedBelowGoal",
			event: completedEvent(campaignID, "cs_2", "1000"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_2").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().InsertDonation(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().IncrementRaised(gomock.Any(), campaignID, gomock.Any()).Return(&campaign.Campaign{
					ID:           campaignID,
					GoalAmount:   dec("250000"),
					RaisedAmount: dec("36000"),
					State:        campaign.StateActive,
				}, nil)
				rtx.EXPECT().Commit().Return(nil)
				rtx.EXPECT().Rollback().Return(nil)
			},
			want: &reconcile.Result{
				Outcome:         reconcile.OutcomeApplied,
				CampaignID:      campaignID,
				NewRaisedAmount: dec("36000"),
			},
		},
		{
			name:  "OverFundingCompletedCampaign",
			event: completedEvent(campaignID, "cs_3", "5000"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_3").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().InsertDonation(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().IncrementRaised(gomock.Any(), campaignID, gomock.Any()).Return(&campaign.Campaign{
					ID:           campaignID,
					GoalAmount:   dec("250000"),
					RaisedAmount: dec("255000"),
					State:        campaign.StateCompleted,
				}, nil)
				rtx.EXPECT().Commit().Return(nil)
				rtx.EXPECT().Rollback().Return(nil)
			},
			want: &reconcile.Result{
				Outcome:           reconcile.OutcomeApplied,
				CampaignID:        campaignID,
				NewRaisedAmount:   dec("255000"),
				CampaignCompleted: true,
			},
		},
		{
			name:  "AlreadyProcessed",
			event: completedEvent(campaignID, "cs_1", "215000"),
			setupMock: func(repo *campaign.MockRepository, _ *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_1").Return(&campaign.Donation{
					ID:         donationID,
					CampaignID: campaignID,
				}, nil)
			},
			want: &reconcile.Result{
				Outcome:    reconcile.OutcomeAlreadyProcessed,
				DonationID: donationID,
				CampaignID: campaignID,
			},
		},
		{
			name:  "LostUniquenessRace",
			event: completedEvent(campaignID, "cs_1", "215000"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_1").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().InsertDonation(gomock.Any(), gomock.Any()).Return(campaign.ErrDuplicateDonation)
				rtx.EXPECT().Rollback().Return(nil)
			},
			want: &reconcile.Result{
				Outcome:    reconcile.OutcomeAlreadyProcessed,
				CampaignID: campaignID,
			},
		},
		{
			name:  "Ignored",
			event: &webhook.Event{ID: "evt_x", Type: webhook.EventIgnored, ProviderType: "customer.created"},
			want:  &reconcile.Result{Outcome: reconcile.OutcomeIgnored},
		},
		{
			name: "MissingTransactionID",
			event: &webhook.Event{
				Type:    webhook.EventPaymentCompleted,
				Payment: &webhook.Payment{Metadata: map[string]string{}},
			},
			wantErr: campaign.ErrIncompleteMetadata,
		},
		{
			name: "IncompleteMetadata",
			event: &webhook.Event{
				Type: webhook.EventPaymentCompleted,
				Payment: &webhook.Payment{
					TransactionID: "cs_9",
					Metadata:      map[string]string{campaign.MetaCampaignID: campaignID.String()},
				},
			},
			wantErr: campaign.ErrIncompleteMetadata,
		},
		{
			name:    "SubCentRequestedAmount",
			event:   completedEvent(campaignID, "cs_10", "99.996"),
			wantErr: campaign.ErrIncompleteMetadata,
		},
		{
			name:  "CampaignNotFound",
			event: completedEvent(campaignID, "cs_4", "100"),
			setupMock: func(repo *campaign.MockRepository, _ *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_4").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(nil, campaign.ErrNotFound)
			},
			wantErr: campaign.ErrNotFound,
		},
		{
			name:  "LookupFailureIsTransient",
			event: completedEvent(campaignID, "cs_5", "100"),
			setupMock: func(repo *campaign.MockRepository, _ *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_5").Return(nil, errors.New("connection refused"))
			},
			wantErr: reconcile.ErrTransient,
		},
		{
			name:  "IncrementFailureIsTransient",
			event: completedEvent(campaignID, "cs_6", "100"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_6").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().InsertDonation(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().IncrementRaised(gomock.Any(), campaignID, gomock.Any()).Return(nil, errors.New("deadlock detected"))
				rtx.EXPECT().Rollback().Return(nil)
			},
			wantErr: reconcile.ErrTransient,
		},
		{
			name:  "CommitFailureIsTransient",
			event: completedEvent(campaignID, "cs_7", "100"),
			setupMock: func(repo *campaign.MockRepository, rtx *campaign.MockReconcileTx) {
				repo.EXPECT().GetDonationByExternalID(gomock.Any(), "cs_7").Return(nil, nil)
				repo.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(active, nil)
				repo.EXPECT().BeginReconcile(gomock.Any()).Return(rtx, nil)
				rtx.EXPECT().InsertDonation(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().IncrementRaised(gomock.Any(), campaignID, gomock.Any()).Return(&campaign.Campaign{
					ID:           campaignID,
					GoalAmount:   dec("250000"),
					RaisedAmount: dec("35100"),
					State:        campaign.StateActive,
				}, nil)
				rtx.EXPECT().Commit().Return(errors.New("connection reset"))
				rtx.EXPECT().Rollback().Return(nil)
			},
			wantErr: reconcile.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := campaign.NewMockRepository(ctrl)
			rtx := campaign.NewMockReconcileTx(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, rtx)
			}

			got, err := reconcile.New(repo).Reconcile(context.Background(), tt.event)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Outcome, got.Outcome)
			assert.Equal(t, tt.want.DonationID, got.DonationID)
			assert.Equal(t, tt.want.CampaignID, got.CampaignID)
			assert.True(t, tt.want.NewRaisedAmount.Equal(got.NewRaisedAmount), "raised %s", got.NewRaisedAmount)
			assert.Equal(t, tt.want.CampaignCompleted, got.CampaignCompleted)
			assert.Equal(t, tt.want.CompletedNow, got.CompletedNow)
		})
	}
}
