package intake_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/intake"
)

const sheet = "title;goal;organization;subject\n" +
	"Surgery for Biscuit;250 000,00;org-7;pet-42\n" +
	"Zero goal;0;org-7;pet-43\n" +
	"Vaccines for Luna;12 500;org-7;pet-44\n"

func TestService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := campaign.NewMockRepository(ctrl)
	repo.EXPECT().
		CreateCampaign(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *campaign.Campaign) error {
			c.ID = uuid.New()
			return nil
		}).
		Times(1)
	repo.EXPECT().CreateCampaign(gomock.Any(), gomock.Any()).Return(errors.New("db error"))

	report, err := intake.NewService(campaign.NewService(repo)).Import(context.Background(), strings.NewReader(sheet), false)
	require.NoError(t, err)

	assert.Len(t, report.Parsed, 3)
	require.Len(t, report.Created, 1)
	assert.Equal(t, "Surgery for Biscuit", report.Created[0].Title)

	require.Len(t, report.Failed, 2)
	assert.Equal(t, 3, report.Failed[0].Line)
	assert.ErrorIs(t, report.Failed[0].Err, campaign.ErrInvalidCampaign)
	assert.Equal(t, 4, report.Failed[1].Line)
}

func TestService_Import_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	report, err := intake.NewService(campaign.NewService(campaign.NewMockRepository(ctrl))).
		Import(context.Background(), strings.NewReader(sheet), true)
	require.NoError(t, err)

	assert.Len(t, report.Parsed, 3)
	assert.Empty(t, report.Created)
	assert.Empty(t, report.Failed)
}
