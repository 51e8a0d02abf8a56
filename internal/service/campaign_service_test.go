package service

import (
	"context"
	"testing"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCampaignService_Create_OneOff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(repo, zerolog.Nop())

	at := time.Now().UTC().Add(time.Hour)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.CampaignRecord) error {
			assert.Equal(t, domain.CampaignStatusScheduled, c.Status)
			require.NotNil(t, c.ScheduledFor)
			return nil
		})

	c, err := svc.Create(context.Background(), ports.CreateCampaignRequest{
		Name:            "Flash Sale",
		Type:            domain.CampaignTypeOneOff,
		ScheduledFor:    &at,
		RecipientFilter: "all-customers",
		MessageTemplate: "flash-v1",
		Subject:         "Flash sale",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusScheduled, c.Status)
}

func TestCampaignService_Create_OneOffWithoutSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewCampaignService(mocks.NewMockCampaignRepository(ctrl), zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateCampaignRequest{
		Name:            "Flash Sale",
		Type:            domain.CampaignTypeOneOff,
		RecipientFilter: "all-customers",
		MessageTemplate: "flash-v1",
	})
	assertAppError(t, err, "PAY_000")
}

func TestCampaignService_Create_DailyTemplateStaysDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(repo, zerolog.Nop())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.CampaignRecord) error {
			assert.Equal(t, domain.CampaignStatusDraft, c.Status)
			assert.Nil(t, c.PeriodKey)
			return nil
		})

	c, err := svc.Create(context.Background(), ports.CreateCampaignRequest{
		Name:            "Daily Digest",
		Type:            domain.CampaignTypeRecurringDaily,
		TemplateID:      "daily-digest",
		RecipientFilter: "subscribers",
		MessageTemplate: "digest-v1",
		Subject:         "Your digest",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusDraft, c.Status)
}

func TestCampaignService_Create_DripMintsFirstStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(repo, zerolog.Nop())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().CreateInstance(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, inst *domain.CampaignRecord) (bool, error) {
			assert.Equal(t, 0, inst.DripStep)
			require.NotNil(t, inst.PeriodKey)
			assert.Equal(t, "step-0", *inst.PeriodKey)
			require.NotNil(t, inst.ScheduledFor)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), *inst.ScheduledFor, time.Minute)
			return true, nil
		})

	_, err := svc.Create(context.Background(), ports.CreateCampaignRequest{
		Name:            "Onboarding",
		Type:            domain.CampaignTypeDripSequence,
		TemplateID:      "onboarding",
		RecipientFilter: "new-signups",
		MessageTemplate: "welcome-v1",
		Subject:         "Welcome",
		StepDelays:      []time.Duration{24 * time.Hour, 72 * time.Hour},
	})
	require.NoError(t, err)
}

func TestCampaignService_Create_DripWithoutDelays(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewCampaignService(mocks.NewMockCampaignRepository(ctrl), zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateCampaignRequest{
		Name:            "Onboarding",
		Type:            domain.CampaignTypeDripSequence,
		TemplateID:      "onboarding",
		RecipientFilter: "new-signups",
		MessageTemplate: "welcome-v1",
	})
	assertAppError(t, err, "PAY_000")
}

func TestCampaignService_List_ClampsPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(repo, zerolog.Nop())

	repo.EXPECT().List(gomock.Any(), 1, 20).Return([]domain.CampaignRecord{}, int64(0), nil)

	_, total, err := svc.List(context.Background(), -3, 9999)
	require.NoError(t, err)
	assert.Zero(t, total)
}
