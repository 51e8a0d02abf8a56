package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SchedulerOptions holds scheduling tunables.
type SchedulerOptions struct {
	// Location is the reference timezone for daily period boundaries.
	Location *time.Location
	// RunGuardTTL bounds how long a triggered (campaign, period) marker
	// lives; it must outlast one period so a retriggered tick within the
	// same day is still absorbed.
	RunGuardTTL time.Duration
}

// CampaignSchedulerImpl implements ports.CampaignScheduler.
//
// Triggering a campaign is guarded three deep: the in-period check on
// lastRunAt, the Redis per-period marker, and finally the conditional
// SCHEDULED -> RUNNING update inside the dispatcher. Only the last one is
// authoritative; the first two keep redundant dispatch attempts cheap.
type CampaignSchedulerImpl struct {
	campaignRepo ports.CampaignRepository
	runGuard     ports.RunGuard
	dispatcher   ports.CampaignDispatcher
	opts         SchedulerOptions
	log          zerolog.Logger
}

// NewCampaignScheduler creates a new CampaignSchedulerImpl.
func NewCampaignScheduler(
	campaignRepo ports.CampaignRepository,
	runGuard ports.RunGuard,
	dispatcher ports.CampaignDispatcher,
	opts SchedulerOptions,
	log zerolog.Logger,
) *CampaignSchedulerImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &CampaignSchedulerImpl{
		campaignRepo: campaignRepo,
		runGuard:     runGuard,
		dispatcher:   dispatcher,
		opts:         opts,
		log:          log,
	}
}

// Tick triggers every campaign due at now and returns the ids it actually
// dispatched. One misbehaving campaign never blocks the rest of the batch.
func (s *CampaignSchedulerImpl) Tick(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	due, err := s.campaignRepo.FindDue(ctx, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find due campaigns: %w", err))
	}

	triggered := make([]uuid.UUID, 0, len(due))
	for i := range due {
		c := &due[i]
		if !c.IsDue(now) {
			continue
		}
		if c.RanInPeriod(now, s.opts.Location) {
			s.log.Debug().Str("campaign_id", c.ID.String()).Msg("already ran this period, skipping")
			continue
		}

		ok, gerr := s.runGuard.MarkTriggered(ctx, c.ID, s.periodKey(c, now), s.opts.RunGuardTTL)
		if gerr != nil {
			s.log.Error().Err(gerr).Str("campaign_id", c.ID.String()).Msg("run guard unavailable, skipping campaign")
			continue
		}
		if !ok {
			s.log.Debug().Str("campaign_id", c.ID.String()).Msg("another tick already triggered this period")
			continue
		}

		report, derr := s.dispatcher.Dispatch(ctx, c.ID)
		if derr != nil {
			s.log.Error().Err(derr).Str("campaign_id", c.ID.String()).Msg("campaign dispatch failed")
			continue
		}

		triggered = append(triggered, c.ID)
		s.log.Info().
			Str("campaign_id", c.ID.String()).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Msg("campaign triggered")
	}

	return triggered, nil
}

// EnsureDailyCampaign creates today's instance of a recurring-daily
// template if none exists for the current period. Safe to call any number
// of times per day: the unique (template_id, period_key) index arbitrates,
// and losers reread the winner's row.
func (s *CampaignSchedulerImpl) EnsureDailyCampaign(ctx context.Context, templateID string) (*domain.CampaignRecord, error) {
	tmpl, err := s.campaignRepo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get template: %w", err))
	}
	if tmpl == nil {
		return nil, apperror.ErrCampaignNotFound()
	}
	if tmpl.Type != domain.CampaignTypeRecurringDaily {
		return nil, apperror.Validation(fmt.Sprintf("template %s is not recurring daily", templateID))
	}

	now := time.Now()
	periodKey := domain.DailyPeriodKey(now, s.opts.Location)
	y, m, d := now.In(s.opts.Location).Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, s.opts.Location)

	inst := domain.NewDailyInstance(tmpl, periodKey, startOfDay)
	created, err := s.campaignRepo.CreateInstance(ctx, inst)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create daily instance: %w", err))
	}
	if !created {
		existing, gerr := s.campaignRepo.GetInstance(ctx, templateID, periodKey)
		if gerr != nil || existing == nil {
			return nil, apperror.InternalError(fmt.Errorf("reread daily instance: %w", gerr))
		}
		return existing, nil
	}

	s.log.Info().
		Str("template_id", templateID).
		Str("period_key", periodKey).
		Str("campaign_id", inst.ID.String()).
		Msg("daily campaign instance created")
	return inst, nil
}

// periodKey identifies the trigger period for the run guard: the instance
// period when it has one, otherwise the calendar day.
func (s *CampaignSchedulerImpl) periodKey(c *domain.CampaignRecord, now time.Time) string {
	if c.PeriodKey != nil {
		return *c.PeriodKey
	}
	return domain.DailyPeriodKey(now, s.opts.Location)
}
