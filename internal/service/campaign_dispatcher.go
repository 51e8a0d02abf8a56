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

// CampaignDispatcherImpl implements ports.CampaignDispatcher.
type CampaignDispatcherImpl struct {
	campaignRepo ports.CampaignRepository
	resolver     ports.RecipientResolver
	renderer     ports.TemplateRenderer
	mailer       ports.Mailer
	log          zerolog.Logger
}

// NewCampaignDispatcher creates a new CampaignDispatcherImpl.
func NewCampaignDispatcher(
	campaignRepo ports.CampaignRepository,
	resolver ports.RecipientResolver,
	renderer ports.TemplateRenderer,
	mailer ports.Mailer,
	log zerolog.Logger,
) *CampaignDispatcherImpl {
	return &CampaignDispatcherImpl{
		campaignRepo: campaignRepo,
		resolver:     resolver,
		renderer:     renderer,
		mailer:       mailer,
		log:          log,
	}
}

// Dispatch executes one campaign run end to end: the conditional
// SCHEDULED -> RUNNING update is the authoritative admission gate, the
// recipient batch is then attempted, and the campaign lands in COMPLETED
// as long as the batch was attempted at all. Per-recipient failures never
// abort the batch; they are collected in the report. FAILED is reserved
// for runs where the batch could not even be attempted.
func (s *CampaignDispatcherImpl) Dispatch(ctx context.Context, campaignID uuid.UUID) (*domain.DispatchReport, error) {
	c, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get campaign: %w", err))
	}
	if c == nil {
		return nil, apperror.ErrCampaignNotFound()
	}

	ok, err := s.campaignRepo.TransitionStatus(ctx, campaignID,
		domain.CampaignStatusScheduled, domain.CampaignStatusRunning, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark running: %w", err))
	}
	if !ok {
		return nil, apperror.ErrCampaignNotDispatchable(string(c.Status))
	}

	recipients, err := s.resolver.Resolve(ctx, c.RecipientFilter)
	if err != nil {
		s.markFailed(ctx, campaignID)
		return nil, apperror.ErrDispatchFailed(fmt.Errorf("resolve recipients: %w", err))
	}

	report := &domain.DispatchReport{CampaignID: campaignID}
	for _, r := range recipients {
		if r.Email == "" {
			report.Skipped++
			continue
		}
		if err := s.sendOne(ctx, c, r); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.DispatchOutcome{
				Recipient: r.Email,
				Error:     err.Error(),
			})
			s.log.Warn().Err(err).
				Str("campaign_id", campaignID.String()).
				Str("recipient", r.Email).
				Msg("recipient delivery failed")
			continue
		}
		report.Sent++
	}

	now := time.Now().UTC()
	if _, err := s.campaignRepo.TransitionStatus(ctx, campaignID,
		domain.CampaignStatusRunning, domain.CampaignStatusCompleted, &now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark completed: %w", err))
	}

	if c.Type == domain.CampaignTypeDripSequence && c.HasNextDripStep() {
		s.chainNextStep(ctx, c, now)
	}

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("campaign dispatched")
	return report, nil
}

// sendOne renders and delivers the campaign message to one recipient.
func (s *CampaignDispatcherImpl) sendOne(ctx context.Context, c *domain.CampaignRecord, r ports.Recipient) error {
	body, err := s.renderer.Render(c.MessageTemplate, map[string]any{
		"Name":     r.Name,
		"Email":    r.Email,
		"Campaign": c.Name,
	})
	if err != nil {
		return fmt.Errorf("render template %s: %w", c.MessageTemplate, err)
	}
	return s.mailer.Send(ctx, ports.OutboundEmail{
		To:      r.Email,
		Subject: c.Subject,
		HTML:    body,
	})
}

// chainNextStep schedules the following drip step relative to this run.
// Best-effort: a broken chain is logged, never turned into a dispatch
// failure for the step that already ran.
func (s *CampaignDispatcherImpl) chainNextStep(ctx context.Context, c *domain.CampaignRecord, ranAt time.Time) {
	delay := c.StepDelays[c.DripStep+1]
	next := domain.NextDripInstance(c, c.DripStep, ranAt.Add(delay))
	created, err := s.campaignRepo.CreateInstance(ctx, next)
	if err != nil {
		s.log.Error().Err(err).
			Str("campaign_id", c.ID.String()).
			Int("next_step", c.DripStep+1).
			Msg("failed to schedule next drip step")
		return
	}
	if created {
		s.log.Info().
			Str("campaign_id", next.ID.String()).
			Str("template_id", next.TemplateID).
			Int("step", next.DripStep).
			Time("scheduled_for", *next.ScheduledFor).
			Msg("next drip step scheduled")
	}
}

// markFailed is the unattemptable-batch path.
func (s *CampaignDispatcherImpl) markFailed(ctx context.Context, campaignID uuid.UUID) {
	if _, err := s.campaignRepo.TransitionStatus(ctx, campaignID,
		domain.CampaignStatusRunning, domain.CampaignStatusFailed, nil); err != nil {
		s.log.Error().Err(err).Str("campaign_id", campaignID.String()).Msg("failed to mark campaign failed")
	}
}
