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

// CampaignServiceImpl implements ports.CampaignService.
type CampaignServiceImpl struct {
	campaignRepo ports.CampaignRepository
	log          zerolog.Logger
}

// NewCampaignService creates a new CampaignServiceImpl.
func NewCampaignService(campaignRepo ports.CampaignRepository, log zerolog.Logger) *CampaignServiceImpl {
	return &CampaignServiceImpl{campaignRepo: campaignRepo, log: log}
}

// Create persists a new campaign. One-off campaigns are immediately
// SCHEDULED; recurring-daily and drip campaigns are stored as DRAFT
// templates from which period instances are minted. A drip template also
// mints its step-0 instance, which is what starts the sequence.
func (s *CampaignServiceImpl) Create(ctx context.Context, req ports.CreateCampaignRequest) (*domain.CampaignRecord, error) {
	if req.Name == "" {
		return nil, apperror.Validation("campaign name is required")
	}
	if req.RecipientFilter == "" {
		return nil, apperror.Validation("recipient filter is required")
	}
	if req.MessageTemplate == "" {
		return nil, apperror.Validation("message template is required")
	}

	now := time.Now().UTC()
	rec := &domain.CampaignRecord{
		ID:              uuid.New(),
		TemplateID:      req.TemplateID,
		Name:            req.Name,
		Type:            req.Type,
		RecipientFilter: req.RecipientFilter,
		MessageTemplate: req.MessageTemplate,
		Subject:         req.Subject,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	switch req.Type {
	case domain.CampaignTypeOneOff:
		if req.ScheduledFor == nil {
			return nil, apperror.Validation("one-off campaigns require scheduled_for")
		}
		rec.Status = domain.CampaignStatusScheduled
		rec.ScheduledFor = req.ScheduledFor

	case domain.CampaignTypeRecurringDaily:
		if req.TemplateID == "" {
			return nil, apperror.Validation("recurring campaigns require template_id")
		}
		rec.Status = domain.CampaignStatusDraft

	case domain.CampaignTypeDripSequence:
		if req.TemplateID == "" {
			return nil, apperror.Validation("drip campaigns require template_id")
		}
		if len(req.StepDelays) == 0 {
			return nil, apperror.Validation("drip campaigns require step_delays")
		}
		rec.Status = domain.CampaignStatusDraft
		rec.StepDelays = req.StepDelays

	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown campaign type %q", req.Type))
	}

	if err := s.campaignRepo.Create(ctx, rec); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create campaign: %w", err))
	}

	if req.Type == domain.CampaignTypeDripSequence {
		if err := s.startDrip(ctx, rec, now); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("campaign_id", rec.ID.String()).
		Str("type", string(rec.Type)).
		Str("name", rec.Name).
		Msg("campaign created")
	return rec, nil
}

// startDrip mints the step-0 instance of a freshly created drip template,
// scheduled at creation time plus the first step delay.
func (s *CampaignServiceImpl) startDrip(ctx context.Context, tmpl *domain.CampaignRecord, now time.Time) error {
	first := now.Add(tmpl.StepDelays[0])
	inst := domain.NextDripInstance(tmpl, -1, first)
	if _, err := s.campaignRepo.CreateInstance(ctx, inst); err != nil {
		return apperror.InternalError(fmt.Errorf("create drip step 0: %w", err))
	}
	return nil
}

// List returns a page of campaigns with the total count.
func (s *CampaignServiceImpl) List(ctx context.Context, page, pageSize int) ([]domain.CampaignRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, total, err := s.campaignRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list campaigns: %w", err))
	}
	return items, total, nil
}
