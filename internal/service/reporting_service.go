package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	paymentRepo ports.PaymentRepository
	eventRepo   ports.PaymentEventRepository
	log         zerolog.Logger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(paymentRepo ports.PaymentRepository, eventRepo ports.PaymentEventRepository, log zerolog.Logger) *ReportingServiceImpl {
	return &ReportingServiceImpl{paymentRepo: paymentRepo, eventRepo: eventRepo, log: log}
}

// GetPaymentStats aggregates payment counts and confirmed volume per coin.
// period is one of "today", "week", "month" or "all".
func (s *ReportingServiceImpl) GetPaymentStats(ctx context.Context, period string) (*ports.PaymentStats, error) {
	start, err := periodStart(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	stats, err := s.paymentRepo.GetStats(ctx, start)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get stats: %w", err))
	}
	return stats, nil
}

// ListPayments returns a filtered, paginated slice of payment records.
func (s *ReportingServiceImpl) ListPayments(ctx context.Context, params ports.PaymentListParams) ([]domain.PaymentRecord, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	items, total, err := s.paymentRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}
	return items, total, nil
}

// ListPaymentEvents returns the transition history for one payment.
func (s *ReportingServiceImpl) ListPaymentEvents(ctx context.Context, reference string) ([]domain.PaymentEvent, error) {
	rec, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if rec == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	events, err := s.eventRepo.ListByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// periodStart maps the named window to its Unix start, nil meaning all time.
func periodStart(period string, now time.Time) (*int64, error) {
	var start time.Time
	switch period {
	case "", "all":
		return nil, nil
	case "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown period %q", period))
	}
	ts := start.Unix()
	return &ts, nil
}
