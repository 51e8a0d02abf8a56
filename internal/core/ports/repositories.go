package ports

import (
	"context"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentRepository defines persistence operations for payment records.
//
// All state transitions go through conditional updates (update only when
// the current status matches the expected prior status), which is what
// makes transitions on a single record linearizable without holding locks
// across the verification round trip.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, p *domain.PaymentRecord) error
	GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error)
	// AttachTransactionHash stores the encrypted tx hash and its digest,
	// moving the record from `from` to `to`. Returns false if the record
	// was not in `from` (lost race or illegal call).
	AttachTransactionHash(ctx context.Context, reference, hashEnc, hashDigest string, from, to domain.PaymentStatus) (bool, error)
	// TransitionStatus conditionally moves reference from `from` to `to`,
	// stamping the timestamp column correlated with `to` (confirmed_at,
	// refunded_at) in the same statement. Returns false on status mismatch.
	TransitionStatus(ctx context.Context, reference string, from, to domain.PaymentStatus, at time.Time) (bool, error)
	// Reporting queries
	List(ctx context.Context, params PaymentListParams) ([]domain.PaymentRecord, int64, error)
	GetStats(ctx context.Context, periodStart *int64) (*PaymentStats, error)
}

// PaymentListParams holds filter + pagination for listing payments.
type PaymentListParams struct {
	Status   *domain.PaymentStatus
	Coin     *domain.Coin
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// PaymentStats holds aggregated statistics for the operator dashboard.
type PaymentStats struct {
	TotalPayments int64
	Confirmed     int64
	Expired       int64
	Failed        int64
	Refunded      int64
	ConfirmedByCoin map[domain.Coin]decimal.Decimal
}

// WalletAddressRepository defines persistence for the receiving-address pool.
type WalletAddressRepository interface {
	Create(ctx context.Context, addr *domain.WalletAddress) error
	// AcquireForCoin locks and returns the least-recently-used address for
	// the coin, touching last_used_at. Must run inside tx. Returns nil, nil
	// when the coin has no pool (unsupported coin).
	AcquireForCoin(ctx context.Context, tx pgx.Tx, coin domain.Coin) (*domain.WalletAddress, error)
}

// CampaignRepository defines persistence operations for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, c *domain.CampaignRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CampaignRecord, error)
	// GetTemplate returns the DRAFT template row (nil period key) for a
	// template id, or nil, nil.
	GetTemplate(ctx context.Context, templateID string) (*domain.CampaignRecord, error)
	GetInstance(ctx context.Context, templateID, periodKey string) (*domain.CampaignRecord, error)
	// CreateInstance inserts an instance row guarded by the unique
	// (template_id, period_key) index; returns false when the instance
	// already existed (ON CONFLICT DO NOTHING).
	CreateInstance(ctx context.Context, c *domain.CampaignRecord) (bool, error)
	FindDue(ctx context.Context, now time.Time) ([]domain.CampaignRecord, error)
	List(ctx context.Context, page, pageSize int) ([]domain.CampaignRecord, int64, error)
	// TransitionStatus conditionally moves the campaign between statuses,
	// optionally stamping last_run_at. Returns false on status mismatch.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.CampaignStatus, lastRunAt *time.Time) (bool, error)
}

// PaymentEventRepository persists the append-only transition history.
type PaymentEventRepository interface {
	Append(ctx context.Context, e *domain.PaymentEvent) error
	ListByReference(ctx context.Context, reference string) ([]domain.PaymentEvent, error)
}

// OperatorRepository defines persistence operations for operator accounts.
type OperatorRepository interface {
	Create(ctx context.Context, op *domain.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
