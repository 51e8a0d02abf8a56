package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `reference, coin, network, expected_amount, address_enc, address_digest,
		status, tx_hash_enc, tx_hash_digest, customer_email, created_at, expires_at, confirmed_at, refunded_at`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a new payment record. Runs inside the creation
// transaction so the record and its address acquisition commit together.
func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.PaymentRecord) error {
	query := `INSERT INTO payments (reference, coin, network, expected_amount, address_enc, address_digest,
			status, customer_email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		p.Reference, p.Coin, p.Network, p.ExpectedAmount, p.AddressEnc, p.AddressDigest,
		p.Status, p.CustomerEmail, p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByReference fetches a payment by its opaque reference. Returns nil, nil
// when no such payment exists.
func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	p := &domain.PaymentRecord{}
	err := r.pool.QueryRow(ctx, query, reference).Scan(
		&p.Reference, &p.Coin, &p.Network, &p.ExpectedAmount, &p.AddressEnc, &p.AddressDigest,
		&p.Status, &p.TxHashEnc, &p.TxHashDigest, &p.CustomerEmail,
		&p.CreatedAt, &p.ExpiresAt, &p.ConfirmedAt, &p.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by reference: %w", err)
	}
	return p, nil
}

// AttachTransactionHash stores the encrypted hash and digest while moving
// the record between statuses in one conditional statement.
func (r *PaymentRepo) AttachTransactionHash(ctx context.Context, reference, hashEnc, hashDigest string, from, to domain.PaymentStatus) (bool, error) {
	query := `UPDATE payments SET tx_hash_enc = $2, tx_hash_digest = $3, status = $5
		WHERE reference = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, reference, hashEnc, hashDigest, from, to)
	if err != nil {
		return false, fmt.Errorf("attach transaction hash: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TransitionStatus conditionally moves the record from `from` to `to`,
// stamping the timestamp column correlated with the target status in the
// same statement. The single-statement form is what makes per-record
// transitions linearizable: concurrent writers disagree on `from` and all
// but one update zero rows.
func (r *PaymentRepo) TransitionStatus(ctx context.Context, reference string, from, to domain.PaymentStatus, at time.Time) (bool, error) {
	query := `UPDATE payments SET status = $3,
			confirmed_at = CASE WHEN $3 = 'CONFIRMED' THEN $4 ELSE confirmed_at END,
			refunded_at  = CASE WHEN $3 = 'REFUNDED'  THEN $4 ELSE refunded_at  END
		WHERE reference = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, reference, from, to, at)
	if err != nil {
		return false, fmt.Errorf("transition payment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns a filtered, paginated page of payments plus the total count.
func (r *PaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.PaymentRecord, int64, error) {
	conds := []string{"1=1"}
	args := []any{}
	n := 1

	if params.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", n))
		args = append(args, *params.Status)
		n++
	}
	if params.Coin != nil {
		conds = append(conds, fmt.Sprintf("coin = $%d", n))
		args = append(args, *params.Coin)
		n++
	}
	if params.From != nil {
		conds = append(conds, fmt.Sprintf("created_at >= to_timestamp($%d)", n))
		args = append(args, *params.From)
		n++
	}
	if params.To != nil {
		conds = append(conds, fmt.Sprintf("created_at <= to_timestamp($%d)", n))
		args = append(args, *params.To)
		n++
	}
	where := strings.Join(conds, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM payments WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, n, n+1)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var items []domain.PaymentRecord
	for rows.Next() {
		var p domain.PaymentRecord
		if err := rows.Scan(
			&p.Reference, &p.Coin, &p.Network, &p.ExpectedAmount, &p.AddressEnc, &p.AddressDigest,
			&p.Status, &p.TxHashEnc, &p.TxHashDigest, &p.CustomerEmail,
			&p.CreatedAt, &p.ExpiresAt, &p.ConfirmedAt, &p.RefundedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payments: %w", err)
	}
	return items, total, nil
}

// GetStats aggregates counters plus confirmed volume per coin, optionally
// restricted to records created at or after periodStart (Unix seconds).
func (r *PaymentRepo) GetStats(ctx context.Context, periodStart *int64) (*ports.PaymentStats, error) {
	query := `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'CONFIRMED'),
			COUNT(*) FILTER (WHERE status = 'EXPIRED'),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COUNT(*) FILTER (WHERE status = 'REFUNDED')
		FROM payments
		WHERE ($1::bigint IS NULL OR created_at >= to_timestamp($1))`

	stats := &ports.PaymentStats{ConfirmedByCoin: map[domain.Coin]decimal.Decimal{}}
	err := r.pool.QueryRow(ctx, query, periodStart).Scan(
		&stats.TotalPayments, &stats.Confirmed, &stats.Expired, &stats.Failed, &stats.Refunded,
	)
	if err != nil {
		return nil, fmt.Errorf("get payment stats: %w", err)
	}

	volumeQuery := `SELECT coin, COALESCE(SUM(expected_amount), 0)
		FROM payments
		WHERE status = 'CONFIRMED' AND ($1::bigint IS NULL OR created_at >= to_timestamp($1))
		GROUP BY coin`

	rows, err := r.pool.Query(ctx, volumeQuery, periodStart)
	if err != nil {
		return nil, fmt.Errorf("get confirmed volume: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var coin domain.Coin
		var sum decimal.Decimal
		if err := rows.Scan(&coin, &sum); err != nil {
			return nil, fmt.Errorf("scan confirmed volume: %w", err)
		}
		stats.ConfirmedByCoin[coin] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmed volume: %w", err)
	}
	return stats, nil
}
