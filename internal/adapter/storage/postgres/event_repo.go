package postgres

import (
	"context"
	"fmt"

	"crypto-checkout/internal/core/domain"
)

// PaymentEventRepo implements ports.PaymentEventRepository.
type PaymentEventRepo struct {
	pool Pool
}

// NewPaymentEventRepo creates a new PaymentEventRepo.
func NewPaymentEventRepo(pool Pool) *PaymentEventRepo {
	return &PaymentEventRepo{pool: pool}
}

// Append writes one entry to the payment's transition history.
func (r *PaymentEventRepo) Append(ctx context.Context, e *domain.PaymentEvent) error {
	query := `INSERT INTO payment_events (id, reference, from_status, to_status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, e.ID, e.Reference, e.FromStatus, e.ToStatus, e.Note, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// ListByReference returns the payment's history, oldest first.
func (r *PaymentEventRepo) ListByReference(ctx context.Context, reference string) ([]domain.PaymentEvent, error) {
	query := `SELECT id, reference, from_status, to_status, note, created_at
		FROM payment_events WHERE reference = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, reference)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		var e domain.PaymentEvent
		if err := rows.Scan(&e.ID, &e.Reference, &e.FromStatus, &e.ToStatus, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment events: %w", err)
	}
	return events, nil
}
