package postgres

import (
	"context"
	"errors"
	"fmt"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperatorRepo implements ports.OperatorRepository.
type OperatorRepo struct {
	pool Pool
}

// NewOperatorRepo creates a new OperatorRepo.
func NewOperatorRepo(pool Pool) *OperatorRepo {
	return &OperatorRepo{pool: pool}
}

// Create inserts a new operator account.
func (r *OperatorRepo) Create(ctx context.Context, op *domain.Operator) error {
	query := `INSERT INTO operators (id, username, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, op.ID, op.Username, op.PasswordHash, op.Status, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

// GetByID fetches an operator by id. Returns nil, nil when absent.
func (r *OperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	query := `SELECT id, username, password_hash, status, created_at, updated_at
		FROM operators WHERE id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get operator by id")
}

// GetByUsername fetches an operator by username. Returns nil, nil when absent.
func (r *OperatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	query := `SELECT id, username, password_hash, status, created_at, updated_at
		FROM operators WHERE username = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, username), "get operator by username")
}

func (r *OperatorRepo) scanOne(row pgx.Row, op string) (*domain.Operator, error) {
	o := &domain.Operator{}
	err := row.Scan(&o.ID, &o.Username, &o.PasswordHash, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}
