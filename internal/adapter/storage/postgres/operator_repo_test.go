package postgres

import (
	"context"
	"testing"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOperator() *domain.Operator {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Operator{
		ID:           uuid.New(),
		Username:     "ops-anna",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$salt$hash",
		Status:       domain.OperatorStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func operatorRow(o *domain.Operator) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "username", "password_hash", "status", "created_at", "updated_at"}).
		AddRow(o.ID, o.Username, o.PasswordHash, o.Status, o.CreatedAt, o.UpdatedAt)
}

func TestOperatorRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOperatorRepo(mock)
	op := newTestOperator()

	mock.ExpectExec("INSERT INTO operators").
		WithArgs(op.ID, op.Username, op.PasswordHash, op.Status, op.CreatedAt, op.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), op)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepo_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOperatorRepo(mock)
	op := newTestOperator()

	mock.ExpectQuery("SELECT .+ FROM operators WHERE username").
		WithArgs(op.Username).
		WillReturnRows(operatorRow(op))

	result, err := repo.GetByUsername(context.Background(), op.Username)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, op.ID, result.ID)
	assert.Equal(t, op.PasswordHash, result.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepo_GetByUsername_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOperatorRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM operators WHERE username").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "status", "created_at", "updated_at"}))

	result, err := repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentEventRepo_AppendAndList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentEventRepo(mock)
	e := &domain.PaymentEvent{
		ID:         uuid.New(),
		Reference:  "PAY-abc",
		FromStatus: domain.PaymentStatusPending,
		ToStatus:   domain.PaymentStatusAwaitingConfirm,
		Note:       "transaction hash submitted",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO payment_events").
		WithArgs(e.ID, e.Reference, e.FromStatus, e.ToStatus, e.Note, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT .+ FROM payment_events WHERE reference").
		WithArgs(e.Reference).
		WillReturnRows(pgxmock.NewRows([]string{"id", "reference", "from_status", "to_status", "note", "created_at"}).
			AddRow(e.ID, e.Reference, e.FromStatus, e.ToStatus, e.Note, e.CreatedAt))

	require.NoError(t, repo.Append(context.Background(), e))

	events, err := repo.ListByReference(context.Background(), e.Reference)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.Note, events[0].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}
