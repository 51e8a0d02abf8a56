package postgres

import (
	"context"
	"testing"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment() *domain.PaymentRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.PaymentRecord{
		Reference:      "PAY-0011223344556677",
		Coin:           domain.CoinBTC,
		Network:        "bitcoin",
		ExpectedAmount: decimal.RequireFromString("0.015"),
		AddressEnc:     "enc_receiving_address",
		AddressDigest:  "digest_receiving_address",
		Status:         domain.PaymentStatusPending,
		CustomerEmail:  "buyer@example.com",
		CreatedAt:      now,
		ExpiresAt:      now.Add(30 * time.Minute),
	}
}

func paymentColumnNames() []string {
	return []string{
		"reference", "coin", "network", "expected_amount", "address_enc", "address_digest",
		"status", "tx_hash_enc", "tx_hash_digest", "customer_email",
		"created_at", "expires_at", "confirmed_at", "refunded_at",
	}
}

func paymentRow(p *domain.PaymentRecord) *pgxmock.Rows {
	return pgxmock.NewRows(paymentColumnNames()).AddRow(
		p.Reference, p.Coin, p.Network, p.ExpectedAmount, p.AddressEnc, p.AddressDigest,
		p.Status, p.TxHashEnc, p.TxHashDigest, p.CustomerEmail,
		p.CreatedAt, p.ExpiresAt, p.ConfirmedAt, p.RefundedAt,
	)
}

func TestPaymentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.Reference, p.Coin, p.Network, p.ExpectedAmount, p.AddressEnc, p.AddressDigest,
			p.Status, p.CustomerEmail, p.CreatedAt, p.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE reference").
		WithArgs(p.Reference).
		WillReturnRows(paymentRow(p))

	result, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.Reference, result.Reference)
	assert.True(t, p.ExpectedAmount.Equal(result.ExpectedAmount))
	assert.Equal(t, domain.PaymentStatusPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByReference_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE reference").
		WithArgs("PAY-missing").
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	result, err := repo.GetByReference(context.Background(), "PAY-missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_AttachTransactionHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectExec("UPDATE payments SET tx_hash_enc").
		WithArgs("PAY-abc", "enc_hash", "digest_hash",
			domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.AttachTransactionHash(context.Background(), "PAY-abc", "enc_hash", "digest_hash",
		domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_AttachTransactionHash_StatusMismatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectExec("UPDATE payments SET tx_hash_enc").
		WithArgs("PAY-abc", "enc_hash", "digest_hash",
			domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.AttachTransactionHash(context.Background(), "PAY-abc", "enc_hash", "digest_hash",
		domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_TransitionStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs("PAY-abc", domain.PaymentStatusAwaitingConfirm, domain.PaymentStatusConfirmed, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.TransitionStatus(context.Background(), "PAY-abc",
		domain.PaymentStatusAwaitingConfirm, domain.PaymentStatusConfirmed, at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_TransitionStatus_LostRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs("PAY-abc", domain.PaymentStatusPending, domain.PaymentStatusExpired, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.TransitionStatus(context.Background(), "PAY-abc",
		domain.PaymentStatusPending, domain.PaymentStatusExpired, at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_List_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment()

	status := domain.PaymentStatusPending
	coin := domain.CoinBTC
	params := ports.PaymentListParams{Status: &status, Coin: &coin, Page: 1, PageSize: 20}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
		WithArgs(status, coin).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM payments WHERE .+ ORDER BY created_at DESC").
		WithArgs(status, coin, 20, 0).
		WillReturnRows(paymentRow(p))

	items, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, p.Reference, items[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	periodStart := time.Now().Add(-24 * time.Hour).Unix()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\),").
		WithArgs(&periodStart).
		WillReturnRows(pgxmock.NewRows([]string{"total", "confirmed", "expired", "failed", "refunded"}).
			AddRow(int64(10), int64(6), int64(2), int64(1), int64(1)))
	mock.ExpectQuery("SELECT coin, COALESCE").
		WithArgs(&periodStart).
		WillReturnRows(pgxmock.NewRows([]string{"coin", "sum"}).
			AddRow(domain.CoinBTC, decimal.RequireFromString("0.25")).
			AddRow(domain.CoinETH, decimal.RequireFromString("4.1")))

	stats, err := repo.GetStats(context.Background(), &periodStart)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalPayments)
	assert.Equal(t, int64(6), stats.Confirmed)
	assert.True(t, decimal.RequireFromString("0.25").Equal(stats.ConfirmedByCoin[domain.CoinBTC]))
	assert.True(t, decimal.RequireFromString("4.1").Equal(stats.ConfirmedByCoin[domain.CoinETH]))
	assert.NoError(t, mock.ExpectationsWereMet())
}
