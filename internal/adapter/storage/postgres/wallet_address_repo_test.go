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

func newTestAddress(coin domain.Coin) *domain.WalletAddress {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.WalletAddress{
		ID:            uuid.New(),
		Coin:          coin,
		Network:       "bitcoin",
		AddressEnc:    "enc_bc1q_address",
		AddressDigest: "digest_bc1q_address",
		LastUsedAt:    now.Add(-time.Hour),
		CreatedAt:     now,
	}
}

func addressColumns() []string {
	return []string{"id", "coin", "network", "address_enc", "address_digest", "last_used_at", "created_at"}
}

func TestWalletAddressRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletAddressRepo(mock)
	addr := newTestAddress(domain.CoinBTC)

	mock.ExpectExec("INSERT INTO wallet_addresses").
		WithArgs(addr.ID, addr.Coin, addr.Network, addr.AddressEnc, addr.AddressDigest,
			addr.LastUsedAt, addr.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), addr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletAddressRepo_AcquireForCoin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletAddressRepo(mock)
	addr := newTestAddress(domain.CoinBTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wallet_addresses SET last_used_at = NOW").
		WithArgs(domain.CoinBTC).
		WillReturnRows(pgxmock.NewRows(addressColumns()).AddRow(
			addr.ID, addr.Coin, addr.Network, addr.AddressEnc, addr.AddressDigest,
			addr.LastUsedAt, addr.CreatedAt,
		))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.AcquireForCoin(context.Background(), tx, domain.CoinBTC)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, addr.ID, result.ID)
	assert.Equal(t, addr.AddressEnc, result.AddressEnc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletAddressRepo_AcquireForCoin_EmptyPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletAddressRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wallet_addresses SET last_used_at = NOW").
		WithArgs(domain.Coin("DOGE")).
		WillReturnRows(pgxmock.NewRows(addressColumns()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.AcquireForCoin(context.Background(), tx, domain.Coin("DOGE"))
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
