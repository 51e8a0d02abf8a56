package postgres

import (
	"context"
	"errors"
	"fmt"

	"crypto-checkout/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WalletAddressRepo implements ports.WalletAddressRepository.
type WalletAddressRepo struct {
	pool Pool
}

// NewWalletAddressRepo creates a new WalletAddressRepo.
func NewWalletAddressRepo(pool Pool) *WalletAddressRepo {
	return &WalletAddressRepo{pool: pool}
}

// Create inserts a receiving address into the pool.
func (r *WalletAddressRepo) Create(ctx context.Context, addr *domain.WalletAddress) error {
	query := `INSERT INTO wallet_addresses (id, coin, network, address_enc, address_digest, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		addr.ID, addr.Coin, addr.Network, addr.AddressEnc, addr.AddressDigest,
		addr.LastUsedAt, addr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet address: %w", err)
	}
	return nil
}

// AcquireForCoin locks the least-recently-used address for the coin and
// touches last_used_at so the next acquisition rotates to a different one.
// SKIP LOCKED lets concurrent checkouts each grab a distinct address
// instead of queueing on the same row. Returns nil, nil when the coin has
// no address pool.
func (r *WalletAddressRepo) AcquireForCoin(ctx context.Context, tx pgx.Tx, coin domain.Coin) (*domain.WalletAddress, error) {
	query := `UPDATE wallet_addresses SET last_used_at = NOW()
		WHERE id = (
			SELECT id FROM wallet_addresses
			WHERE coin = $1
			ORDER BY last_used_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, coin, network, address_enc, address_digest, last_used_at, created_at`

	addr := &domain.WalletAddress{}
	err := tx.QueryRow(ctx, query, coin).Scan(
		&addr.ID, &addr.Coin, &addr.Network, &addr.AddressEnc, &addr.AddressDigest,
		&addr.LastUsedAt, &addr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("acquire wallet address: %w", err)
	}
	return addr, nil
}
