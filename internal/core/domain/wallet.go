package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletAddress is one receiving address in the pool for a (coin, network)
// pair. The plaintext address is stored AES-256 encrypted with a
// deterministic digest for duplicate detection; last_used_at drives the
// least-recently-used selection policy that spreads exposure across the pool.
type WalletAddress struct {
	ID            uuid.UUID `json:"id"`
	Coin          Coin      `json:"coin"`
	Network       string    `json:"network"`
	AddressEnc    string    `json:"-"`
	AddressDigest string    `json:"-"`
	LastUsedAt    time.Time `json:"last_used_at"`
	CreatedAt     time.Time `json:"created_at"`
}
