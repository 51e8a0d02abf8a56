package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin identifies a supported cryptocurrency.
type Coin string

const (
	CoinBTC  Coin = "BTC"
	CoinETH  Coin = "ETH"
	CoinSOL  Coin = "SOL"
	CoinUSDT Coin = "USDT"
)

// PaymentStatus represents the lifecycle state of a payment intent.
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "PENDING"
	PaymentStatusAwaitingConfirm PaymentStatus = "AWAITING_CONFIRMATION"
	PaymentStatusConfirmed       PaymentStatus = "CONFIRMED"
	PaymentStatusExpired         PaymentStatus = "EXPIRED"
	PaymentStatusRefundRequested PaymentStatus = "REFUND_REQUESTED"
	PaymentStatusRefunded        PaymentStatus = "REFUNDED"
	PaymentStatusFailed          PaymentStatus = "FAILED"
)

// paymentTransitions is the set of legal forward transitions.
// FAILED is reachable from any non-terminal state on an unrecoverable
// verification error, so it is handled separately in CanTransition.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:         {PaymentStatusAwaitingConfirm, PaymentStatusExpired},
	PaymentStatusAwaitingConfirm: {PaymentStatusConfirmed, PaymentStatusExpired},
	PaymentStatusConfirmed:       {PaymentStatusRefundRequested},
	PaymentStatusRefundRequested: {PaymentStatusRefunded},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to PaymentStatus) bool {
	if to == PaymentStatusFailed {
		return !from.IsTerminal()
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusRefunded ||
		s == PaymentStatusExpired ||
		s == PaymentStatusFailed
}

// PaymentRecord represents a payment intent paid in cryptocurrency.
// The receiving address and submitted transaction hash are stored AES-256
// encrypted; deterministic digests allow equality lookup without decryption.
type PaymentRecord struct {
	Reference       string          `json:"reference"`
	Coin            Coin            `json:"coin"`
	Network         string          `json:"network"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	AddressEnc      string          `json:"-"`
	AddressDigest   string          `json:"-"`
	Status          PaymentStatus   `json:"status"`
	TxHashEnc       *string         `json:"-"`
	TxHashDigest    *string         `json:"-"`
	CustomerEmail   string          `json:"customer_email"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	RefundedAt      *time.Time      `json:"refunded_at,omitempty"`
}

// IsExpired reports whether the record is past its payment window while
// still waiting for funds. Expiry is applied lazily at read time; records
// are never swept in the background.
func (p *PaymentRecord) IsExpired(now time.Time) bool {
	if p.Status != PaymentStatusPending && p.Status != PaymentStatusAwaitingConfirm {
		return false
	}
	return now.After(p.ExpiresAt)
}

// MinAcceptedAmount returns the smallest on-chain transfer that still
// confirms this payment, given an underpayment tolerance in percent.
// The tolerance absorbs network-fee rounding on the payer side.
func (p *PaymentRecord) MinAcceptedAmount(tolerancePct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(tolerancePct.Div(decimal.NewFromInt(100)))
	return p.ExpectedAmount.Mul(factor)
}
