package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the structured invoice issued after a payment confirms.
// It is a pure function of the payment record; building one has no side
// effects.
type Invoice struct {
	Number        string          `json:"number"`
	Reference     string          `json:"reference"`
	Coin          Coin            `json:"coin"`
	Network       string          `json:"network"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerEmail string          `json:"customer_email"`
	IssuedAt      time.Time       `json:"issued_at"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}
