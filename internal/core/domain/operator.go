package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperatorStatus represents the state of an operator account.
type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "ACTIVE"
	OperatorStatusSuspended OperatorStatus = "SUSPENDED"
)

// Operator is a back-office account allowed to approve refunds and manage
// campaigns. Customers never authenticate; operators log in with a password
// hashed with Argon2id and receive a JWT.
type Operator struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Status       OperatorStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsActive returns true if the operator account is active.
func (o *Operator) IsActive() bool {
	return o.Status == OperatorStatusActive
}
