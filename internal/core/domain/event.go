package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is one entry in the append-only transition history of a
// payment record. Written on every status change and on invoice delivery
// outcomes, so operators can audit a payment and retry failed invoices.
type PaymentEvent struct {
	ID         uuid.UUID     `json:"id"`
	Reference  string        `json:"reference"`
	FromStatus PaymentStatus `json:"from_status"`
	ToStatus   PaymentStatus `json:"to_status"`
	Note       string        `json:"note,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
