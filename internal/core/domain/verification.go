package domain

import "github.com/shopspring/decimal"

// VerificationStatus is the verdict of a chain-explorer lookup.
type VerificationStatus string

const (
	// VerificationConfirmed: transaction finalized, address matches,
	// amount at or above the accepted minimum.
	VerificationConfirmed VerificationStatus = "CONFIRMED"
	// VerificationPending: transaction seen on chain but below the
	// network's confirmation depth. Not a failure.
	VerificationPending VerificationStatus = "PENDING"
	// VerificationNotFound: explorer has no record of the hash.
	VerificationNotFound VerificationStatus = "NOT_FOUND"
	// VerificationMismatch: wrong destination address or underpayment
	// beyond tolerance. Definitive, non-retryable.
	VerificationMismatch VerificationStatus = "MISMATCH"
	// VerificationReverted: the chain reports the transaction failed.
	VerificationReverted VerificationStatus = "REVERTED"
	// VerificationUnavailable: explorer unreachable, rate-limited or
	// timed out. Retryable; never treated as a verdict on the payment.
	VerificationUnavailable VerificationStatus = "UNAVAILABLE"
)

// VerificationResult is what the chain verifier observed for a transaction.
type VerificationResult struct {
	Status         VerificationStatus `json:"status"`
	ObservedAmount decimal.Decimal    `json:"observed_amount"`
	Confirmations  int64              `json:"confirmations"`
}
