package ports

import (
	"context"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption of addresses
// and transaction hashes at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// DigestService produces deterministic keyed digests used as a secondary
// index over encrypted columns: same input, same digest, no decryption
// needed for equality lookup.
type DigestService interface {
	Digest(value string) string
}

// HashService handles operator password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for operator sessions.
type TokenService interface {
	Generate(operatorID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OperatorID uuid.UUID
	Username   string
}

// VerificationQuery describes one chain lookup.
type VerificationQuery struct {
	TxHash  string
	Address string
	// MinAmount is the tolerance-adjusted floor; anything at or above it
	// confirms the payment.
	MinAmount decimal.Decimal
	Coin      domain.Coin
	Network   string
}

// ChainVerifier checks a transaction hash against a chain explorer.
// Unreachability is reported in the result status (UNAVAILABLE), never as
// a MISMATCH; the returned error is reserved for malformed queries.
type ChainVerifier interface {
	Verify(ctx context.Context, q VerificationQuery) (*domain.VerificationResult, error)
}

// VerifyLock admits at most one in-flight verification per payment
// reference, so a concurrent retry cannot double-trigger the confirmed
// transition and its invoice email.
type VerifyLock interface {
	// Acquire returns true if the caller now holds the lock.
	Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, reference string) error
}

// RunGuard enforces at-most-once campaign triggering per period across
// concurrently executing scheduler ticks.
type RunGuard interface {
	// MarkTriggered returns true if this caller is the first to trigger
	// the (campaign, period) pair.
	MarkTriggered(ctx context.Context, campaignID uuid.UUID, periodKey string, ttl time.Duration) (bool, error)
}

// OutboundEmail is one message handed to the email transport.
type OutboundEmail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer is the external email transport.
type Mailer interface {
	Send(ctx context.Context, msg OutboundEmail) error
}

// TemplateRenderer renders a campaign message body. External capability;
// campaigns carry a template reference, not markup.
type TemplateRenderer interface {
	Render(templateID string, data map[string]any) (string, error)
}

// Recipient is one resolved campaign audience member.
type Recipient struct {
	Email string
	Name  string
}

// RecipientResolver turns a stored audience filter into concrete
// recipients. External capability behind a port so dispatcher batching can
// be tested with stand-ins.
type RecipientResolver interface {
	Resolve(ctx context.Context, filter string) ([]Recipient, error)
}

// --- Service Ports (Business Logic) ---

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	Coin          domain.Coin
	Amount        decimal.Decimal
	CustomerEmail string
}

// CreatePaymentResult pairs the persisted record with the plaintext
// receiving address the payer must send funds to. The address is decrypted
// only for this response; it is never logged.
type CreatePaymentResult struct {
	Payment      *domain.PaymentRecord
	PayToAddress string
}

// PaymentService is the payment state machine.
type PaymentService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
	SubmitTransactionHash(ctx context.Context, reference, txHash string) (*domain.PaymentRecord, error)
	VerifyPayment(ctx context.Context, reference string) (*domain.PaymentRecord, error)
	RequestRefund(ctx context.Context, reference, reason string) (*domain.PaymentRecord, error)
	ApproveRefund(ctx context.Context, reference string) (*domain.PaymentRecord, error)
	GetPayment(ctx context.Context, reference string) (*domain.PaymentRecord, error)
}

// InvoiceService builds and delivers invoices for confirmed payments.
type InvoiceService interface {
	// Build is a pure function of the payment record.
	Build(p *domain.PaymentRecord) (*domain.Invoice, error)
	// Deliver renders the invoice and emails it to the customer.
	Deliver(ctx context.Context, p *domain.PaymentRecord) error
}

// CreateCampaignRequest holds validated input for campaign creation.
// One-off campaigns require ScheduledFor; recurring-daily and drip
// campaigns are created as DRAFT templates identified by TemplateID, and
// drip templates additionally require StepDelays.
type CreateCampaignRequest struct {
	Name            string
	Type            domain.CampaignType
	TemplateID      string
	ScheduledFor    *time.Time
	RecipientFilter string
	MessageTemplate string
	Subject         string
	StepDelays      []time.Duration
}

// CampaignService covers campaign CRUD used by the operator API.
type CampaignService interface {
	Create(ctx context.Context, req CreateCampaignRequest) (*domain.CampaignRecord, error)
	List(ctx context.Context, page, pageSize int) ([]domain.CampaignRecord, int64, error)
}

// CampaignScheduler decides which campaigns are due and triggers them.
type CampaignScheduler interface {
	Tick(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	EnsureDailyCampaign(ctx context.Context, templateID string) (*domain.CampaignRecord, error)
}

// CampaignDispatcher executes one campaign run.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID uuid.UUID) (*domain.DispatchReport, error)
}

// AuthService defines operator authentication.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// ReportingService exposes aggregate payment figures to operators.
type ReportingService interface {
	GetPaymentStats(ctx context.Context, period string) (*PaymentStats, error)
	ListPayments(ctx context.Context, params PaymentListParams) ([]domain.PaymentRecord, int64, error)
	ListPaymentEvents(ctx context.Context, reference string) ([]domain.PaymentEvent, error)
}
