package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const invoiceDeliveryTimeout = time.Minute

// PaymentOptions holds the state-machine tunables.
type PaymentOptions struct {
	ExpiryWindow  time.Duration
	TolerancePct  decimal.Decimal
	VerifyLockTTL time.Duration
}

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	paymentRepo ports.PaymentRepository
	addrRepo    ports.WalletAddressRepository
	eventRepo   ports.PaymentEventRepository
	encSvc      ports.EncryptionService
	digestSvc   ports.DigestService
	verifier    ports.ChainVerifier
	verifyLock  ports.VerifyLock
	invoiceSvc  ports.InvoiceService
	transactor  ports.DBTransactor
	opts        PaymentOptions
	log         zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	paymentRepo ports.PaymentRepository,
	addrRepo ports.WalletAddressRepository,
	eventRepo ports.PaymentEventRepository,
	encSvc ports.EncryptionService,
	digestSvc ports.DigestService,
	verifier ports.ChainVerifier,
	verifyLock ports.VerifyLock,
	invoiceSvc ports.InvoiceService,
	transactor ports.DBTransactor,
	opts PaymentOptions,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		addrRepo:    addrRepo,
		eventRepo:   eventRepo,
		encSvc:      encSvc,
		digestSvc:   digestSvc,
		verifier:    verifier,
		verifyLock:  verifyLock,
		invoiceSvc:  invoiceSvc,
		transactor:  transactor,
		opts:        opts,
		log:         log,
	}
}

// CreatePayment opens a payment intent: it locks the least-recently-used
// receiving address for the coin, stamps the payment window and persists
// the record as PENDING. Nothing is persisted when the coin is unsupported.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}
	if req.CustomerEmail == "" {
		return nil, apperror.Validation("customer email is required")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & rotate the LRU address for the coin
	addr, err := s.addrRepo.AcquireForCoin(ctx, dbTx, req.Coin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire address: %w", err))
	}
	if addr == nil {
		return nil, apperror.ErrUnsupportedCoin(string(req.Coin))
	}

	reference, err := newReference()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate reference: %w", err))
	}

	now := time.Now().UTC()
	rec := &domain.PaymentRecord{
		Reference:      reference,
		Coin:           req.Coin,
		Network:        addr.Network,
		ExpectedAmount: req.Amount,
		AddressEnc:     addr.AddressEnc,
		AddressDigest:  addr.AddressDigest,
		Status:         domain.PaymentStatusPending,
		CustomerEmail:  req.CustomerEmail,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.opts.ExpiryWindow),
	}

	if err := s.paymentRepo.Create(ctx, dbTx, rec); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.appendEvent(ctx, reference, rec.Status, rec.Status, "payment created")

	payTo, err := s.encSvc.Decrypt(addr.AddressEnc)
	if err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}

	s.log.Info().
		Str("reference", reference).
		Str("coin", string(req.Coin)).
		Str("amount", req.Amount.String()).
		Time("expires_at", rec.ExpiresAt).
		Msg("payment created")

	return &ports.CreatePaymentResult{Payment: rec, PayToAddress: payTo}, nil
}

// SubmitTransactionHash records the payer's transaction hash and moves the
// payment to AWAITING_CONFIRMATION. Valid only while PENDING and inside
// the payment window.
func (s *PaymentServiceImpl) SubmitTransactionHash(ctx context.Context, reference, txHash string) (*domain.PaymentRecord, error) {
	if txHash == "" {
		return nil, apperror.Validation("transaction hash is required")
	}

	rec, err := s.getLive(ctx, reference)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.PaymentStatusExpired {
		return nil, apperror.ErrExpired()
	}
	if rec.Status != domain.PaymentStatusPending {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}

	hashEnc, err := s.encSvc.Encrypt(txHash)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}
	hashDigest := s.digestSvc.Digest(txHash)

	ok, err := s.paymentRepo.AttachTransactionHash(ctx, reference, hashEnc, hashDigest,
		domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("attach tx hash: %w", err))
	}
	if !ok {
		// Lost a race; report whatever the record moved to.
		current, gerr := s.paymentRepo.GetByReference(ctx, reference)
		if gerr != nil || current == nil {
			return nil, apperror.InternalError(fmt.Errorf("reread after conflict: %w", gerr))
		}
		return nil, apperror.ErrInvalidState(string(current.Status))
	}

	s.appendEvent(ctx, reference, domain.PaymentStatusPending, domain.PaymentStatusAwaitingConfirm, "transaction hash submitted")

	rec.Status = domain.PaymentStatusAwaitingConfirm
	rec.TxHashEnc = &hashEnc
	rec.TxHashDigest = &hashDigest

	s.log.Info().Str("reference", reference).Msg("transaction hash submitted")
	return rec, nil
}

// VerifyPayment checks the submitted transaction on chain and, when it
// pays the expected address at least the tolerance-adjusted amount,
// confirms the payment and triggers invoice delivery.
//
// At most one verification per reference may be in flight: a duplicate
// concurrent call is rejected rather than performing a second chain lookup
// and possibly a second invoice email.
func (s *PaymentServiceImpl) VerifyPayment(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	rec, err := s.getLive(ctx, reference)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.PaymentStatusExpired {
		return nil, apperror.ErrExpired()
	}
	if rec.Status != domain.PaymentStatusAwaitingConfirm {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}
	if rec.TxHashEnc == nil {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}

	held, err := s.verifyLock.Acquire(ctx, reference, s.opts.VerifyLockTTL)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire verify lock: %w", err))
	}
	if !held {
		return nil, apperror.ErrVerificationInFlight()
	}
	defer func() {
		if rerr := s.verifyLock.Release(context.WithoutCancel(ctx), reference); rerr != nil {
			s.log.Warn().Err(rerr).Str("reference", reference).Msg("failed to release verify lock")
		}
	}()

	address, err := s.encSvc.Decrypt(rec.AddressEnc)
	if err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}
	txHash, err := s.encSvc.Decrypt(*rec.TxHashEnc)
	if err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}

	result, err := s.verifier.Verify(ctx, ports.VerificationQuery{
		TxHash:    txHash,
		Address:   address,
		MinAmount: rec.MinAcceptedAmount(s.opts.TolerancePct),
		Coin:      rec.Coin,
		Network:   rec.Network,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("chain verify: %w", err))
	}

	switch result.Status {
	case domain.VerificationConfirmed:
		return s.confirm(ctx, rec, result)

	case domain.VerificationReverted:
		return s.fail(ctx, rec, "transaction reverted on chain")

	case domain.VerificationMismatch:
		// Definitive: wrong address or underpaid beyond tolerance. The
		// record stays AWAITING_CONFIRMATION so an operator can inspect it.
		s.log.Warn().
			Str("reference", reference).
			Str("observed", result.ObservedAmount.String()).
			Msg("verification mismatch")
		return rec, apperror.ErrVerificationMismatch(
			fmt.Sprintf("observed amount %s", result.ObservedAmount.String()))

	case domain.VerificationUnavailable:
		return rec, apperror.ErrVerificationUnavailable(fmt.Errorf("explorer unreachable for network %s", rec.Network))

	default:
		// PENDING or NOT_FOUND: the chain has not settled yet. Not an
		// error; the caller retries later and the status says it all.
		s.log.Debug().
			Str("reference", reference).
			Str("verdict", string(result.Status)).
			Int64("confirmations", result.Confirmations).
			Msg("verification not settled yet")
		return rec, nil
	}
}

// confirm applies the AWAITING_CONFIRMATION -> CONFIRMED transition and
// kicks off invoice delivery. Email failure never reverts the payment; it
// is logged and recorded for manual retry.
func (s *PaymentServiceImpl) confirm(ctx context.Context, rec *domain.PaymentRecord, result *domain.VerificationResult) (*domain.PaymentRecord, error) {
	now := time.Now().UTC()
	ok, err := s.paymentRepo.TransitionStatus(ctx, rec.Reference,
		domain.PaymentStatusAwaitingConfirm, domain.PaymentStatusConfirmed, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("confirm payment: %w", err))
	}
	if !ok {
		// Another caller got there first; the guard makes this rare but a
		// lock expiry can still race. Return the authoritative state.
		current, gerr := s.paymentRepo.GetByReference(ctx, rec.Reference)
		if gerr != nil || current == nil {
			return nil, apperror.InternalError(fmt.Errorf("reread after conflict: %w", gerr))
		}
		return current, nil
	}

	s.appendEvent(ctx, rec.Reference, domain.PaymentStatusAwaitingConfirm, domain.PaymentStatusConfirmed,
		fmt.Sprintf("confirmed with %d confirmations, observed %s", result.Confirmations, result.ObservedAmount.String()))

	rec.Status = domain.PaymentStatusConfirmed
	rec.ConfirmedAt = &now

	s.log.Info().
		Str("reference", rec.Reference).
		Str("observed", result.ObservedAmount.String()).
		Int64("confirmations", result.Confirmations).
		Msg("payment confirmed")

	// Best-effort invoice delivery, decoupled from the transition.
	snapshot := *rec
	go func() {
		dctx, cancel := context.WithTimeout(context.Background(), invoiceDeliveryTimeout)
		defer cancel()
		if derr := s.invoiceSvc.Deliver(dctx, &snapshot); derr != nil {
			s.log.Error().Err(derr).Str("reference", snapshot.Reference).Msg("invoice delivery failed")
			s.appendEvent(dctx, snapshot.Reference, domain.PaymentStatusConfirmed, domain.PaymentStatusConfirmed,
				"invoice delivery failed: "+derr.Error())
		}
	}()

	return rec, nil
}

// fail applies the transition to FAILED on an unrecoverable verification
// verdict.
func (s *PaymentServiceImpl) fail(ctx context.Context, rec *domain.PaymentRecord, reason string) (*domain.PaymentRecord, error) {
	from := rec.Status
	ok, err := s.paymentRepo.TransitionStatus(ctx, rec.Reference, from, domain.PaymentStatusFailed, time.Now().UTC())
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fail payment: %w", err))
	}
	if ok {
		s.appendEvent(ctx, rec.Reference, from, domain.PaymentStatusFailed, reason)
		rec.Status = domain.PaymentStatusFailed
	}
	s.log.Warn().Str("reference", rec.Reference).Str("reason", reason).Msg("payment failed")
	return rec, nil
}

// RequestRefund marks a confirmed payment as refund-requested. Funds are
// moved manually by an operator; only request state is tracked here.
func (s *PaymentServiceImpl) RequestRefund(ctx context.Context, reference, reason string) (*domain.PaymentRecord, error) {
	rec, err := s.getLive(ctx, reference)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.PaymentStatusConfirmed {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}

	now := time.Now().UTC()
	ok, err := s.paymentRepo.TransitionStatus(ctx, reference,
		domain.PaymentStatusConfirmed, domain.PaymentStatusRefundRequested, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("request refund: %w", err))
	}
	if !ok {
		current, gerr := s.paymentRepo.GetByReference(ctx, reference)
		if gerr != nil || current == nil {
			return nil, apperror.InternalError(fmt.Errorf("reread after conflict: %w", gerr))
		}
		return nil, apperror.ErrInvalidState(string(current.Status))
	}

	s.appendEvent(ctx, reference, domain.PaymentStatusConfirmed, domain.PaymentStatusRefundRequested, "refund requested: "+reason)
	rec.Status = domain.PaymentStatusRefundRequested

	s.log.Info().Str("reference", reference).Str("reason", reason).Msg("refund requested")
	return rec, nil
}

// ApproveRefund is the operator action moving REFUND_REQUESTED to REFUNDED.
func (s *PaymentServiceImpl) ApproveRefund(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	rec, err := s.getLive(ctx, reference)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.PaymentStatusRefundRequested {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}

	now := time.Now().UTC()
	ok, err := s.paymentRepo.TransitionStatus(ctx, reference,
		domain.PaymentStatusRefundRequested, domain.PaymentStatusRefunded, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("approve refund: %w", err))
	}
	if !ok {
		current, gerr := s.paymentRepo.GetByReference(ctx, reference)
		if gerr != nil || current == nil {
			return nil, apperror.InternalError(fmt.Errorf("reread after conflict: %w", gerr))
		}
		return nil, apperror.ErrInvalidState(string(current.Status))
	}

	s.appendEvent(ctx, reference, domain.PaymentStatusRefundRequested, domain.PaymentStatusRefunded, "refund approved")
	rec.Status = domain.PaymentStatusRefunded
	rec.RefundedAt = &now

	s.log.Info().Str("reference", reference).Msg("refund approved")
	return rec, nil
}

// GetPayment returns the authoritative record, applying lazy expiry first.
// Pending and awaiting states are normal responses, never errors.
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	return s.getLive(ctx, reference)
}

// getLive loads a record and applies the read-time expiry policy: a record
// past its window while still waiting for funds is flipped to EXPIRED via
// a conditional update. No background sweep exists.
func (s *PaymentServiceImpl) getLive(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	rec, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if rec == nil {
		return nil, apperror.ErrNotFound("payment")
	}

	now := time.Now().UTC()
	if rec.IsExpired(now) {
		from := rec.Status
		ok, terr := s.paymentRepo.TransitionStatus(ctx, reference, from, domain.PaymentStatusExpired, now)
		if terr != nil {
			return nil, apperror.InternalError(fmt.Errorf("expire payment: %w", terr))
		}
		if ok {
			s.appendEvent(ctx, reference, from, domain.PaymentStatusExpired, "payment window elapsed")
			rec.Status = domain.PaymentStatusExpired
		} else {
			// Concurrent transition won; reread the authoritative state.
			rec, err = s.paymentRepo.GetByReference(ctx, reference)
			if err != nil || rec == nil {
				return nil, apperror.InternalError(fmt.Errorf("reread after expiry conflict: %w", err))
			}
		}
	}

	return rec, nil
}

// appendEvent records a transition in the payment history, best-effort.
func (s *PaymentServiceImpl) appendEvent(ctx context.Context, reference string, from, to domain.PaymentStatus, note string) {
	e := &domain.PaymentEvent{
		ID:         uuid.New(),
		Reference:  reference,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("failed to append payment event")
	}
}

// newReference generates the opaque payment identifier handed to clients.
func newReference() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "PAY-" + hex.EncodeToString(b), nil
}
