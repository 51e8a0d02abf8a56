package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// invoiceHTML is the customer-facing receipt. Kept inline: it is the only
// transactional template and carries no branding assets.
const invoiceHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Payment receipt {{.Number}}</h2>
  <p>Your payment has been confirmed.</p>
  <table cellpadding="6">
    <tr><td>Reference</td><td>{{.Reference}}</td></tr>
    <tr><td>Amount</td><td>{{.Amount}} {{.Coin}}</td></tr>
    <tr><td>Network</td><td>{{.Network}}</td></tr>
    <tr><td>Confirmed at</td><td>{{.ConfirmedAt.Format "2006-01-02 15:04 MST"}}</td></tr>
  </table>
  <p>Thank you for your purchase.</p>
</body>
</html>`

// InvoiceServiceImpl implements ports.InvoiceService.
type InvoiceServiceImpl struct {
	mailer ports.Mailer
	tmpl   *template.Template
	log    zerolog.Logger
}

// NewInvoiceService creates a new InvoiceServiceImpl.
func NewInvoiceService(mailer ports.Mailer, log zerolog.Logger) *InvoiceServiceImpl {
	return &InvoiceServiceImpl{
		mailer: mailer,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceHTML)),
		log:    log,
	}
}

// Build derives the invoice document from a confirmed payment record.
func (s *InvoiceServiceImpl) Build(rec *domain.PaymentRecord) (*domain.Invoice, error) {
	if rec.Status != domain.PaymentStatusConfirmed {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}
	if rec.ConfirmedAt == nil {
		return nil, apperror.ErrInvalidState(string(rec.Status))
	}
	return &domain.Invoice{
		Number:        invoiceNumber(rec),
		Reference:     rec.Reference,
		Coin:          rec.Coin,
		Network:       rec.Network,
		Amount:        rec.ExpectedAmount,
		CustomerEmail: rec.CustomerEmail,
		IssuedAt:      time.Now().UTC(),
		ConfirmedAt:   *rec.ConfirmedAt,
	}, nil
}

// Deliver renders the invoice and sends it to the customer.
func (s *InvoiceServiceImpl) Deliver(ctx context.Context, rec *domain.PaymentRecord) error {
	inv, err := s.Build(rec)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, inv); err != nil {
		return apperror.InternalError(fmt.Errorf("render invoice: %w", err))
	}

	email := ports.OutboundEmail{
		To:      inv.CustomerEmail,
		Subject: fmt.Sprintf("Payment receipt %s", inv.Number),
		HTML:    buf.String(),
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return apperror.ErrDispatchFailed(fmt.Errorf("send invoice %s: %w", inv.Number, err))
	}

	s.log.Info().
		Str("reference", inv.Reference).
		Str("invoice", inv.Number).
		Msg("invoice delivered")
	return nil
}

// invoiceNumber is deterministic per payment so a redelivery never mints a
// second invoice identity.
func invoiceNumber(rec *domain.PaymentRecord) string {
	suffix := strings.TrimPrefix(rec.Reference, "PAY-")
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return "INV-" + strings.ToUpper(suffix)
}
