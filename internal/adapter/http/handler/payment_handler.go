package handler

import (
	"time"

	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"
	"crypto-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles the customer-facing payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal string"))
		return
	}

	result, err := h.paymentSvc.CreatePayment(c.Request.Context(), ports.CreatePaymentRequest{
		Coin:          domain.Coin(req.Coin),
		Amount:        amount,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result.Payment, result.PayToAddress))
}

// GetPayment handles GET /api/v1/payments/:reference.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.paymentSvc.GetPayment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(p, ""))
}

// SubmitHash handles POST /api/v1/payments/:reference/hash.
func (h *PaymentHandler) SubmitHash(c *gin.Context) {
	var req dto.SubmitHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	p, err := h.paymentSvc.SubmitTransactionHash(c.Request.Context(), c.Param("reference"), req.TxHash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(p, ""))
}

// Verify handles POST /api/v1/payments/:reference/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	p, err := h.paymentSvc.VerifyPayment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(p, ""))
}

// RequestRefund handles POST /api/v1/payments/:reference/refund.
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	p, err := h.paymentSvc.RequestRefund(c.Request.Context(), c.Param("reference"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(p, ""))
}

// ApproveRefund handles POST /api/v1/payments/:reference/refund/approve.
func (h *PaymentHandler) ApproveRefund(c *gin.Context) {
	p, err := h.paymentSvc.ApproveRefund(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toPaymentResponse(p, ""))
}

// toPaymentResponse converts a domain record to its public view. payTo is
// only set on creation; the plaintext address is never re-exposed later.
func toPaymentResponse(p *domain.PaymentRecord, payTo string) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		Reference:     p.Reference,
		Coin:          string(p.Coin),
		Network:       p.Network,
		Amount:        p.ExpectedAmount.String(),
		Status:        string(p.Status),
		CustomerEmail: p.CustomerEmail,
		PayToAddress:  payTo,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		ExpiresAt:     p.ExpiresAt.Format(time.RFC3339),
	}
	if p.ConfirmedAt != nil {
		s := p.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &s
	}
	if p.RefundedAt != nil {
		s := p.RefundedAt.Format(time.RFC3339)
		resp.RefundedAt = &s
	}
	return resp
}
