package handler

import (
	"strconv"
	"time"

	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles operator reporting endpoints.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/v1/dashboard/stats?period=today|week|month|all.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.GetPaymentStats(c.Request.Context(), c.DefaultQuery("period", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.DashboardStatsResponse{
		TotalPayments:   stats.TotalPayments,
		Confirmed:       stats.Confirmed,
		Expired:         stats.Expired,
		Failed:          stats.Failed,
		Refunded:        stats.Refunded,
		ConfirmedByCoin: make(map[string]string, len(stats.ConfirmedByCoin)),
	}
	for coin, sum := range stats.ConfirmedByCoin {
		resp.ConfirmedByCoin[string(coin)] = sum.String()
	}
	response.OK(c, resp)
}

// ListPayments handles GET /api/v1/payments (operator view, filterable).
func (h *DashboardHandler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	params := ports.PaymentListParams{Page: page, PageSize: pageSize}
	if s := c.Query("status"); s != "" {
		status := domain.PaymentStatus(s)
		params.Status = &status
	}
	if s := c.Query("coin"); s != "" {
		coin := domain.Coin(s)
		params.Coin = &coin
	}
	if s := c.Query("from"); s != "" {
		if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
			params.From = &ts
		}
	}
	if s := c.Query("to"); s != "" {
		if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
			params.To = &ts
		}
	}

	items, total, err := h.reportingSvc.ListPayments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.PaymentListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	if pageSize > 0 {
		resp.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	for i := range items {
		resp.Items = append(resp.Items, toPaymentResponse(&items[i], ""))
	}
	response.OK(c, resp)
}

// ListPaymentEvents handles GET /api/v1/payments/:reference/events.
func (h *DashboardHandler) ListPaymentEvents(c *gin.Context) {
	events, err := h.reportingSvc.ListPaymentEvents(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]dto.PaymentEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, dto.PaymentEventResponse{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Note:       e.Note,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	response.OK(c, resp)
}
