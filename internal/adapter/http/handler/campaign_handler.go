package handler

import (
	"strconv"
	"time"

	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"
	"crypto-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CampaignHandler handles the operator campaign endpoints.
type CampaignHandler struct {
	campaignSvc ports.CampaignService
	scheduler   ports.CampaignScheduler
	dispatcher  ports.CampaignDispatcher
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(campaignSvc ports.CampaignService, scheduler ports.CampaignScheduler, dispatcher ports.CampaignDispatcher) *CampaignHandler {
	return &CampaignHandler{campaignSvc: campaignSvc, scheduler: scheduler, dispatcher: dispatcher}
}

// Create handles POST /api/v1/campaigns.
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	svcReq := ports.CreateCampaignRequest{
		Name:            req.Name,
		Type:            domain.CampaignType(req.Type),
		TemplateID:      req.TemplateID,
		RecipientFilter: req.RecipientFilter,
		MessageTemplate: req.MessageTemplate,
		Subject:         req.Subject,
	}
	if req.ScheduledFor != nil {
		at := time.Unix(*req.ScheduledFor, 0).UTC()
		svcReq.ScheduledFor = &at
	}
	for _, secs := range req.StepDelays {
		if secs <= 0 {
			response.Error(c, apperror.Validation("step_delays must be positive seconds"))
			return
		}
		svcReq.StepDelays = append(svcReq.StepDelays, time.Duration(secs)*time.Second)
	}

	rec, err := h.campaignSvc.Create(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toCampaignResponse(rec))
}

// List handles GET /api/v1/campaigns.
func (h *CampaignHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.campaignSvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.CampaignListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	if pageSize > 0 {
		resp.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	for i := range items {
		resp.Items = append(resp.Items, toCampaignResponse(&items[i]))
	}
	response.OK(c, resp)
}

// Dispatch handles POST /api/v1/campaigns/:id/dispatch — the execute-now
// path. It goes through the same conditional status gate as scheduled
// runs, so a concurrent tick cannot double-send.
func (h *CampaignHandler) Dispatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("campaign id must be a UUID"))
		return
	}

	report, err := h.dispatcher.Dispatch(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.DispatchReportResponse{
		CampaignID: report.CampaignID.String(),
		Sent:       report.Sent,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, f.Recipient+": "+f.Error)
	}
	response.OK(c, resp)
}

// Tick handles POST /api/v1/campaigns/tick. The trigger is external (cron
// or an operator); the handler just runs one scheduling pass.
func (h *CampaignHandler) Tick(c *gin.Context) {
	triggered, err := h.scheduler.Tick(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.TickResponse{Triggered: []string{}}
	for _, id := range triggered {
		resp.Triggered = append(resp.Triggered, id.String())
	}
	response.OK(c, resp)
}

// EnsureDaily handles POST /api/v1/campaigns/daily/:templateId/ensure.
// Idempotent: repeated calls for the same template and day return the same
// instance.
func (h *CampaignHandler) EnsureDaily(c *gin.Context) {
	rec, err := h.scheduler.EnsureDailyCampaign(c.Request.Context(), c.Param("templateId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toCampaignResponse(rec))
}

// toCampaignResponse converts a domain record to its public view.
func toCampaignResponse(rec *domain.CampaignRecord) dto.CampaignResponse {
	resp := dto.CampaignResponse{
		ID:              rec.ID.String(),
		TemplateID:      rec.TemplateID,
		Name:            rec.Name,
		Type:            string(rec.Type),
		Status:          string(rec.Status),
		PeriodKey:       rec.PeriodKey,
		RecipientFilter: rec.RecipientFilter,
		Subject:         rec.Subject,
		DripStep:        rec.DripStep,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.ScheduledFor != nil {
		s := rec.ScheduledFor.Format(time.RFC3339)
		resp.ScheduledFor = &s
	}
	if rec.LastRunAt != nil {
		s := rec.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &s
	}
	return resp
}
