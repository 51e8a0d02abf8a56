package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignType represents the kind of marketing campaign.
type CampaignType string

const (
	CampaignTypeOneOff         CampaignType = "ONE_OFF"
	CampaignTypeRecurringDaily CampaignType = "RECURRING_DAILY"
	CampaignTypeDripSequence   CampaignType = "DRIP_SEQUENCE"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusRunning   CampaignStatus = "RUNNING"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusFailed    CampaignStatus = "FAILED"
)

// CampaignRecord represents a marketing campaign or one concrete instance
// of a recurring/drip template.
//
// Recurring and drip templates are DRAFT rows with a nil PeriodKey; each
// triggered instance carries a PeriodKey ("2026-08-30" for daily runs,
// "step-2" for drip steps) unique per TemplateID, which is what makes
// instance creation idempotent.
type CampaignRecord struct {
	ID              uuid.UUID       `json:"id"`
	TemplateID      string          `json:"template_id"`
	Name            string          `json:"name"`
	Type            CampaignType    `json:"type"`
	Status          CampaignStatus  `json:"status"`
	PeriodKey       *string         `json:"period_key,omitempty"`
	ScheduledFor    *time.Time      `json:"scheduled_for,omitempty"`
	LastRunAt       *time.Time      `json:"last_run_at,omitempty"`
	RecipientFilter string          `json:"recipient_filter"`
	MessageTemplate string          `json:"message_template"`
	Subject         string          `json:"subject"`
	DripStep        int             `json:"drip_step"`
	StepDelays      []time.Duration `json:"step_delays,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsDue reports whether the campaign should be triggered at now.
func (c *CampaignRecord) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled &&
		c.ScheduledFor != nil &&
		!c.ScheduledFor.After(now)
}

// RanInPeriod reports whether a recurring-daily campaign already had a
// successful run within the calendar day containing now, evaluated in loc.
// Enforces the at-most-once-per-day contract even when the external
// trigger fires multiple times per period.
func (c *CampaignRecord) RanInPeriod(now time.Time, loc *time.Location) bool {
	if c.Type != CampaignTypeRecurringDaily || c.LastRunAt == nil {
		return false
	}
	y1, m1, d1 := c.LastRunAt.In(loc).Date()
	y2, m2, d2 := now.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// HasNextDripStep reports whether another drip step follows the current one.
func (c *CampaignRecord) HasNextDripStep() bool {
	return c.Type == CampaignTypeDripSequence && c.DripStep+1 < len(c.StepDelays)
}

// DailyPeriodKey formats the idempotence key for a daily run in loc.
func DailyPeriodKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// NewDailyInstance mints the SCHEDULED instance of a recurring-daily
// template for the period identified by periodKey, due at scheduledFor.
func NewDailyInstance(tmpl *CampaignRecord, periodKey string, scheduledFor time.Time) *CampaignRecord {
	now := time.Now().UTC()
	return &CampaignRecord{
		ID:              uuid.New(),
		TemplateID:      tmpl.TemplateID,
		Name:            tmpl.Name,
		Type:            tmpl.Type,
		Status:          CampaignStatusScheduled,
		PeriodKey:       &periodKey,
		ScheduledFor:    &scheduledFor,
		RecipientFilter: tmpl.RecipientFilter,
		MessageTemplate: tmpl.MessageTemplate,
		Subject:         tmpl.Subject,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NextDripInstance mints the instance for the drip step after currentStep
// (pass -1 for the opening step), due at scheduledFor. Step delays travel
// with each instance so chaining needs no template reread.
func NextDripInstance(tmpl *CampaignRecord, currentStep int, scheduledFor time.Time) *CampaignRecord {
	step := currentStep + 1
	key := fmt.Sprintf("step-%d", step)
	now := time.Now().UTC()
	return &CampaignRecord{
		ID:              uuid.New(),
		TemplateID:      tmpl.TemplateID,
		Name:            tmpl.Name,
		Type:            CampaignTypeDripSequence,
		Status:          CampaignStatusScheduled,
		PeriodKey:       &key,
		ScheduledFor:    &scheduledFor,
		RecipientFilter: tmpl.RecipientFilter,
		MessageTemplate: tmpl.MessageTemplate,
		Subject:         tmpl.Subject,
		DripStep:        step,
		StepDelays:      tmpl.StepDelays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DispatchOutcome records the delivery result for a single recipient.
type DispatchOutcome struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error,omitempty"`
}

// DispatchReport aggregates per-recipient delivery outcomes for one
// campaign run. Per-recipient failures never abort the batch; they are
// collected here instead.
type DispatchReport struct {
	CampaignID uuid.UUID         `json:"campaign_id"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Failures   []DispatchOutcome `json:"failures,omitempty"`
}
