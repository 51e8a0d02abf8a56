package dto

// RegisterRequest is the request body for operator registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	OperatorID string `json:"operator_id"`
	Username   string `json:"username"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreatePaymentRequest is the request body for creating a payment.
// Amount is a decimal string to avoid float rounding on crypto amounts.
type CreatePaymentRequest struct {
	Coin          string `json:"coin" binding:"required,max=10"`
	Amount        string `json:"amount" binding:"required,max=40"`
	CustomerEmail string `json:"customer_email" binding:"required,email,max=254"`
}

// SubmitHashRequest is the request body for attaching a transaction hash.
type SubmitHashRequest struct {
	TxHash string `json:"tx_hash" binding:"required,min=4,max=128"`
}

// RefundRequest is the request body for requesting a refund.
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PaymentResponse is the public view of a payment record.
type PaymentResponse struct {
	Reference     string  `json:"reference"`
	Coin          string  `json:"coin"`
	Network       string  `json:"network"`
	Amount        string  `json:"amount"`
	Status        string  `json:"status"`
	CustomerEmail string  `json:"customer_email"`
	PayToAddress  string  `json:"pay_to_address,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ExpiresAt     string  `json:"expires_at"`
	ConfirmedAt   *string `json:"confirmed_at,omitempty"`
	RefundedAt    *string `json:"refunded_at,omitempty"`
}

// PaymentListResponse wraps a paginated payment list.
type PaymentListResponse struct {
	Items      []PaymentResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// PaymentEventResponse is one entry of a payment's transition history.
type PaymentEventResponse struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// CreateCampaignRequest is the request body for creating a campaign.
// StepDelays are seconds between drip steps; only drip campaigns use them.
type CreateCampaignRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=100"`
	Type            string  `json:"type" binding:"required"`
	TemplateID      string  `json:"template_id,omitempty" binding:"omitempty,safe_id,max=100"`
	ScheduledFor    *int64  `json:"scheduled_for,omitempty"` // Unix timestamp
	RecipientFilter string  `json:"recipient_filter" binding:"required,max=200"`
	MessageTemplate string  `json:"message_template" binding:"required,max=200"`
	Subject         string  `json:"subject" binding:"required,max=200"`
	StepDelays      []int64 `json:"step_delays,omitempty"`
}

// CampaignResponse is the public view of a campaign record.
type CampaignResponse struct {
	ID              string  `json:"id"`
	TemplateID      string  `json:"template_id,omitempty"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	PeriodKey       *string `json:"period_key,omitempty"`
	ScheduledFor    *string `json:"scheduled_for,omitempty"`
	LastRunAt       *string `json:"last_run_at,omitempty"`
	RecipientFilter string  `json:"recipient_filter"`
	Subject         string  `json:"subject"`
	DripStep        int     `json:"drip_step"`
	CreatedAt       string  `json:"created_at"`
}

// CampaignListResponse wraps a paginated campaign list.
type CampaignListResponse struct {
	Items      []CampaignResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// DispatchReportResponse summarises one campaign run.
type DispatchReportResponse struct {
	CampaignID string   `json:"campaign_id"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Failures   []string `json:"failures,omitempty"`
}

// TickResponse lists the campaigns triggered by a scheduler tick.
type TickResponse struct {
	Triggered []string `json:"triggered"`
}

// DashboardStatsResponse is the response for dashboard statistics.
type DashboardStatsResponse struct {
	TotalPayments   int64             `json:"total_payments"`
	Confirmed       int64             `json:"confirmed"`
	Expired         int64             `json:"expired"`
	Failed          int64             `json:"failed"`
	Refunded        int64             `json:"refunded"`
	ConfirmedByCoin map[string]string `json:"confirmed_by_coin"`
}
