package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/core/ports/mocks"
	"crypto-checkout/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pendingPayment() *domain.PaymentRecord {
	now := time.Now().UTC()
	return &domain.PaymentRecord{
		Reference:      "PAY-abc123",
		Coin:           domain.CoinBTC,
		Network:        "bitcoin",
		ExpectedAmount: decimal.RequireFromString("0.01"),
		Status:         domain.PaymentStatusPending,
		CustomerEmail:  "buyer@example.com",
		CreatedAt:      now,
		ExpiresAt:      now.Add(30 * time.Minute),
	}
}

func postJSON(c *gin.Context, path string, body any) {
	raw, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
}

func envelopeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response envelope missing data object: %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	op := &domain.Operator{ID: uuid.New(), Username: "ops-anna", Status: domain.OperatorStatusActive}
	mockAuth.EXPECT().Register(gomock.Any(), "ops-anna", "password123").Return(op, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/auth/register", dto.RegisterRequest{Username: "ops-anna", Password: "password123"})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, op.ID.String(), data["operator_id"])
	assert.Equal(t, "ops-anna", data["username"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/auth/register", map[string]string{})

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "ops-anna", "password123").Return("jwt-token", expiry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/auth/login", dto.LoginRequest{Username: "ops-anna", Password: "password123"})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/auth/login", dto.LoginRequest{Username: "ops-anna", Password: "wrong"})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Payment Handler Tests ---

func TestCreatePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	p := pendingPayment()
	mockSvc.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
			assert.Equal(t, domain.CoinBTC, req.Coin)
			assert.True(t, decimal.RequireFromString("0.01").Equal(req.Amount))
			assert.Equal(t, "buyer@example.com", req.CustomerEmail)
			return &ports.CreatePaymentResult{Payment: p, PayToAddress: "bc1qexample"}, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/payments", dto.CreatePaymentRequest{
		Coin:          "BTC",
		Amount:        "0.01",
		CustomerEmail: "buyer@example.com",
	})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "PAY-abc123", data["reference"])
	assert.Equal(t, "bc1qexample", data["pay_to_address"])
	assert.Equal(t, "PENDING", data["status"])
}

func TestCreatePayment_BadAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/payments", dto.CreatePaymentRequest{
		Coin:          "BTC",
		Amount:        "not-a-number",
		CustomerEmail: "buyer@example.com",
	})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePayment_UnsupportedCoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	mockSvc.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrUnsupportedCoin("DOGE"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/payments", dto.CreatePaymentRequest{
		Coin:          "DOGE",
		Amount:        "5",
		CustomerEmail: "buyer@example.com",
	})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAY_004")
}

func TestSubmitHash_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	p := pendingPayment()
	p.Status = domain.PaymentStatusAwaitingConfirm
	mockSvc.EXPECT().SubmitTransactionHash(gomock.Any(), "PAY-abc123", "0xdeadbeef").Return(p, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/payments/PAY-abc123/hash", dto.SubmitHashRequest{TxHash: "0xdeadbeef"})
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.SubmitHash(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "AWAITING_CONFIRMATION", data["status"])
}

func TestSubmitHash_Expired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	mockSvc.EXPECT().SubmitTransactionHash(gomock.Any(), "PAY-abc123", gomock.Any()).
		Return(nil, apperror.ErrExpired())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/payments/PAY-abc123/hash", dto.SubmitHashRequest{TxHash: "0xdeadbeef"})
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.SubmitHash(c)

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "PAY_003")
}

func TestVerify_Confirmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	p := pendingPayment()
	p.Status = domain.PaymentStatusConfirmed
	now := time.Now().UTC()
	p.ConfirmedAt = &now
	mockSvc.EXPECT().VerifyPayment(gomock.Any(), "PAY-abc123").Return(p, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/PAY-abc123/verify", nil)
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "CONFIRMED", data["status"])
	assert.NotEmpty(t, data["confirmed_at"])
}

func TestVerify_Mismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	p := pendingPayment()
	p.Status = domain.PaymentStatusAwaitingConfirm
	mockSvc.EXPECT().VerifyPayment(gomock.Any(), "PAY-abc123").
		Return(p, apperror.ErrVerificationMismatch("amount below accepted minimum"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/PAY-abc123/verify", nil)
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.Verify(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "PAY_005")
}

func TestVerify_InFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	mockSvc.EXPECT().VerifyPayment(gomock.Any(), "PAY-abc123").
		Return(nil, apperror.ErrVerificationInFlight())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/PAY-abc123/verify", nil)
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.Verify(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PAY_006")
}

func TestGetPayment_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)

	mockSvc.EXPECT().GetPayment(gomock.Any(), "PAY-ghost").
		Return(nil, apperror.ErrNotFound("payment"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/PAY-ghost", nil)
	c.Params = gin.Params{{Key: "reference", Value: "PAY-ghost"}}

	h.GetPayment(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Campaign Handler Tests ---

func TestCampaignCreate_OneOff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCampaignService(ctrl)
	h := NewCampaignHandler(mockSvc, mocks.NewMockCampaignScheduler(ctrl), mocks.NewMockCampaignDispatcher(ctrl))

	scheduledFor := time.Now().Add(time.Hour).Unix()
	rec := &domain.CampaignRecord{
		ID:     uuid.New(),
		Name:   "Launch promo",
		Type:   domain.CampaignTypeOneOff,
		Status: domain.CampaignStatusScheduled,
	}
	mockSvc.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CreateCampaignRequest) (*domain.CampaignRecord, error) {
			assert.Equal(t, domain.CampaignTypeOneOff, req.Type)
			require.NotNil(t, req.ScheduledFor)
			assert.Equal(t, scheduledFor, req.ScheduledFor.Unix())
			return rec, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/campaigns", dto.CreateCampaignRequest{
		Name:            "Launch promo",
		Type:            "ONE_OFF",
		ScheduledFor:    &scheduledFor,
		RecipientFilter: "newsletter-subscribers",
		MessageTemplate: "tmpl-launch",
		Subject:         "We are live",
	})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "SCHEDULED", data["status"])
}

func TestCampaignCreate_DripDelaysConverted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCampaignService(ctrl)
	h := NewCampaignHandler(mockSvc, mocks.NewMockCampaignScheduler(ctrl), mocks.NewMockCampaignDispatcher(ctrl))

	rec := &domain.CampaignRecord{ID: uuid.New(), Type: domain.CampaignTypeDripSequence, Status: domain.CampaignStatusDraft}
	mockSvc.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CreateCampaignRequest) (*domain.CampaignRecord, error) {
			assert.Equal(t, []time.Duration{time.Hour, 48 * time.Hour}, req.StepDelays)
			return rec, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/campaigns", dto.CreateCampaignRequest{
		Name:            "Onboarding drip",
		Type:            "DRIP_SEQUENCE",
		TemplateID:      "onboarding",
		RecipientFilter: "new-customers",
		MessageTemplate: "tmpl-onboarding",
		Subject:         "Welcome",
		StepDelays:      []int64{3600, 172800},
	})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCampaignCreate_NegativeDelayRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl),
		mocks.NewMockCampaignScheduler(ctrl), mocks.NewMockCampaignDispatcher(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/api/v1/campaigns", dto.CreateCampaignRequest{
		Name:            "Bad drip",
		Type:            "DRIP_SEQUENCE",
		TemplateID:      "bad",
		RecipientFilter: "all",
		MessageTemplate: "tmpl",
		Subject:         "s",
		StepDelays:      []int64{-5},
	})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCampaignDispatch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDisp := mocks.NewMockCampaignDispatcher(ctrl)
	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl), mocks.NewMockCampaignScheduler(ctrl), mockDisp)

	id := uuid.New()
	mockDisp.EXPECT().Dispatch(gomock.Any(), id).Return(&domain.DispatchReport{
		CampaignID: id,
		Sent:       9,
		Failed:     1,
		Failures:   []domain.DispatchOutcome{{Recipient: "bounce@example.com", Error: "mailbox full"}},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/"+id.String()+"/dispatch", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Dispatch(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, float64(9), data["sent"])
	assert.Equal(t, float64(1), data["failed"])
}

func TestCampaignDispatch_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl),
		mocks.NewMockCampaignScheduler(ctrl), mocks.NewMockCampaignDispatcher(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/not-a-uuid/dispatch", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Dispatch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCampaignDispatch_NotDispatchable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDisp := mocks.NewMockCampaignDispatcher(ctrl)
	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl), mocks.NewMockCampaignScheduler(ctrl), mockDisp)

	id := uuid.New()
	mockDisp.EXPECT().Dispatch(gomock.Any(), id).
		Return(nil, apperror.ErrCampaignNotDispatchable("COMPLETED"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/"+id.String()+"/dispatch", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Dispatch(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CMP_002")
}

func TestCampaignTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSched := mocks.NewMockCampaignScheduler(ctrl)
	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl), mockSched, mocks.NewMockCampaignDispatcher(ctrl))

	triggered := []uuid.UUID{uuid.New(), uuid.New()}
	mockSched.EXPECT().Tick(gomock.Any(), gomock.Any()).Return(triggered, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/tick", nil)

	h.Tick(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Len(t, data["triggered"], 2)
}

func TestEnsureDaily_UnknownTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSched := mocks.NewMockCampaignScheduler(ctrl)
	h := NewCampaignHandler(mocks.NewMockCampaignService(ctrl), mockSched, mocks.NewMockCampaignDispatcher(ctrl))

	mockSched.EXPECT().EnsureDailyCampaign(gomock.Any(), "ghost").
		Return(nil, apperror.ErrCampaignNotFound())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/daily/ghost/ensure", nil)
	c.Params = gin.Params{{Key: "templateId", Value: "ghost"}}

	h.EnsureDaily(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CMP_001")
}

// --- Dashboard Handler Tests ---

func TestGetStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRep := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockRep)

	mockRep.EXPECT().GetPaymentStats(gomock.Any(), "week").Return(&ports.PaymentStats{
		TotalPayments: 12,
		Confirmed:     8,
		ConfirmedByCoin: map[domain.Coin]decimal.Decimal{
			domain.CoinBTC: decimal.RequireFromString("0.4"),
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats?period=week", nil)

	h.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, float64(12), data["total_payments"])
	byCoin := data["confirmed_by_coin"].(map[string]interface{})
	assert.Equal(t, "0.4", byCoin["BTC"])
}

func TestListPayments_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRep := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockRep)

	p := pendingPayment()
	mockRep.EXPECT().ListPayments(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.PaymentListParams) ([]domain.PaymentRecord, int64, error) {
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.PaymentStatusConfirmed, *params.Status)
			require.NotNil(t, params.Coin)
			assert.Equal(t, domain.CoinBTC, *params.Coin)
			assert.Equal(t, 2, params.Page)
			return []domain.PaymentRecord{*p}, 21, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/payments?status=CONFIRMED&coin=BTC&page=2&page_size=20", nil)

	h.ListPayments(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, float64(21), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
}

func TestListPaymentEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRep := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockRep)

	mockRep.EXPECT().ListPaymentEvents(gomock.Any(), "PAY-abc123").Return([]domain.PaymentEvent{
		{
			Reference:  "PAY-abc123",
			FromStatus: domain.PaymentStatusPending,
			ToStatus:   domain.PaymentStatusAwaitingConfirm,
			Note:       "transaction hash submitted",
			CreatedAt:  time.Now().UTC(),
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/PAY-abc123/events", nil)
	c.Params = gin.Params{{Key: "reference", Value: "PAY-abc123"}}

	h.ListPaymentEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	events := resp["data"].([]interface{})
	require.Len(t, events, 1)
}
