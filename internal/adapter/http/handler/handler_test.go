package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vendor-invoicing/internal/adapter/http/middleware"
	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/core/ports/mocks"
	"vendor-invoicing/internal/metrics"
	"vendor-invoicing/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "valid-token"

type routerMocks struct {
	auth       *mocks.MockAuthService
	wallet     *mocks.MockWalletService
	withdrawal *mocks.MockWithdrawalService
	recon      *mocks.MockReconciliationService
	vendor     *mocks.MockVendorService
	token      *mocks.MockTokenService
	hook       *mocks.MockWebhookAuthenticator
	health     *mocks.MockHealthChecker
}

func newTestRouter(t *testing.T) (*gin.Engine, *routerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &routerMocks{
		auth:       mocks.NewMockAuthService(ctrl),
		wallet:     mocks.NewMockWalletService(ctrl),
		withdrawal: mocks.NewMockWithdrawalService(ctrl),
		recon:      mocks.NewMockReconciliationService(ctrl),
		vendor:     mocks.NewMockVendorService(ctrl),
		token:      mocks.NewMockTokenService(ctrl),
		hook:       mocks.NewMockWebhookAuthenticator(ctrl),
		health:     mocks.NewMockHealthChecker(ctrl),
	}
	r := SetupRouter(RouterDeps{
		AuthSvc:           m.auth,
		WalletSvc:         m.wallet,
		WithdrawalSvc:     m.withdrawal,
		ReconciliationSvc: m.recon,
		VendorSvc:         m.vendor,
		TokenSvc:          m.token,
		WebhookAuth:       m.hook,
		HealthCheckers:    []ports.HealthChecker{m.health},
		Logger:            zerolog.Nop(),
	})
	return r, m
}

// authorize makes testToken resolve to vendorID.
func (m *routerMocks) authorize(vendorID uuid.UUID) {
	m.token.EXPECT().Validate(testToken).Return(&ports.TokenClaims{VendorID: vendorID, Email: "ada@example.com"}, nil).AnyTimes()
}

func doRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Auth ---

func TestRegister_Success(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()

	m.auth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Email:        "ada@example.com",
		Password:     "password123",
		FirstName:    "Ada",
		LastName:     "Obi",
		BusinessName: "Ada Prints",
	}).Return(&domain.Vendor{ID: vendorID, Email: "ada@example.com"}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        "ada@example.com",
		"password":     "password123",
		"firstName":    "Ada",
		"lastName":     "Obi",
		"businessName": "Ada Prints",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, vendorID.String(), data["vendor_id"])
	assert.Equal(t, "ada@example.com", data["email"])
}

func TestRegister_ValidationError(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "not-an-email"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAY_002", decode(t, w)["error_code"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r, m := newTestRouter(t)
	m.auth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "ada@example.com", "password": "password123", "firstName": "Ada", "lastName": "Obi",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_002", decode(t, w)["error_code"])
}

func TestLogin_Success(t *testing.T) {
	r, m := newTestRouter(t)
	expiry := time.Now().Add(24 * time.Hour)
	m.auth.EXPECT().Login(gomock.Any(), "ada@example.com", "password123").Return("jwt-token", expiry, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ada@example.com", "password": "password123",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r, m := newTestRouter(t)
	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_001", decode(t, w)["error_code"])
}

// --- Webhook ---

const cardPayload = `{"event.type":"CARD_TRANSACTION","id":4521,"txRef":"inv-ref","amount":500,"status":"successful"}`

func TestWebhook_BadSignatureNeverReconciles(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"missing header", nil},
		{"wrong secret", map[string]string{middleware.HeaderWebhookSignature: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRouter(t)
			m.hook.EXPECT().Verify(gomock.Any()).Return(false)
			// no Reconcile expectation: any call fails the test

			w := doRequest(r, http.MethodPost, "/api/v1/wallet/webhook", cardPayload, tt.headers)

			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Equal(t, "SEC_001", decode(t, w)["error_code"])
		})
	}
}

func TestWebhook_Outcomes(t *testing.T) {
	vendorID := uuid.New()
	tests := []struct {
		name       string
		result     *domain.ReconcileResult
		err        error
		wantStatus int
		wantCode   string
		wantOut    string
	}{
		{
			name:       "credited",
			result:     &domain.ReconcileResult{Outcome: domain.OutcomeCredited, Reference: "inv-ref", VendorID: &vendorID},
			wantStatus: http.StatusOK,
			wantOut:    "credited",
		},
		{
			name:       "duplicate",
			result:     &domain.ReconcileResult{Outcome: domain.OutcomeDuplicate, Reference: "inv-ref"},
			wantStatus: http.StatusOK,
			wantOut:    "duplicate",
		},
		{
			name:       "verification mismatch is acknowledged",
			result:     &domain.ReconcileResult{Outcome: domain.OutcomeRejected, Reference: "inv-ref", Detail: "amount"},
			err:        apperror.ErrVerificationMismatch("amount"),
			wantStatus: http.StatusOK,
			wantOut:    "rejected",
		},
		{
			name:       "gateway outage asks for retry",
			result:     &domain.ReconcileResult{Outcome: domain.OutcomeError, Reference: "inv-ref"},
			err:        apperror.ErrGatewayUnavailable(errors.New("timeout")),
			wantStatus: http.StatusBadGateway,
			wantCode:   "SYS_002",
		},
		{
			name:       "storage failure asks for retry",
			err:        apperror.InternalError(errors.New("db down")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "SYS_001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRouter(t)
			m.hook.EXPECT().Verify("s3cret").Return(true)
			m.recon.EXPECT().Reconcile(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, ev domain.WebhookEvent) (*domain.ReconcileResult, error) {
					assert.Equal(t, domain.EventKindCardPayment, ev.Kind)
					assert.Equal(t, "inv-ref", ev.Reference)
					assert.Equal(t, "4521", ev.GatewayID)
					assert.True(t, decimal.NewFromInt(500).Equal(ev.Amount))
					return tt.result, tt.err
				})

			w := doRequest(r, http.MethodPost, "/api/v1/wallet/webhook", cardPayload,
				map[string]string{middleware.HeaderWebhookSignature: "s3cret"})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode(t, w)["error_code"])
				return
			}
			assert.Equal(t, tt.wantOut, dataOf(t, w)["outcome"])
		})
	}
}

func TestWebhook_MalformedBodyAcknowledged(t *testing.T) {
	r, m := newTestRouter(t)
	m.hook.EXPECT().Verify("s3cret").Return(true)

	w := doRequest(r, http.MethodPost, "/api/v1/wallet/webhook", "{not json",
		map[string]string{middleware.HeaderWebhookSignature: "s3cret"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected", dataOf(t, w)["outcome"])
}

// --- Wallet ---

func TestWallet_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/wallet", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_003", decode(t, w)["error_code"])
}

func TestGetWallet_Success(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.wallet.EXPECT().GetWallet(gomock.Any(), vendorID).Return(&ports.WalletSummary{
		Balance:     decimal.NewFromInt(400),
		TotalCredit: decimal.NewFromInt(500),
	}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/wallet", nil, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "400", dataOf(t, w)["balance"])
}

func TestCreateWallet_Exists(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.wallet.EXPECT().CreateWallet(gomock.Any(), vendorID).Return(nil, apperror.ErrWalletExists())

	w := doRequest(r, http.MethodPost, "/api/v1/wallet", nil, bearer())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PAY_003", decode(t, w)["error_code"])
}

func TestHistory_PaginationAndFilters(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)

	completed := domain.TransactionStatusCompleted
	m.wallet.EXPECT().ListTransactions(gomock.Any(), ports.TransactionListParams{
		VendorID: vendorID,
		Status:   &completed,
		Page:     2,
		PageSize: 5,
	}).Return([]domain.Transaction{{
		ID:          uuid.New(),
		ReferenceID: "inv-ref",
		VendorID:    vendorID,
		Amount:      decimal.NewFromInt(500),
		Type:        domain.TransactionTypeCredit,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   time.Now(),
	}}, int64(11), nil)

	w := doRequest(r, http.MethodGet, "/api/v1/wallet/history?page=2&page_size=5&status=COMPLETED", nil, bearer())

	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "500.00", items[0].(map[string]interface{})["amount"])
	meta := data["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(11), meta["total_items"])
	assert.Equal(t, float64(3), meta["total_pages"])
}

func TestHistory_Defaults(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.wallet.EXPECT().ListTransactions(gomock.Any(), ports.TransactionListParams{
		VendorID: vendorID, Page: 1, PageSize: 20,
	}).Return(nil, int64(0), nil)

	w := doRequest(r, http.MethodGet, "/api/v1/wallet/history", nil, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHistory_InvalidQuery(t *testing.T) {
	tests := []string{
		"?page_size=500",
		"?status=SETTLED",
		"?type=REFUND",
	}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			r, m := newTestRouter(t)
			m.authorize(uuid.New())

			w := doRequest(r, http.MethodGet, "/api/v1/wallet/history"+q, nil, bearer())

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListBanks_Public(t *testing.T) {
	r, m := newTestRouter(t)
	m.wallet.EXPECT().ListBanks(gomock.Any()).Return([]domain.Bank{{ID: 1, Code: "044", Name: "Access Bank"}}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/wallet/banks", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []domain.Bank `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Access Bank", resp.Data[0].Name)
}

func TestVerifyAccount(t *testing.T) {
	r, m := newTestRouter(t)
	m.authorize(uuid.New())
	m.wallet.EXPECT().VerifyBankAccount(gomock.Any(), "0690000031", "044").
		Return(&domain.BankAccount{AccountNumber: "0690000031", AccountName: "ADA OBI", BankCode: "044"}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/wallet/verify-account",
		map[string]string{"accountNumber": "0690000031", "bankCode": "044"}, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ADA OBI", dataOf(t, w)["account_name"])
}

func TestSetPin_AlreadySet(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.wallet.EXPECT().SetTransactionPin(gomock.Any(), vendorID, "1234").Return(apperror.ErrPinAlreadySet())

	w := doRequest(r, http.MethodPost, "/api/v1/wallet/pin", map[string]string{"pin": "1234"}, bearer())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_007", decode(t, w)["error_code"])
}

func TestVerifyPin_Success(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.wallet.EXPECT().VerifyTransactionPin(gomock.Any(), vendorID, "1234").Return(nil)

	w := doRequest(r, http.MethodPost, "/api/v1/wallet/pin/verify", map[string]string{"pin": "1234"}, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataOf(t, w)["valid"])
}

// --- Withdraw ---

func TestWithdraw_Success(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)

	m.withdrawal.EXPECT().Withdraw(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.WithdrawalRequest) (*ports.WithdrawalResult, error) {
			assert.Equal(t, vendorID, req.VendorID)
			assert.Equal(t, "044", req.BankCode)
			assert.Equal(t, "0690000031", req.AccountNumber)
			assert.True(t, decimal.NewFromInt(100).Equal(req.Amount))
			return &ports.WithdrawalResult{
				Reference: "01J9Z",
				Status:    domain.TransactionStatusPending,
				Amount:    req.Amount,
				Message:   "Transfer queued",
			}, nil
		})

	w := doRequest(r, http.MethodPost, "/api/v1/wallet/withdraw", map[string]interface{}{
		"password":      "password123",
		"bankCode":      "044",
		"accountNumber": "0690000031",
		"amount":        100,
	}, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "01J9Z", data["reference"])
	assert.Equal(t, "PENDING", data["status"])
}

func TestWithdraw_Errors(t *testing.T) {
	valid := map[string]interface{}{
		"password": "password123", "bankCode": "044", "accountNumber": "0690000031", "amount": 100,
	}
	tests := []struct {
		name       string
		body       map[string]interface{}
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"missing bank code", map[string]interface{}{"password": "x", "accountNumber": "0690000031", "amount": 100}, nil, http.StatusBadRequest, "PAY_002"},
		{"bad account number", map[string]interface{}{"password": "x", "bankCode": "044", "accountNumber": "12ab", "amount": 100}, nil, http.StatusBadRequest, "PAY_002"},
		{"insufficient funds", valid, apperror.ErrInsufficientFunds(), http.StatusPaymentRequired, "PAY_001"},
		{"below minimum", valid, apperror.ErrMinimumWithdrawal("100"), http.StatusBadRequest, "PAY_002"},
		{"wrong password", valid, apperror.ErrIncorrectPassword(), http.StatusBadRequest, "AUTH_004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRouter(t)
			m.authorize(uuid.New())
			if tt.svcErr != nil {
				m.withdrawal.EXPECT().Withdraw(gomock.Any(), gomock.Any()).Return(nil, tt.svcErr)
			}

			w := doRequest(r, http.MethodPost, "/api/v1/wallet/withdraw", tt.body, bearer())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w)["error_code"])
		})
	}
}

// --- Vendor ---

func TestVendorProfile(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.vendor.EXPECT().GetProfile(gomock.Any(), vendorID).Return(&ports.VendorProfile{
		Vendor: &domain.Vendor{ID: vendorID, Email: "ada@example.com", FirstName: "Ada"},
		Wallet: ports.WalletSummary{Balance: decimal.NewFromInt(400)},
	}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/vendors/me", nil, bearer())

	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "Ada", data["vendor"].(map[string]interface{})["first_name"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestVendorActivity(t *testing.T) {
	r, m := newTestRouter(t)
	vendorID := uuid.New()
	m.authorize(vendorID)
	m.vendor.EXPECT().RecentActivity(gomock.Any(), vendorID).Return([]domain.ActivityLog{
		{ID: uuid.New(), VendorID: vendorID, Action: domain.ActivityActionWithdrawal, Message: "Withdrawal of 100 initiated"},
	}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/vendors/me/activity", nil, bearer())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Withdrawal of 100 initiated")
}

// --- Health, docs, metrics ---

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r, m := newTestRouter(t)
		m.health.EXPECT().Name().Return("postgres").AnyTimes()
		m.health.EXPECT().Ping(gomock.Any()).Return(nil)

		w := doRequest(r, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decode(t, w)["status"])
	})

	t.Run("degraded", func(t *testing.T) {
		r, m := newTestRouter(t)
		m.health.EXPECT().Name().Return("postgres").AnyTimes()
		m.health.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

		w := doRequest(r, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "degraded", resp["status"])
		deps := resp["dependencies"].(map[string]interface{})
		assert.Equal(t, "unhealthy", deps["postgres"].(map[string]interface{})["status"])
	})
}

func TestSwaggerSpec(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/swagger/spec", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/wallet/webhook")
}

func TestMetricsEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	health := mocks.NewMockHealthChecker(ctrl)
	health.EXPECT().Name().Return("redis").AnyTimes()
	health.EXPECT().Ping(gomock.Any()).Return(nil)

	reg := prometheus.NewRegistry()
	r := SetupRouter(RouterDeps{
		HealthCheckers: []ports.HealthChecker{health},
		Metrics:        metrics.New(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:         zerolog.Nop(),
	})

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health", nil, nil).Code)

	w := doRequest(r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vendor_invoicing_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
