package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systempay-gateway/config"
	"systempay-gateway/internal/adapter/http/handler"
	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/internal/service"
)

const (
	testOperator = "operator"
	testPassword = "correct-horse-battery"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testStack wires the full HTTP stack against in-memory storage.
type testStack struct {
	router *gin.Engine
	ledger *inMemoryLedger
	signer *service.DigestSignatureService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	gatewayCfg := config.GatewayConfig{
		SandboxMode:     true,
		SiteID:          "12345678",
		Certificate:     "1234567890",
		ActionMode:      "INTERACTIVE",
		Version:         "V2",
		Algorithm:       "sha1",
		Currency:        "978",
		PaymentURL:      "https://paiement.systempay.fr/vads-payment/",
		ReturnURL:       "https://shop.example.com/payment/success",
		CancelURL:       "https://shop.example.com/payment/cancel",
		PaymentConfig:   "SINGLE",
		RedirectTimeout: 5,
	}
	require.NoError(t, gatewayCfg.Validate())

	hashSvc := service.NewArgon2HashService()
	passwordHash, err := hashSvc.Hash(testPassword)
	require.NoError(t, err)

	dashboardCfg := config.DashboardConfig{
		Username:     testOperator,
		PasswordHash: passwordHash,
		JWTSecret:    "integration-test-secret",
		JWTExpiry:    time.Hour,
		JWTIssuer:    "systempay-gateway",
	}

	signer := service.NewDigestSignatureService(gatewayCfg.Certificate, gatewayCfg.Algorithm)
	fieldSvc := service.NewGatewayFieldService(gatewayCfg, service.NewTimeTransIDAllocator())
	tokenSvc := service.NewJWTTokenService(dashboardCfg.JWTSecret, dashboardCfg.JWTExpiry, dashboardCfg.JWTIssuer)

	ledger := newInMemoryLedger()
	cache := newInMemoryDuplicateCache()
	engine := service.NewReconciliationService(fieldSvc, signer, ledger, cache, gatewayCfg.PaymentURL, zerolog.Nop())
	authSvc := service.NewOperatorAuthService(dashboardCfg, hashSvc, tokenSvc, zerolog.Nop())
	reportingSvc := service.NewReportingService(ledger, engine, zerolog.Nop())

	router := handler.SetupRouter(handler.RouterDeps{
		Engine:       engine,
		AuthSvc:      authSvc,
		ReportingSvc: reportingSvc,
		TokenSvc:     tokenSvc,
		Logger:       zerolog.Nop(),
	})

	return &testStack{router: router, ledger: ledger, signer: signer}
}

// notification builds a signed gateway notification form.
func (s *testStack) notification(orderRef, transID, result string, op domain.OperationType) url.Values {
	values := url.Values{
		"vads_amount":         {"5024"},
		"vads_auth_result":    {result},
		"vads_currency":       {"978"},
		"vads_order_id":       {orderRef},
		"vads_operation_type": {string(op)},
		"vads_result":         {result},
		"vads_site_id":        {"12345678"},
		"vads_trans_date":     {"20260830153000"},
		"vads_trans_id":       {transID},
	}
	values.Set("signature", s.signer.Sign(domain.FieldSetFromValues(values)))
	return values
}

func (s *testStack) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testStack) postJSON(path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testStack) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testStack) login(t *testing.T) string {
	t.Helper()
	w := s.postJSON("/api/v1/auth/login", map[string]string{
		"username": testOperator,
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return dataField(t, w)["token"].(string)
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func TestSubmitProducesVerifiableForm(t *testing.T) {
	s := newTestStack(t)

	w := s.postJSON("/api/v1/payments/submit", map[string]any{
		"order_reference": "ORD-100024",
		"amount":          "50.24",
		"customer": map[string]string{
			"id":    "CUST-9",
			"email": "buyer@example.com",
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	data := dataField(t, w)
	assert.Equal(t, "https://paiement.systempay.fr/vads-payment/", data["gateway_url"])
	assert.Equal(t, "POST", data["method"])

	rawFields := data["fields"].(map[string]any)
	fs := domain.FieldSet{}
	for k, v := range rawFields {
		fs.Set(k, v.(string))
	}
	assert.Equal(t, "5024", fs.Get("vads_amount"))
	assert.Equal(t, "TEST", fs.Get("vads_ctx_mode"))
	assert.Equal(t, "buyer@example.com", fs.Get("vads_cust_email"))
	assert.True(t, s.signer.Verify(fs, fs.Get(domain.FieldSignature)))

	assert.Equal(t, 1, s.ledger.count(domain.ModeSubmit))
}

func TestSubmitRejectsProtectedOverrides(t *testing.T) {
	s := newTestStack(t)

	w := s.postJSON("/api/v1/payments/submit", map[string]any{
		"order_reference": "ORD-100024",
		"amount":          "50.24",
		"overrides": map[string]string{
			"vads_amount":    "1", // silently ignored, never applied
			"vads_cust_city": "Lyon",
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	fields := dataField(t, w)["fields"].(map[string]any)
	assert.Equal(t, "5024", fields["vads_amount"])
	assert.Equal(t, "Lyon", fields["vads_cust_city"])
}

func TestNotificationCaptureThenDuplicate(t *testing.T) {
	s := newTestStack(t)
	form := s.notification("ORD-100024", "558000", "00", domain.OperationDebit)

	w := s.postForm("/api/v1/payments/ipn", form)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "processed", data["status"])
	assert.Equal(t, "CAPTURE", data["direction"])
	assert.Equal(t, "50.24", data["amount"])

	// Second delivery of the same notification: acknowledged but the
	// side effect is not applied again. The raw attempt is still kept.
	w = s.postForm("/api/v1/payments/ipn", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "already_processed", dataField(t, w)["status"])

	assert.Equal(t, 2, s.ledger.count(domain.ModeNotification))
}

func TestNotificationRefund(t *testing.T) {
	s := newTestStack(t)
	form := s.notification("ORD-100024", "558001", "00", domain.OperationCredit)

	w := s.postForm("/api/v1/payments/ipn", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "REFUND", dataField(t, w)["direction"])
}

func TestNotificationTamperedAmountIsRecorded(t *testing.T) {
	s := newTestStack(t)
	form := s.notification("ORD-100024", "558000", "00", domain.OperationDebit)
	form.Set("vads_amount", "1") // tamper after signing

	w := s.postForm("/api/v1/payments/ipn", form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "GW_002")

	// The attempt is in the ledger, marked errored.
	require.Equal(t, 1, s.ledger.count(domain.ModeNotification))
	listed, _, err := s.ledger.List(context.Background(), ports.LedgerListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotEmpty(t, listed[0].ErrorMessage)

	// The forged twin does not suppress the legitimate delivery.
	legit := s.notification("ORD-100024", "558000", "00", domain.OperationDebit)
	w = s.postForm("/api/v1/payments/ipn", legit)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", dataField(t, w)["status"])
}

func TestNotificationRefusedStillAcknowledged(t *testing.T) {
	s := newTestStack(t)
	form := s.notification("ORD-100024", "558000", "05", domain.OperationDebit)

	w := s.postForm("/api/v1/payments/ipn", form)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "rejected", data["status"])
	assert.Equal(t, "05", data["result_code"])

	// A refused delivery never suppresses a later genuine one.
	retry := s.notification("ORD-100024", "558000", "00", domain.OperationDebit)
	w = s.postForm("/api/v1/payments/ipn", retry)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", dataField(t, w)["status"])
}

func TestReturnEndpointBuyerFacing(t *testing.T) {
	s := newTestStack(t)

	w := s.postForm("/api/v1/payments/return", s.notification("ORD-100024", "558000", "00", domain.OperationDebit))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", dataField(t, w)["status"])

	w = s.postForm("/api/v1/payments/return", s.notification("ORD-100025", "558002", "17", domain.OperationDebit))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", dataField(t, w)["status"])
}

func TestDashboardFlow(t *testing.T) {
	s := newTestStack(t)

	// Seed one capture and one refused delivery.
	require.Equal(t, http.StatusOK, s.postForm("/api/v1/payments/ipn", s.notification("ORD-1", "558000", "00", domain.OperationDebit)).Code)
	require.Equal(t, http.StatusOK, s.postForm("/api/v1/payments/ipn", s.notification("ORD-2", "558001", "05", domain.OperationDebit)).Code)

	// No token: rejected.
	assert.Equal(t, http.StatusUnauthorized, s.get("/api/v1/dashboard/transactions", "").Code)

	token := s.login(t)

	w := s.get("/api/v1/dashboard/transactions?mode=NOTIFICATION", token)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, float64(2), data["total"])

	// Drill into the capture, signature verified from the stored payload.
	items := data["items"].([]any)
	var captureID string
	for _, item := range items {
		m := item.(map[string]any)
		if m["order_reference"] == "ORD-1" {
			captureID = m["id"].(string)
		}
	}
	require.NotEmpty(t, captureID)

	w = s.get("/api/v1/dashboard/transactions/"+captureID, token)
	require.Equal(t, http.StatusOK, w.Code)
	detail := dataField(t, w)
	assert.Equal(t, true, detail["signature_valid"])
	assert.Equal(t, "Action completed successfully.", detail["result_message"])

	w = s.get("/api/v1/dashboard/stats?period=all", token)
	require.Equal(t, http.StatusOK, w.Code)
	stats := dataField(t, w)
	assert.Equal(t, float64(2), stats["notifications"])
	assert.Equal(t, float64(1), stats["complete"])
	assert.Equal(t, float64(5024), stats["captured_minor_units"])
}

func TestReplayRequiresOperatorToken(t *testing.T) {
	s := newTestStack(t)
	form := s.notification("ORD-100024", "558000", "00", domain.OperationDebit)

	replayURL := "/api/v1/payments/ipn?" + form.Encode()
	assert.Equal(t, http.StatusUnauthorized, s.get(replayURL, "").Code)

	token := s.login(t)
	w := s.get(replayURL, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processed", dataField(t, w)["status"])

	// Replaying after the original delivery is harmless.
	w = s.get(replayURL, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "already_processed", dataField(t, w)["status"])
}
