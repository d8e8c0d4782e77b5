package service

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systempay-gateway/config"
	"systempay-gateway/internal/core/domain"
	"systempay-gateway/pkg/apperror"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		SandboxMode:     true,
		SiteID:          "12345678",
		Certificate:     "1234567890",
		ActionMode:      "INTERACTIVE",
		Version:         "V2",
		Algorithm:       AlgorithmSHA1,
		Currency:        "978",
		PaymentURL:      "https://paiement.systempay.fr/vads-payment/",
		ReturnURL:       "https://shop.example.com/checkout/return",
		CancelURL:       "https://shop.example.com/checkout/cancel",
		PaymentConfig:   "SINGLE",
		RedirectTimeout: 5,
	}
}

func testFieldService(cfg config.GatewayConfig) *GatewayFieldService {
	at := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)
	svc := NewGatewayFieldService(cfg, allocatorAt(at))
	svc.now = func() time.Time { return at }
	return svc
}

func TestBuildSubmission_MandatoryFields(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	order := domain.OrderSnapshot{
		Number:      "100024",
		TotalAmount: domain.MustAmount("50.24"),
	}
	fs, err := svc.BuildSubmission(order, nil)
	require.NoError(t, err)

	assert.Equal(t, "5024", fs.Get(domain.FieldAmount))
	assert.Equal(t, "978", fs.Get(domain.FieldCurrency))
	assert.Equal(t, "TEST", fs.Get(domain.FieldCtxMode))
	assert.Equal(t, "INTERACTIVE", fs.Get(domain.FieldActionMode))
	assert.Equal(t, "PAYMENT", fs.Get(domain.FieldPageAction))
	assert.Equal(t, "SINGLE", fs.Get(domain.FieldPaymentConfig))
	assert.Equal(t, "12345678", fs.Get(domain.FieldSiteID))
	assert.Equal(t, "V2", fs.Get(domain.FieldVersion))
	assert.Equal(t, "100024", fs.Get(domain.FieldOrderID))
	assert.Equal(t, "20260830153000", fs.Get(domain.FieldTransDate))
	assert.Equal(t, "558000", fs.Get(domain.FieldTransID)) // 15:30:00.0 UTC
	assert.Equal(t, "https://shop.example.com/checkout/return", fs.Get(domain.FieldURLSuccess))
	assert.Equal(t, "https://shop.example.com/checkout/cancel", fs.Get(domain.FieldURLCancel))
	assert.Equal(t, "5", fs.Get(domain.FieldRedirectSuccT))
}

func TestBuildSubmission_OverridesApplyExceptProtected(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	order := domain.OrderSnapshot{
		Number:      "100024",
		TotalAmount: domain.MustAmount("50.24"),
	}
	fs, err := svc.BuildSubmission(order, map[string]string{
		domain.FieldPaymentConfig: "MULTI:first=5024;count=3;period=30",
		domain.FieldCustEmail:     "buyer@example.com",
		domain.FieldAmount:        "1",        // forgery attempt
		domain.FieldTransID:       "000000",   // engine-controlled
		domain.FieldSiteID:        "99999999", // engine-controlled
	})
	require.NoError(t, err)

	assert.Equal(t, "MULTI:first=5024;count=3;period=30", fs.Get(domain.FieldPaymentConfig))
	assert.Equal(t, "buyer@example.com", fs.Get(domain.FieldCustEmail))
	assert.Equal(t, "5024", fs.Get(domain.FieldAmount))
	assert.Equal(t, "558000", fs.Get(domain.FieldTransID))
	assert.Equal(t, "12345678", fs.Get(domain.FieldSiteID))
}

func TestBuildSubmission_CopiesOrderSnapshot(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	order := domain.OrderSnapshot{
		Number:      "100024",
		TotalAmount: domain.MustAmount("50.24"),
		Customer:    &domain.Customer{ID: "42", Name: "Jean Dupont", Email: "jean@example.com"},
		BillingAddress: &domain.Address{
			Line1: "12 rue de la Paix", City: "Paris", Zip: "75002", CountryCode: "FR",
		},
		ShippingName: "Jean Dupont",
		ShippingAddress: &domain.Address{
			Line1: "12 rue de la Paix", City: "Paris", Zip: "75002", CountryCode: "FR",
		},
	}
	fs, err := svc.BuildSubmission(order, nil)
	require.NoError(t, err)

	assert.Equal(t, "42", fs.Get(domain.FieldCustID))
	assert.Equal(t, "jean@example.com", fs.Get(domain.FieldCustEmail))
	assert.Equal(t, "Paris", fs.Get(domain.FieldCustCity))
	assert.Equal(t, "FR", fs.Get(domain.FieldCustCountry))
	assert.Equal(t, "Jean Dupont", fs.Get(domain.FieldShipToName))
	assert.Equal(t, "12 rue de la Paix", fs.Get(domain.FieldShipToStreet))
}

func TestBuildSubmission_UnsupportedCurrency(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	order := domain.OrderSnapshot{
		Number:      "100024",
		TotalAmount: domain.MustAmount("50.24"),
		Currency:    "999",
	}
	_, err := svc.BuildSubmission(order, nil)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GW_001", appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, domain.FieldCurrency, appErr.Fields[0].Field)
}

func validNotificationValues() url.Values {
	return url.Values{
		"vads_amount":         {"5024"},
		"vads_auth_result":    {"00"},
		"vads_currency":       {"978"},
		"vads_order_id":       {"100024"},
		"vads_operation_type": {"DEBIT"},
		"vads_result":         {"00"},
		"vads_site_id":        {"12345678"},
		"vads_trans_date":     {"20260830153000"},
		"vads_trans_id":       {"576000"},
		"signature":           {"deadbeef"},
	}
}

func TestValidate_NotificationOK(t *testing.T) {
	svc := testFieldService(testGatewayConfig())
	fs := svc.ParseNotification(validNotificationValues())
	assert.NoError(t, svc.Validate(fs, domain.ModeNotification))
}

func TestValidate_NotificationEnumeratesEveryViolation(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	values := validNotificationValues()
	values.Del("vads_amount")
	values.Set("vads_trans_id", "57600")       // 5 digits
	values.Set("vads_trans_date", "2026-08-30") // wrong layout
	fs := svc.ParseNotification(values)

	err := svc.Validate(fs, domain.ModeNotification)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GW_001", appErr.Code)

	fields := make([]string, 0, len(appErr.Fields))
	for _, v := range appErr.Fields {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"vads_amount", "vads_trans_id", "vads_trans_date"}, fields)
}

func TestValidate_NotificationMissingSignature(t *testing.T) {
	svc := testFieldService(testGatewayConfig())

	values := validNotificationValues()
	values.Del("signature")
	fs := svc.ParseNotification(values)

	err := svc.Validate(fs, domain.ModeNotification)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "signature", appErr.Fields[0].Field)
	assert.Equal(t, "required field is missing", appErr.Fields[0].Reason)
}
