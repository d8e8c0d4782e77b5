package service

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"systempay-gateway/config"
	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
)

// transDateFormat is the gateway's timestamp layout, always UTC.
const transDateFormat = "20060102150405"

// protectedFields are controlled by the engine alone. Caller overrides
// for these keys are discarded: a caller must never be able to change
// the charge amount or identity actually presented to the gateway.
var protectedFields = map[string]struct{}{
	domain.FieldAmount:    {},
	domain.FieldTransID:   {},
	domain.FieldTransDate: {},
	domain.FieldSiteID:    {},
	domain.FieldVersion:   {},
}

// submitForm mirrors the mandatory subset of an outbound submission.
type submitForm struct {
	ActionMode    string `field:"vads_action_mode" validate:"required,oneof=INTERACTIVE SILENT"`
	Amount        string `field:"vads_amount" validate:"required,numeric"`
	CtxMode       string `field:"vads_ctx_mode" validate:"required,oneof=TEST PRODUCTION"`
	Currency      string `field:"vads_currency" validate:"required,numeric,max=3"`
	OrderID       string `field:"vads_order_id" validate:"required"`
	PageAction    string `field:"vads_page_action" validate:"required"`
	PaymentConfig string `field:"vads_payment_config" validate:"required"`
	SiteID        string `field:"vads_site_id" validate:"required,len=8,numeric"`
	TransDate     string `field:"vads_trans_date" validate:"required,len=14,numeric"`
	TransID       string `field:"vads_trans_id" validate:"required,len=6,numeric"`
	Version       string `field:"vads_version" validate:"required"`
}

// notificationForm mirrors the fields a notification must carry before
// the engine will even attempt signature verification. Operation type is
// deliberately absent: an unknown operation type is a distinct failure
// classified after authenticity is established.
type notificationForm struct {
	Amount     string `field:"vads_amount" validate:"required,numeric"`
	AuthResult string `field:"vads_auth_result" validate:"omitempty,len=2"`
	Currency   string `field:"vads_currency" validate:"omitempty,numeric,max=3"`
	OrderID    string `field:"vads_order_id" validate:"required"`
	Result     string `field:"vads_result" validate:"required,len=2"`
	Signature  string `field:"signature" validate:"required"`
	SiteID     string `field:"vads_site_id" validate:"required,len=8,numeric"`
	TransDate  string `field:"vads_trans_date" validate:"required,len=14,numeric"`
	TransID    string `field:"vads_trans_id" validate:"required,len=6,numeric"`
}

// GatewayFieldService implements ports.FieldProtocol for the vads_
// field dialect.
type GatewayFieldService struct {
	cfg      config.GatewayConfig
	alloc    ports.TransIDAllocator
	validate *validator.Validate
	now      func() time.Time
}

// NewGatewayFieldService creates the field protocol bound to one
// gateway contract.
func NewGatewayFieldService(cfg config.GatewayConfig, alloc ports.TransIDAllocator) *GatewayFieldService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("field")
	})
	return &GatewayFieldService{
		cfg:      cfg,
		alloc:    alloc,
		validate: v,
		now:      time.Now,
	}
}

// BuildSubmission populates the mandatory field subset from the gateway
// contract and the order snapshot, applies caller overrides, then
// restores the protected fields. The returned set is validated but not
// yet signed.
func (s *GatewayFieldService) BuildSubmission(order domain.OrderSnapshot, overrides map[string]string) (domain.FieldSet, error) {
	currency := order.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	if !domain.CurrencySupported(currency) {
		return nil, apperror.ErrFormNotValid([]apperror.FieldViolation{
			{Field: domain.FieldCurrency, Reason: fmt.Sprintf("unsupported currency code %q", currency)},
		})
	}

	fs := domain.FieldSet{
		domain.FieldActionMode:    s.cfg.ActionMode,
		domain.FieldCtxMode:       s.cfg.ContextMode(),
		domain.FieldCurrency:      currency,
		domain.FieldOrderID:       order.Number,
		domain.FieldPageAction:    "PAYMENT",
		domain.FieldPaymentConfig: s.cfg.PaymentConfig,
		domain.FieldReturnMode:    "POST",
	}
	if s.cfg.ValidationMode != "" {
		fs.Set(domain.FieldValidationMode, s.cfg.ValidationMode)
	}
	if s.cfg.CustomContracts != "" {
		fs.Set(domain.FieldContracts, s.cfg.CustomContracts)
	}
	if s.cfg.ReturnURL != "" {
		fs.Set(domain.FieldURLSuccess, s.cfg.ReturnURL)
		fs.Set(domain.FieldURLReturn, s.cfg.ReturnURL)
	}
	if s.cfg.CancelURL != "" {
		fs.Set(domain.FieldURLCancel, s.cfg.CancelURL)
		fs.Set(domain.FieldURLRefused, s.cfg.CancelURL)
	}
	if s.cfg.RedirectTimeout > 0 {
		timeout := strconv.Itoa(s.cfg.RedirectTimeout)
		fs.Set(domain.FieldRedirectSuccT, timeout)
		fs.Set(domain.FieldRedirectErrT, timeout)
	}

	applyCustomer(fs, order.Customer)
	applyBilling(fs, order.BillingAddress)
	applyShipping(fs, order.ShippingName, order.ShippingAddress)

	for k, v := range overrides {
		if _, protected := protectedFields[k]; protected {
			continue
		}
		fs.Set(k, v)
	}

	fs.Set(domain.FieldAmount, strconv.FormatInt(order.TotalAmount.MinorUnits(), 10))
	fs.Set(domain.FieldTransID, s.alloc.Next())
	fs.Set(domain.FieldTransDate, s.now().UTC().Format(transDateFormat))
	fs.Set(domain.FieldSiteID, s.cfg.SiteID)
	fs.Set(domain.FieldVersion, s.cfg.Version)

	if err := s.Validate(fs, domain.ModeSubmit); err != nil {
		return nil, err
	}
	return fs, nil
}

// ParseNotification collapses a raw inbound form into a field set.
func (s *GatewayFieldService) ParseNotification(values url.Values) domain.FieldSet {
	return domain.FieldSetFromValues(values)
}

// Validate checks required-ness and formats for the given direction. It
// returns a single error enumerating every offending field.
func (s *GatewayFieldService) Validate(fs domain.FieldSet, mode domain.TransactionMode) error {
	var form any
	switch mode {
	case domain.ModeSubmit:
		form = submitForm{
			ActionMode:    fs.Get(domain.FieldActionMode),
			Amount:        fs.Get(domain.FieldAmount),
			CtxMode:       fs.Get(domain.FieldCtxMode),
			Currency:      fs.Get(domain.FieldCurrency),
			OrderID:       fs.Get(domain.FieldOrderID),
			PageAction:    fs.Get(domain.FieldPageAction),
			PaymentConfig: fs.Get(domain.FieldPaymentConfig),
			SiteID:        fs.Get(domain.FieldSiteID),
			TransDate:     fs.Get(domain.FieldTransDate),
			TransID:       fs.Get(domain.FieldTransID),
			Version:       fs.Get(domain.FieldVersion),
		}
	default:
		form = notificationForm{
			Amount:     fs.Get(domain.FieldAmount),
			AuthResult: fs.Get(domain.FieldAuthResult),
			Currency:   fs.Get(domain.FieldCurrency),
			OrderID:    fs.Get(domain.FieldOrderID),
			Result:     fs.Get(domain.FieldResult),
			Signature:  fs.Get(domain.FieldSignature),
			SiteID:     fs.Get(domain.FieldSiteID),
			TransDate:  fs.Get(domain.FieldTransDate),
			TransID:    fs.Get(domain.FieldTransID),
		}
	}

	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.InternalError(err)
	}
	violations := make([]apperror.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, apperror.FieldViolation{
			Field:  fe.Field(),
			Reason: violationReason(fe),
		})
	}
	return apperror.ErrFormNotValid(violations)
}

func violationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "numeric":
		return "must be numeric"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "invalid value"
	}
}

func applyCustomer(fs domain.FieldSet, c *domain.Customer) {
	if c == nil {
		return
	}
	if c.ID != "" {
		fs.Set(domain.FieldCustID, c.ID)
	}
	if c.Name != "" {
		fs.Set(domain.FieldCustName, c.Name)
	}
	if c.Email != "" {
		fs.Set(domain.FieldCustEmail, c.Email)
	}
}

func applyBilling(fs domain.FieldSet, a *domain.Address) {
	if a == nil {
		return
	}
	fs.Set(domain.FieldCustTitle, a.Title)
	fs.Set(domain.FieldCustAddress, a.Line1)
	fs.Set(domain.FieldCustCity, a.City)
	fs.Set(domain.FieldCustState, a.State)
	fs.Set(domain.FieldCustZip, a.Zip)
	fs.Set(domain.FieldCustCountry, a.CountryCode)
}

func applyShipping(fs domain.FieldSet, name string, a *domain.Address) {
	if name != "" {
		fs.Set(domain.FieldShipToName, name)
	}
	if a == nil {
		return
	}
	fs.Set(domain.FieldShipToStreet, a.Line1)
	fs.Set(domain.FieldShipToStreet2, a.Line2)
	fs.Set(domain.FieldShipToCity, a.City)
	fs.Set(domain.FieldShipToState, a.State)
	fs.Set(domain.FieldShipToZip, a.Zip)
	fs.Set(domain.FieldShipToCountry, a.CountryCode)
}
