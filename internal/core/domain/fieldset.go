package domain

import (
	"net/url"
	"sort"
	"strings"
)

// Gateway field names used by the engine. The dialect prefixes every
// gateway-owned field with "vads_"; the signature itself travels unprefixed.
const (
	FieldPrefix = "vads_"

	FieldSignature = "signature"

	FieldActionMode      = "vads_action_mode"
	FieldAmount          = "vads_amount"
	FieldAuthResult      = "vads_auth_result"
	FieldContracts       = "vads_contracts"
	FieldCtxMode         = "vads_ctx_mode"
	FieldCurrency        = "vads_currency"
	FieldCustAddress     = "vads_cust_address"
	FieldCustCity        = "vads_cust_city"
	FieldCustCountry     = "vads_cust_country"
	FieldCustEmail       = "vads_cust_email"
	FieldCustID          = "vads_cust_id"
	FieldCustName        = "vads_cust_name"
	FieldCustState       = "vads_cust_state"
	FieldCustTitle       = "vads_cust_title"
	FieldCustZip         = "vads_cust_zip"
	FieldExtraResult     = "vads_extra_result"
	FieldOperationType   = "vads_operation_type"
	FieldOrderID         = "vads_order_id"
	FieldPageAction      = "vads_page_action"
	FieldPaymentConfig   = "vads_payment_config"
	FieldRedirectErrT    = "vads_redirect_error_timeout"
	FieldRedirectSuccT   = "vads_redirect_success_timeout"
	FieldResult          = "vads_result"
	FieldReturnMode      = "vads_return_mode"
	FieldShipToCity      = "vads_ship_to_city"
	FieldShipToCountry   = "vads_ship_to_country"
	FieldShipToName      = "vads_ship_to_name"
	FieldShipToState     = "vads_ship_to_state"
	FieldShipToStreet    = "vads_ship_to_street"
	FieldShipToStreet2   = "vads_ship_to_street2"
	FieldShipToZip       = "vads_ship_to_zip"
	FieldSiteID          = "vads_site_id"
	FieldTransDate       = "vads_trans_date"
	FieldTransID         = "vads_trans_id"
	FieldTransStatus     = "vads_trans_status"
	FieldURLCancel       = "vads_url_cancel"
	FieldURLRefused      = "vads_url_refused"
	FieldURLReturn       = "vads_url_return"
	FieldURLSuccess      = "vads_url_success"
	FieldValidationMode  = "vads_validation_mode"
	FieldVersion         = "vads_version"
	FieldPaymentCertific = "vads_payment_certificate"
)

// FieldSet is a normalized single-valued view of the gateway's form
// fields. One instance represents either an outbound submission or an
// inbound notification; the same shape feeds the signature computation
// in both directions.
type FieldSet map[string]string

// FieldSetFromValues collapses a received form payload to one value per
// key (the gateway sends each field at most once; extra values are noise).
func FieldSetFromValues(values url.Values) FieldSet {
	fs := make(FieldSet, len(values))
	for k := range values {
		fs[k] = values.Get(k)
	}
	return fs
}

// ParseFieldSet decodes a URL-encoded payload back into a FieldSet.
// Used to re-derive the signature input from a ledger record's raw payload.
func ParseFieldSet(raw string) (FieldSet, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	return FieldSetFromValues(values), nil
}

func (f FieldSet) Get(key string) string {
	return f[key]
}

func (f FieldSet) Set(key, value string) {
	f[key] = value
}

func (f FieldSet) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// SigningValues returns the values of every gateway-prefixed field in
// ascending field-name order. This is the canonical signing sequence of
// the dialect: names are excluded, order is fixed, and the signature
// field itself never participates.
func (f FieldSet) SigningValues() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		if strings.HasPrefix(k, FieldPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = f[k]
	}
	return values
}

// Encode renders the field set URL-encoded with sorted keys, the
// write-once raw payload format persisted in the ledger.
func (f FieldSet) Encode() string {
	values := make(url.Values, len(f))
	for k, v := range f {
		values.Set(k, v)
	}
	return values.Encode()
}
