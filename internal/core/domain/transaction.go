package domain

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// TransactionMode is the direction of a ledger record.
type TransactionMode string

const (
	// ModeSubmit marks an outbound submission handed to the gateway.
	ModeSubmit TransactionMode = "SUBMIT"
	// ModeNotification marks an inbound notification from the gateway.
	ModeNotification TransactionMode = "NOTIFICATION"
)

// OperationType is the money-movement direction reported by the gateway.
type OperationType string

const (
	OperationNone   OperationType = ""
	OperationDebit  OperationType = "DEBIT"  // customer charged
	OperationCredit OperationType = "CREDIT" // customer refunded
)

// ResultCodeSuccess is the gateway's two-character success result.
const ResultCodeSuccess = "00"

// Transaction is one immutable ledger record: an outbound submission or
// an inbound notification. The fields are projections of RawPayload
// computed at creation time; ErrorMessage carries the local verdict,
// attached before the record is persisted. Nothing mutates afterwards.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Mode           TransactionMode `json:"mode"`
	OperationType  OperationType   `json:"operation_type"`
	TransID        string          `json:"trans_id"`   // 6 digits, unique per calendar day only
	TransDate      string          `json:"trans_date"` // YYYYMMDDHHMMSS, UTC
	OrderReference string          `json:"order_reference"`
	Amount         Amount          `json:"amount"`        // major units
	CurrencyCode   string          `json:"currency_code"` // ISO 4217 numeric, e.g. "978"
	AuthResult     string          `json:"auth_result"`
	ResultCode     string          `json:"result_code"`
	ErrorMessage   string          `json:"error_message,omitempty"` // local validation failure, not a gateway result
	RawPayload     string          `json:"raw_payload"`             // URL-encoded field set, write-once
	CreatedAt      time.Time       `json:"created_at"`
}

// IsComplete reports buyer-visible success: the record passed local
// validation and the gateway reported the success result code.
func (t *Transaction) IsComplete() bool {
	return t.ErrorMessage == "" && t.ResultCode == ResultCodeSuccess
}

// Context decodes the raw payload for audit display.
func (t *Transaction) Context() url.Values {
	values, err := url.ParseQuery(t.RawPayload)
	if err != nil {
		return url.Values{}
	}
	return values
}

// Value returns a single field from the raw payload, or "" if absent.
func (t *Transaction) Value(key string) string {
	return t.Context().Get(key)
}

// CurrencyAlpha resolves the numeric currency code to its alphabetic
// ISO 4217 form, or "UNKNOWN".
func (t *Transaction) CurrencyAlpha() string {
	return CurrencyAlpha(t.CurrencyCode)
}

// NotificationKey builds the composite identity under which a
// notification's reconciliation side effect is applied at most once.
// TransID alone is only day-unique, so it never serves as a key by itself.
func NotificationKey(orderRef, transID, transDate string, op OperationType) string {
	return orderRef + ":" + transID + ":" + transDate + ":" + string(op)
}

// DuplicateKey returns the at-most-once identity of this notification.
func (t *Transaction) DuplicateKey() string {
	return NotificationKey(t.OrderReference, t.TransID, t.TransDate, t.OperationType)
}
