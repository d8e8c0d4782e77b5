package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// FieldViolation names one offending field in a payload, with the reason it
// was rejected. A validation error carries every violation, not just the
// first, so the dashboard can render "field X: reason / field Y: reason".
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v FieldViolation) String() string {
	return v.Field + ": " + v.Reason
}

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string           `json:"error_code"`
	Message    string           `json:"message"`
	HTTPStatus int              `json:"-"`
	Fields     []FieldViolation `json:"fields,omitempty"`
	Err        error            `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Gateway protocol (GW) ----

// ErrFormNotValid reports a notification payload that failed field-format
// validation. It lists every offending field.
func ErrFormNotValid(violations []FieldViolation) *AppError {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.String())
	}
	e := New("GW_001", "Notification payload is not valid: "+strings.Join(parts, " / "), http.StatusBadRequest)
	e.Fields = violations
	return e
}

// ErrSignatureInvalid reports a payload whose signature failed the
// authenticity check. Never retried automatically.
func ErrSignatureInvalid() *AppError {
	return New("GW_002", "Signature verification failed", http.StatusBadRequest)
}

// ErrGatewayRejected reports a non-success result code from the gateway.
// message is the human-readable mapping for the code.
func ErrGatewayRejected(code string, message string) *AppError {
	return New("GW_003", fmt.Sprintf("Gateway rejected the transaction: %s - %s", code, message), http.StatusUnprocessableEntity)
}

// ErrUnknownOperationType reports an internally inconsistent notification
// whose operation type is neither DEBIT nor CREDIT.
func ErrUnknownOperationType(operationType string) *AppError {
	return New("GW_004", fmt.Sprintf("Unknown operation type %q", operationType), http.StatusBadRequest)
}

// ---- Configuration (CFG) ----

// ErrInvalidConfiguration reports a malformed gateway configuration.
// Raised at construction, never at request time.
func ErrInvalidConfiguration(detail string) *AppError {
	return New("CFG_001", "Invalid gateway configuration: "+detail, http.StatusInternalServerError)
}

// ---- Payment data (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrLedgerError(err error) *AppError {
	return Wrap("SYS_001", "Internal ledger error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-binding validation error.
func Validation(message string) *AppError {
	return New("PAY_003", message, http.StatusBadRequest)
}
