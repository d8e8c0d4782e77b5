package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("GW_002", "Signature verification failed", http.StatusBadRequest)
	assert.Equal(t, "[GW_002] Signature verification failed", e.Error())
}

func TestAppError_ErrorWithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	e := Wrap("SYS_001", "Internal ledger error", http.StatusInternalServerError, inner)
	assert.Contains(t, e.Error(), "SYS_001")
	assert.Contains(t, e.Error(), "connection refused")
	assert.Equal(t, inner, errors.Unwrap(e))
}

func TestErrFormNotValid_ListsEveryField(t *testing.T) {
	e := ErrFormNotValid([]FieldViolation{
		{Field: "vads_trans_id", Reason: "must be 6 digits"},
		{Field: "vads_result", Reason: "required"},
	})

	assert.Equal(t, "GW_001", e.Code)
	assert.Len(t, e.Fields, 2)
	assert.Contains(t, e.Message, "vads_trans_id: must be 6 digits")
	assert.Contains(t, e.Message, "vads_result: required")
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus)
}

func TestErrGatewayRejected(t *testing.T) {
	e := ErrGatewayRejected("05", "Action refused.")
	assert.Equal(t, "GW_003", e.Code)
	assert.Contains(t, e.Message, "05")
	assert.Contains(t, e.Message, "Action refused.")
}

func TestErrUnknownOperationType(t *testing.T) {
	e := ErrUnknownOperationType("VERIFY")
	assert.Equal(t, "GW_004", e.Code)
	assert.Contains(t, e.Message, "VERIFY")
}

func TestErrorsAs(t *testing.T) {
	var appErr *AppError
	err := error(ErrSignatureInvalid())
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GW_002", appErr.Code)
}
