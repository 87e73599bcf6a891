package errors

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", Unauthorized("no session"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"not found", NotFound("api key"), http.StatusNotFound, ErrCodeNotFound},
		{"invalid operation", InvalidOperation("default key"), http.StatusConflict, ErrCodeInvalidOperation},
		{"invalid input", InvalidInput("name is required"), http.StatusBadRequest, ErrCodeInvalidInput},
		{"store", Store("insert api key", sql.ErrConnDone), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestStoreError_Unwraps(t *testing.T) {
	err := Store("update webhook", sql.ErrTxDone)

	var storeErr *StoreError
	require.True(t, stderrors.As(err, &storeErr))
	assert.Equal(t, "update webhook", storeErr.Op)
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.Nil(t, Store("noop", nil))
}

func TestWriteServiceError_HidesStoreDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteServiceError(rr, Store("list api keys", stderrors.New("connection refused to 10.0.0.3")))

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, ErrCodeInternal, body.Code)
	assert.NotContains(t, body.Message, "10.0.0.3")
}
