package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	AccountID string `validate:"required,uuid"`
	Amount    int    `validate:"required,gt=0"`
	Note      string `validate:"max=10"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		valid := TestStruct{
			AccountID: "0b6a2f1e-5d3c-4e8f-9a7b-1c2d3e4f5a6b",
			Amount:    3000,
		}

		err := vh.ValidateStruct(&valid)
		assert.NoError(t, err)
	})

	t.Run("invalid struct", func(t *testing.T) {
		invalid := TestStruct{
			AccountID: "not-a-uuid",
			Note:      "much too long for the note",
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 3)
	})
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
		assert.Equal(t, "Invalid request", resp.Error.Message)
		assert.Nil(t, resp.Error.Details)
	})

	t.Run("with validation errors", func(t *testing.T) {
		validationErr := NewValidationHelper().ValidateStruct(&TestStruct{})
		require.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "AccountID")
		assert.Contains(t, resp.Error.Details, "Amount")
	})

	t.Run("unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Unauthorized access", http.StatusUnauthorized, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeResponse(t, w).Error.Code)
	})
}

func TestSendError(t *testing.T) {
	t.Run("wrapped bank error keeps code and message", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendError(w, fmt.Errorf("%w: balance 10.00 is less than 30.00", ErrInsufficientFunds))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Code)
		assert.Equal(t, "insufficient funds: balance 10.00 is less than 30.00", resp.Error.Message)
		assert.False(t, resp.Error.Retryable)
	})

	t.Run("retryable errors are flagged", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendError(w, ErrLockTimeout)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.True(t, decodeResponse(t, w).Error.Retryable)
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendError(w, fmt.Errorf("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
		assert.Equal(t, "An Internal Error Occurred", resp.Error.Message)
	})
}

func TestSendSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	SendSuccess(w, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"abc"}}`, w.Body.String())
}
