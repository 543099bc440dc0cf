package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/schoolbank/backend/internal/storage"
)

// BankError is a typed failure surfaced to API callers. Sentinels are
// compared with errors.Is; wrapped errors keep the sentinel's code.
type BankError struct {
	Code      string
	Message   string
	Status    int
	Retryable bool
}

func (e *BankError) Error() string {
	return e.Message
}

var (
	ErrInvalidAmount         = &BankError{Code: "INVALID_AMOUNT", Message: "amount must be positive with at most 2 decimal places", Status: http.StatusBadRequest}
	ErrInsufficientFunds     = &BankError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds", Status: http.StatusUnprocessableEntity}
	ErrAccountMismatch       = &BankError{Code: "ACCOUNT_MISMATCH", Message: "transfer requires two different accounts owned by the caller", Status: http.StatusBadRequest}
	ErrAccessDenied          = &BankError{Code: "ACCESS_DENIED", Message: "access denied", Status: http.StatusForbidden}
	ErrOverpaymentNotAllowed = &BankError{Code: "OVERPAYMENT_NOT_ALLOWED", Message: "payment exceeds the remaining bill amount", Status: http.StatusUnprocessableEntity}
	ErrBillNotFound          = &BankError{Code: "BILL_NOT_FOUND", Message: "bill not found", Status: http.StatusNotFound}
	ErrAccountNotFound       = &BankError{Code: "ACCOUNT_NOT_FOUND", Message: "account not found", Status: http.StatusNotFound}
	ErrTransactionNotFound   = &BankError{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found", Status: http.StatusNotFound}
	ErrStatementNotFound     = &BankError{Code: "STATEMENT_NOT_FOUND", Message: "statement not found", Status: http.StatusNotFound}
	ErrClassNotFound         = &BankError{Code: "CLASS_NOT_FOUND", Message: "class not found", Status: http.StatusNotFound}
	ErrBillHasPayments       = &BankError{Code: "BILL_HAS_PAYMENTS", Message: "bill already has payments", Status: http.StatusConflict}
	ErrPeriodNotElapsed      = &BankError{Code: "PERIOD_NOT_ELAPSED", Message: "statement period has not elapsed", Status: http.StatusUnprocessableEntity}
	ErrInvalidPeriod         = &BankError{Code: "INVALID_PERIOD", Message: "invalid statement period", Status: http.StatusBadRequest}
	ErrInvalidBill           = &BankError{Code: "INVALID_BILL", Message: "invalid bill", Status: http.StatusBadRequest}
	ErrNotATransfer          = &BankError{Code: "NOT_A_TRANSFER", Message: "transaction is not part of a transfer", Status: http.StatusBadRequest}
	ErrUnsupportedMessage    = &BankError{Code: "UNSUPPORTED_MESSAGE", Message: "unsupported message type", Status: http.StatusBadRequest}
	ErrQRCodeInvalid         = &BankError{Code: "QR_CODE_INVALID", Message: "invalid or expired QR code", Status: http.StatusBadRequest}
	ErrIdempotencyKeyReused  = &BankError{Code: "IDEMPOTENCY_KEY_REUSED", Message: "idempotency key was already used for a different request", Status: http.StatusUnprocessableEntity}
	ErrServiceUnavailable    = &BankError{Code: "SERVICE_UNAVAILABLE", Message: "service temporarily unavailable", Status: http.StatusServiceUnavailable}

	ErrLockTimeout         = &BankError{Code: "LOCK_TIMEOUT", Message: "timed out waiting for account lock", Status: http.StatusServiceUnavailable, Retryable: true}
	ErrConcurrencyConflict = &BankError{Code: "CONCURRENCY_CONFLICT", Message: "concurrent update conflict", Status: http.StatusConflict, Retryable: true}
	ErrRequestInProgress   = &BankError{Code: "REQUEST_IN_PROGRESS", Message: "a request with this idempotency key is in progress", Status: http.StatusConflict, Retryable: true}
)

// AsBankError returns the BankError in err's chain, if any.
func AsBankError(err error) (*BankError, bool) {
	var be *BankError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	be, ok := AsBankError(err)
	return ok && be.Retryable
}

// mapStorageError converts storage failures into typed errors. notFound is
// used for storage.ErrNotFound; nil leaves it untouched.
func mapStorageError(err error, notFound *BankError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, storage.ErrLockTimeout):
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}
