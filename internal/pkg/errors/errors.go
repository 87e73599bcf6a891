package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidOperation  = "INVALID_OPERATION"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Domain errors surfaced by the services. Callers match them with errors.Is.
var (
	ErrUnauthorized     = stderrors.New("unauthorized: no active session")
	ErrNotFound         = stderrors.New("resource not found")
	ErrInvalidOperation = stderrors.New("invalid operation")
	ErrInvalidInput     = stderrors.New("invalid input")
)

// StoreError is a failure of the backing store on a primary read or mutation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a *StoreError. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func Unauthorized(msg string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
}

func NotFound(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

func InvalidOperation(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, msg)
}

func InvalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// StatusFor maps an error returned by a service onto an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case stderrors.Is(err, ErrInvalidOperation):
		return http.StatusConflict, ErrCodeInvalidOperation
	case stderrors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeInvalidInput
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// WriteServiceError writes err using StatusFor. Store failures are not echoed to the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	WriteError(w, status, code, msg, nil)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}
