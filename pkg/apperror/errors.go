package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// ---- Webhook Security (SEC) ----

// ErrInvalidSignature rejects an event whose provider signature does not
// verify. 400 so the event source does not retry.
func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Invalid webhook signature", http.StatusBadRequest)
}

func ErrMissingBody() *AppError {
	return New("SEC_002", "Missing or unreadable request body", http.StatusBadRequest)
}

// ---- Event Processing (EVT) ----

// ErrMalformedEvent marks a payload that parsed as JSON but carries metadata
// the settlement handlers cannot use. Webhook paths log and acknowledge it;
// retrying would not fix the payload.
func ErrMalformedEvent(err error) *AppError {
	return Wrap("EVT_001", "Malformed event payload", http.StatusOK, err)
}

// ---- Ledger (LGR) ----

func ErrWalletNotFound(sellerID string) *AppError {
	return New("LGR_001", fmt.Sprintf("No wallet for seller %s", sellerID), http.StatusNotFound)
}

func ErrWalletExists() *AppError {
	return New("LGR_002", "Wallet already exists for this seller", http.StatusConflict)
}

// ErrAdjustmentWouldGoNegative rejects a manual adjustment that would drop the
// balance below zero. The message names the current balance and the requested
// delta per the admin contract.
func ErrAdjustmentWouldGoNegative(balance, delta int64) *AppError {
	return New("LGR_003",
		fmt.Sprintf("Adjustment would go negative: balance %d, requested delta %d", balance, delta),
		http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("LGR_004", "Invalid amount", http.StatusBadRequest)
}

// ---- Ownership & Subscriptions (SUB) ----

func ErrSubscriptionNotFound() *AppError {
	return New("SUB_001", "Subscription not found", http.StatusNotFound)
}

func ErrPostNotFound() *AppError {
	return New("SUB_002", "Post not found", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_002", "Insufficient privileges", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrTransient wraps datastore or network failures that are worth retrying.
// The webhook path maps this to 500 so the event source redelivers.
func ErrTransient(err error) *AppError {
	return Wrap("SYS_002", "Temporary backend failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("LGR_004", message, http.StatusBadRequest)
}

// IsRetryable reports whether err should surface as a server error on the
// webhook path (triggering provider redelivery). NotFound and validation
// class errors are not retryable; unknown errors are assumed transient.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus >= http.StatusInternalServerError
	}
	return true
}
