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

// Is matches on error code so callers can compare against constructors,
// e.g. errors.Is(err, apperror.ErrInsufficientFunds()).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
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

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Retryable reports whether err is a server-side fault the caller may retry.
// Errors that are not AppErrors count as server-side.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true
	}
	return appErr.HTTPStatus >= http.StatusInternalServerError
}

// ---- Webhook security (SEC) ----

func ErrSignatureMismatch() *AppError {
	return New("SEC_001", "Webhook signature mismatch", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrIncorrectPassword() *AppError {
	return New("AUTH_004", "Incorrect password", http.StatusBadRequest)
}

func ErrIncorrectPin() *AppError {
	return New("AUTH_005", "Incorrect transaction pin", http.StatusBadRequest)
}

func ErrPinNotSet() *AppError {
	return New("AUTH_006", "Transaction pin has not been set", http.StatusBadRequest)
}

func ErrPinAlreadySet() *AppError {
	return New("AUTH_007", "Transaction pin already set", http.StatusConflict)
}

// ---- Wallet & Payment (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Invalid amount", http.StatusBadRequest)
}

func ErrWalletExists() *AppError {
	return New("PAY_003", "Wallet already exists", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrMinimumWithdrawal reports an amount below the configured floor.
func ErrMinimumWithdrawal(minimum string) *AppError {
	return New("PAY_002", fmt.Sprintf("Minimum withdrawal amount is %s", minimum), http.StatusBadRequest)
}

// ErrVerificationMismatch reports that the gateway's record disagrees with the notification.
func ErrVerificationMismatch(detail string) *AppError {
	return New("PAY_005", fmt.Sprintf("Gateway verification failed: %s", detail), http.StatusUnprocessableEntity)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrGatewayUnavailable wraps a payment provider failure.
func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Payment gateway unavailable", http.StatusBadGateway, err)
}

// Validation returns a PAY_002-style validation error.
func Validation(message string) *AppError {
	return New("PAY_002", message, http.StatusBadRequest)
}
