package apperror

import (
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

// ---- Payment lifecycle (PAY) ----

func ErrNotFound(entity string) *AppError {
	return New("PAY_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidState(current string) *AppError {
	return New("PAY_002", fmt.Sprintf("operation not allowed while payment is %s", current), http.StatusConflict)
}

func ErrExpired() *AppError {
	return New("PAY_003", "payment window has expired", http.StatusGone)
}

func ErrUnsupportedCoin(coin string) *AppError {
	return New("PAY_004", fmt.Sprintf("coin %s is not supported", coin), http.StatusBadRequest)
}

func ErrVerificationMismatch(detail string) *AppError {
	return New("PAY_005", fmt.Sprintf("on-chain transaction does not match payment: %s", detail), http.StatusPaymentRequired)
}

func ErrVerificationInFlight() *AppError {
	return New("PAY_006", "a verification for this payment is already in progress", http.StatusConflict)
}

// ---- Chain explorer (CHN) ----

// ErrVerificationUnavailable signals the chain explorer could not be
// reached. Retryable: distinct from a mismatch so callers never conflate
// "try later" with "this payment is invalid".
func ErrVerificationUnavailable(err error) *AppError {
	return Wrap("CHN_001", "chain verification temporarily unavailable", http.StatusServiceUnavailable, err)
}

// ---- Campaigns (CMP) ----

func ErrCampaignNotFound() *AppError {
	return New("CMP_001", "campaign not found", http.StatusNotFound)
}

func ErrCampaignNotDispatchable(status string) *AppError {
	return New("CMP_002", fmt.Sprintf("campaign cannot be dispatched while %s", status), http.StatusConflict)
}

// ErrDispatchFailed covers the whole batch being unattemptable, e.g. the
// recipient list could not be resolved. Per-recipient failures are not
// errors; they are aggregated in the dispatch report.
func ErrDispatchFailed(err error) *AppError {
	return Wrap("CMP_003", "campaign dispatch could not be attempted", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrOperatorSuspended() *AppError {
	return New("AUTH_004", "Operator account is suspended", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrDecryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Stored ciphertext could not be decrypted", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("PAY_000", message, http.StatusBadRequest)
}
