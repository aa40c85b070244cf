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

// ---- Record Codec (CRYPTO) ----

// Codec error codes. Callers that need to branch on a codec failure compare
// the Code field against these constants.
const (
	CodeSigningFailed        = "CRYPTO_001"
	CodeMalformedEnvelope    = "CRYPTO_002"
	CodeAuthenticationFailed = "CRYPTO_003"
	CodeInvalidRecordFormat  = "CRYPTO_004"
)

// ErrSigningFailed indicates the injected signing capability errored during
// key derivation. Not retried internally.
func ErrSigningFailed(err error) *AppError {
	return Wrap(CodeSigningFailed, "Signing capability failed", http.StatusInternalServerError, err)
}

// ErrMalformedEnvelope indicates a ciphertext envelope shorter than the
// IV+tag header.
func ErrMalformedEnvelope() *AppError {
	return New(CodeMalformedEnvelope, "Ciphertext envelope too short", http.StatusBadRequest)
}

// ErrAuthenticationFailed covers both wrong-key and tampered-envelope cases.
// The two must stay indistinguishable to the caller.
func ErrAuthenticationFailed() *AppError {
	return New(CodeAuthenticationFailed, "Envelope authentication failed", http.StatusBadRequest)
}

// ErrInvalidRecordFormat indicates an authenticated plaintext that does not
// parse into the four-field record shape.
func ErrInvalidRecordFormat(reason string) *AppError {
	return New(CodeInvalidRecordFormat, fmt.Sprintf("Invalid record format: %s", reason), http.StatusUnprocessableEntity)
}

// ---- Webhook & Client Security (SEC) ----

func ErrInvalidAccessKey() *AppError {
	return New("SEC_001", "Invalid access key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

// ---- Ledger Records (REC) ----

func ErrRecordNotFound() *AppError {
	return New("REC_001", "Record not found", http.StatusNotFound)
}

func ErrInvalidCommitment() *AppError {
	return New("REC_002", "Invalid commitment", http.StatusBadRequest)
}

func ErrDuplicateCommitment() *AppError {
	return New("REC_003", "Commitment already indexed", http.StatusConflict)
}

func ErrUnknownSpentInput(commitment string) *AppError {
	return New("REC_004", fmt.Sprintf("Spent input not found: %s", commitment), http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrClientNameExists() *AppError {
	return New("AUTH_002", "Client name already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrClientSuspended() *AppError {
	return New("AUTH_004", "Client account is suspended", http.StatusForbidden)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrCacheError(err error) *AppError {
	return Wrap("SYS_002", "Record cache error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
