package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryClient ErrorCategory = "client"
	CategoryServer ErrorCategory = "server"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"

	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"

	CodeInternalError = "INTERNAL_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
)

// AppError is a failure that knows how it should be reported to a client.
// Cause is logged for server errors and never serialized.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"-"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) IsServer() bool { return e.Category == CategoryServer }

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func New(code string, message string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, Category: category, HTTPStatus: httpStatus}
}

func client(code string, status int, message string) *AppError {
	return New(code, message, CategoryClient, status)
}

func server(code, message string) *AppError {
	return New(code, message, CategoryServer, http.StatusInternalServerError)
}

func BadRequest(message string) *AppError {
	return client(CodeInvalidRequest, http.StatusBadRequest, message)
}

func ValidationError(message string) *AppError {
	return client(CodeValidationError, http.StatusBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return client(CodeUnauthorized, http.StatusUnauthorized, message)
}

func InvalidCredentials(message string) *AppError {
	return client(CodeInvalidCredentials, http.StatusUnauthorized, message)
}

func InvalidToken(message string) *AppError {
	return client(CodeInvalidToken, http.StatusUnauthorized, message)
}

func TokenExpired() *AppError {
	return client(CodeTokenExpired, http.StatusUnauthorized, "token has expired")
}

func Forbidden(message string) *AppError {
	return client(CodeForbidden, http.StatusForbidden, message)
}

// NotFound reports that resource does not exist, e.g. NotFound("video").
func NotFound(resource string) *AppError {
	return client(CodeNotFound, http.StatusNotFound, resource+" not found")
}

func Conflict(message string) *AppError {
	return client(CodeConflict, http.StatusConflict, message)
}

func InternalError(message string) *AppError { return server(CodeInternalError, message) }

func DatabaseError(message string) *AppError { return server(CodeDatabaseError, message) }

func StorageError(message string) *AppError { return server(CodeStorageError, message) }

// As extracts an *AppError from err's chain, converting anything else into an
// opaque internal error so unexpected text never reaches the client.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalError("an unexpected error occurred").WithCause(err)
}

// ErrorResponse is the failure envelope returned to clients.
type ErrorResponse struct {
	Status    int            `json:"status"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, requestID string, err error) {
	appErr := As(err)
	WriteJSON(w, requestID, appErr.HTTPStatus, ErrorResponse{
		Status:    appErr.HTTPStatus,
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: requestID,
		Details:   appErr.Details,
	})
}

func WriteJSON(w http.ResponseWriter, requestID string, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	if requestID != "" {
		h.Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
