package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[ErrorCode]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeValidation:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeBadRequest:     http.StatusBadRequest,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// StatusFor maps a code to its HTTP status. Unknown codes are 500.
func StatusFor(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError is the error type handlers return to clients.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError with the same code, so callers can test
// errors.Is(err, NotFound("")).
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !stderrors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetails returns a copy carrying extra detail for the client.
func (e *AppError) WithDetails(format string, args ...any) *AppError {
	cp := *e
	cp.Details = fmt.Sprintf(format, args...)
	return &cp
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: StatusFor(code),
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	e.Cause = err
	return e
}

func Internal(message string) *AppError { return New(CodeInternal, message) }

func InternalWrap(err error, message string) *AppError { return Wrap(err, CodeInternal, message) }

func Validation(message string) *AppError { return New(CodeValidation, message) }

func NotFound(message string) *AppError { return New(CodeNotFound, message) }

func NotFoundWrap(err error, message string) *AppError { return Wrap(err, CodeNotFound, message) }

func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }

func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }

func ServiceUnavailable(message string) *AppError { return New(CodeServiceUnavail, message) }

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// WriteError renders err as a JSON error envelope. Errors with no AppError
// in their chain are reported as internal errors.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var found *AppError
	if !stderrors.As(err, &found) {
		found = InternalWrap(err, "An unexpected error occurred")
	}

	// copy so shared error values never carry another request's id
	appErr := *found
	appErr.RequestID = requestID

	if encodeErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: &appErr}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	level := slog.LevelWarn
	if appErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
