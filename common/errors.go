package common

import (
	"go-catalog-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// FieldError describes one failed validation rule on a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the single error shape handlers return. Err carries the internal
// cause; it is logged but never written to the client.
type AppError struct {
	Code    int          `json:"-"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(fields []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Errors:  fields,
	}
}

func Unauthorized() *AppError {
	return NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
}

func Internal(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "Something went wrong", err)
}

type errorEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		})
		if e.Code >= http.StatusInternalServerError {
			entry.Error(e.Message)
		} else {
			entry.Warn(e.Message)
		}
	}

	writeJSON(w, e.Code, errorEnvelope{
		Success: false,
		Message: e.Message,
		Errors:  e.Errors,
	})
}
