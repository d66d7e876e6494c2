package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrValidation        = errors.New("validation failed")
	ErrNoPDFs            = errors.New("no PDFs found")
	ErrInsufficientText  = errors.New("insufficient extracted text")
	ErrTimeout           = errors.New("processing timed out")
	ErrStore             = errors.New("run store error")
	ErrUnsupportedEngine = errors.New("unsupported engine")
)

// Error codes carried by AppError.
const (
	CodeConfig  = "CONFIG_ERROR"
	CodeInput   = "INPUT_ERROR"
	CodeExtract = "EXTRACT_ERROR"
	CodeReport  = "REPORT_ERROR"
	CodeStore   = "STORE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the AppError code in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
