package errs

import (
	"fmt"
	"net/http"
	"strings"

	"echospace/internal/pkg/logx"
)

// CustomError is the error type handlers hand to the response layer.
type CustomError struct {
	// Code is the application error code.
	Code int

	// Message is the user-facing description.
	Message string

	// Status is the HTTP status the error is reported with.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from the code table.
//
// For ErrUnknown and ErrStorageFailed an error passed as the first detail is logged and not
// shown to the client. For other codes the details fill the printf verbs of the message.
// Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Error code missing from errorMap",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	if len(details) == 0 {
		return &customErr
	}

	switch code {
	case ErrUnknown, ErrStorageFailed:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Internal error reported to client as generic failure", "code", code)
		}
	default:
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Error details supplied for a message without placeholders, details ignored", "code", code)
		}
	}

	return &customErr
}

// StatusOf returns the HTTP status for code without building an error.
func StatusOf(code int) int {
	if e, ok := errorMap[code]; ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
