package errs

import (
	"fmt"
	"net/http"

	"voicesvc/internal/pkg/logx"
)

// CustomError is the error structure returned by request handlers.
// It pairs a business code with a client-facing message and an HTTP status.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the client-facing error description.
	Message string

	// Status is the HTTP status code the error is reported with.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError returns a *CustomError for a predefined code. An optional underlying
// error in details is logged, never exposed. Unknown codes degrade to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusInternalServerError
	}

	if len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Warn("Request failed with underlying error",
				"code", customErr.Code,
				"error", originalErr.Error(),
			)
		}
	}

	return &customErr
}
