/*
Package resp provides helpers for writing JSON HTTP responses.

Successful responses carry the endpoint's own payload shape; failures carry
ErrorResponse built from an errs.CustomError.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"voicesvc/internal/pkg/errs"
	"voicesvc/internal/pkg/logx"
)

// ErrorResponse is the JSON body sent for every failed request.
type ErrorResponse struct {
	// Error is the client-facing error description.
	Error string `json:"error"`

	// Code is the business error code (see errs package).
	Code int `json:"code"`
}

// RespondJSON sets the JSON headers and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
			"request_uri", r.RequestURI,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write JSON response", "error", err.Error())
	}
}

// RespondSuccess writes data with HTTP 200 OK.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondError writes customErr with its HTTP status. A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorResponse{
		Error: customErr.Message,
		Code:  customErr.Code,
	})
}
