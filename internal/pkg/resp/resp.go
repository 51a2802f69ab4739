/*
Package resp writes JSON responses.

Successful responses carry the bare payload (for example {"user": ..., "token": ...});
failures carry ErrorBody with the application code and a user-facing message.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	// Code is the application error code (see package errs).
	Code int `json:"code"`

	// Message is safe to show to the user.
	Message string `json:"message"`
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus, "uri", r.RequestURI)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess writes data with 200 OK.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondCreated writes data with 201 Created.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, data)
}

// RespondError writes customErr with its HTTP status. A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorBody{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
