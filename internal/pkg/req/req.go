/*
Package req binds HTTP request bodies to Go values.

JSON bodies are decoded strictly: the Content-Type must be JSON, unknown fields are rejected,
trailing data is rejected, and the body is capped at MaxJSONBodySize.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"echospace/internal/pkg/errs"
)

// MaxJSONBodySize caps JSON request bodies (64 KB).
const MaxJSONBodySize int64 = 64 << 10

// BindJSON decodes the JSON body of r into dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "" when the
// header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
