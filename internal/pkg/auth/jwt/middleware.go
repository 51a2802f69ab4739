package jwt

import (
	"context"
	"net/http"

	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/req"
	"echospace/internal/pkg/resp"
)

type contextKey string

// ContextAuthPayloadKey stores the verified *Payload in the request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// IdentityExtractorMiddleware verifies a bearer token when one is present and stores its
// payload in the request context. Requests without a usable token continue anonymously;
// handlers and RequireIdentity decide whether that is acceptable.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := req.BearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Rejected bearer token, continuing as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reached it without a verified payload.
// It must run after IdentityExtractorMiddleware.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetPayloadFromContext returns the verified payload of r, or nil for anonymous requests.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}
