/*
Package handler provides the HTTP handlers and routing setup for the EchoSpace server.

This file defines the main Router, applying CORS, request IDs, request logging and panic
recovery before delegating to the auth, user, diagnostics and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"echospace/internal/pkg/auth/jwt"
	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/metrics"
	"echospace/internal/pkg/resp"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "EchoSpace Auth Server"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Router sets up the main HTTP routing table (chi.Router) for the application.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			// Non-browser clients send no Origin header.
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Users.Ping(r.Context()); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		resp.RespondSuccess(w, r, HealthResponse{Status: "ok", Service: ServiceName})
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Get("/test", HandleAuthTest())

			// These handlers check the identity themselves and count rejections.
			auth.Get("/me", HandleMe(deps))
			auth.Post("/change-password", HandleChangePassword(deps))
		})

		api.Route("/user", func(u chi.Router) {
			u.Use(jwt.RequireIdentity)
			u.Put("/profile", HandleUpdateUserProfile(deps))
			u.Post("/avatar/presign", HandlePresignAvatarURL(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, deps))

	return r
}
