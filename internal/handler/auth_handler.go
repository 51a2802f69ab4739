/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"echospace/internal/app/user"
	"echospace/internal/pkg/auth/jwt"
	"echospace/internal/pkg/errs"
	"echospace/internal/pkg/logx"
	"echospace/internal/pkg/metrics"
	"echospace/internal/pkg/req"
	"echospace/internal/pkg/resp"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// UserResponse is returned by the current-user and profile endpoints.
type UserResponse struct {
	User user.Profile `json:"user"`
}

// TokenResponse is returned by password change.
type TokenResponse struct {
	Token string `json:"token"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister validates the input, creates the account and signs the user in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			reject(w, r, metrics.OpRegister, customErr)
			return
		}

		username := strings.TrimSpace(input.Username)
		email := user.NormalizeEmail(input.Email)

		if customErr := validateUsername(username); customErr != nil {
			reject(w, r, metrics.OpRegister, customErr)
			return
		}
		if customErr := validateEmail(email); customErr != nil {
			reject(w, r, metrics.OpRegister, customErr)
			return
		}
		if customErr := validatePassword(input.Password); customErr != nil {
			reject(w, r, metrics.OpRegister, customErr)
			return
		}

		hashedPassword, err := deps.hashPassword(input.Password)
		if err != nil {
			fail(w, r, metrics.OpRegister, errs.NewError(errs.ErrUnknown, err))
			return
		}

		firstName, lastName := user.SplitName(username)

		created, err := deps.Users.CreateUser(r.Context(), user.CreateParams{
			Username:     username,
			Email:        email,
			PasswordHash: hashedPassword,
			FirstName:    firstName,
			LastName:     lastName,
		})
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				logx.Warn("registration conflict: email already registered")
				reject(w, r, metrics.OpRegister, errs.NewError(errs.ErrEmailTaken))
				return
			}

			fail(w, r, metrics.OpRegister, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{ID: created.ID, Email: created.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			fail(w, r, metrics.OpRegister, errs.NewError(errs.ErrUnknown, err))
			return
		}

		logx.Info("User registered", "user_id", created.ID)
		metrics.AuthAttempt(metrics.OpRegister, metrics.ResultSuccess)

		resp.RespondCreated(w, r, AuthResponse{User: created.Profile(), Token: token})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token. Unknown emails and wrong
// passwords produce the same response.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			reject(w, r, metrics.OpLogin, customErr)
			return
		}

		email := user.NormalizeEmail(input.Email)
		if email == "" || input.Password == "" {
			reject(w, r, metrics.OpLogin, errs.NewError(errs.ErrInvalidParams))
			return
		}

		found, err := deps.Users.GetUserByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				deps.burnPasswordCheck(input.Password)
				logx.Warn("login: unknown email")
				reject(w, r, metrics.OpLogin, errs.NewError(errs.ErrInvalidCredentials))
				return
			}

			fail(w, r, metrics.OpLogin, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "user_id", found.ID)
			reject(w, r, metrics.OpLogin, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.Users.UpdateLastLogin(r.Context(), found.ID); err != nil {
			logx.Error(err, "login: failed to update last_login_at", "user_id", found.ID)
		}

		token, err := jwt.GenerateToken(&jwt.Payload{ID: found.ID, Email: found.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			fail(w, r, metrics.OpLogin, errs.NewError(errs.ErrUnknown, err))
			return
		}

		metrics.AuthAttempt(metrics.OpLogin, metrics.ResultSuccess)

		resp.RespondSuccess(w, r, AuthResponse{User: found.Profile(), Token: token})
	}
}

// HandleMe returns the profile of the token's user.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		current, customErr := loadIdentityUser(deps, r, identity)
		if customErr != nil {
			reject(w, r, metrics.OpMe, customErr)
			return
		}

		metrics.AuthAttempt(metrics.OpMe, metrics.ResultSuccess)

		resp.RespondSuccess(w, r, UserResponse{User: current.Profile()})
	}
}

// HandleAuthTest is a liveness probe for the auth routes.
func HandleAuthTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Auth route works!"))
	}
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword replaces the password after checking the current one and returns a
// fresh token.
func HandleChangePassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, customErr := loadIdentityUser(deps, r, jwt.GetPayloadFromContext(r))
		if customErr != nil {
			reject(w, r, metrics.OpChangePassword, customErr)
			return
		}

		var input ChangePasswordInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			reject(w, r, metrics.OpChangePassword, customErr)
			return
		}

		if customErr := validatePassword(input.NewPassword); customErr != nil {
			reject(w, r, metrics.OpChangePassword, customErr)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			reject(w, r, metrics.OpChangePassword, errs.NewError(errs.ErrCurrentPasswordInvalid))
			return
		}

		hashedPassword, err := deps.hashPassword(input.NewPassword)
		if err != nil {
			fail(w, r, metrics.OpChangePassword, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if err := deps.Users.UpdatePassword(r.Context(), current.ID, hashedPassword); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				reject(w, r, metrics.OpChangePassword, errs.NewError(errs.ErrUserNotFound))
				return
			}
			fail(w, r, metrics.OpChangePassword, errs.NewError(errs.ErrStorageFailed, err))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{ID: current.ID, Email: current.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			fail(w, r, metrics.OpChangePassword, errs.NewError(errs.ErrUnknown, err))
			return
		}

		logx.Info("Password changed", "user_id", current.ID)
		metrics.AuthAttempt(metrics.OpChangePassword, metrics.ResultSuccess)

		resp.RespondSuccess(w, r, TokenResponse{Token: token})
	}
}

// loadIdentityUser fetches the account a verified token was issued for. A nil identity
// (no token, or one the extractor rejected) is unauthorized.
func loadIdentityUser(deps *AppDeps, r *http.Request, identity *jwt.Payload) (*user.User, *errs.CustomError) {
	if identity == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	current, err := deps.Users.GetUserByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logx.Warn("token references a missing user", "user_id", identity.ID)
			return nil, errs.NewError(errs.ErrUserNotFound)
		}
		return nil, errs.NewError(errs.ErrStorageFailed, err)
	}

	return current, nil
}

// reject answers a client-caused failure and counts it.
func reject(w http.ResponseWriter, r *http.Request, op string, customErr *errs.CustomError) {
	result := metrics.ResultRejected
	if customErr.Status >= http.StatusInternalServerError {
		result = metrics.ResultError
	}
	metrics.AuthAttempt(op, result)
	resp.RespondError(w, r, customErr)
}

// fail answers a server-side failure and counts it.
func fail(w http.ResponseWriter, r *http.Request, op string, customErr *errs.CustomError) {
	metrics.AuthAttempt(op, metrics.ResultError)
	resp.RespondError(w, r, customErr)
}
