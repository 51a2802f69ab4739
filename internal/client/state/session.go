package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"echospace/internal/app/user"
	"echospace/internal/client/api"
)

// ShowAuth moves from the landing page to the sign-in/sign-up screen.
func (a *App) ShowAuth() {
	a.mu.Lock()
	if a.view.IsChat() {
		a.mu.Unlock()
		return
	}
	a.view = ViewLandingAuth
	a.commit()
}

// ShowHome returns from the sign-in/sign-up screen to the landing page.
func (a *App) ShowHome() {
	a.mu.Lock()
	if a.view.IsChat() {
		a.mu.Unlock()
		return
	}
	a.view = ViewLandingHome
	a.commit()
}

// Login signs in with email and password. On failure nothing but a notification changes.
func (a *App) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return a.fail(ErrMissingFields)
	}

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return a.fail(err)
	}

	a.startSession(res.User, res.Token)
	a.notify(NotifySuccess, fmt.Sprintf("Welcome back, %s!", res.User.Username))
	return nil
}

// Register creates an account and signs in. Password length and confirmation are checked
// locally before anything is sent.
func (a *App) Register(ctx context.Context, username, email, password, confirm string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return a.fail(ErrMissingFields)
	}
	if password != confirm {
		return a.fail(ErrPasswordMismatch)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return a.fail(ErrPasswordTooShort)
	}

	res, err := a.api.Register(ctx, username, email, password)
	if err != nil {
		return a.fail(err)
	}

	a.startSession(res.User, res.Token)
	a.notify(NotifySuccess, fmt.Sprintf("Welcome to EchoSpace, %s!", res.User.Username))
	return nil
}

// Restore resumes the session of a stored token. A token the server rejects is removed; a
// network failure keeps it for the next attempt. It reports whether a session was resumed.
func (a *App) Restore(ctx context.Context) (bool, error) {
	token, err := a.tokens.Token()
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to read stored token")
		return false, a.fail(err)
	}
	if token == "" {
		return false, nil
	}

	profile, err := a.api.Me(ctx, token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			a.logger.Info().Int("status", apiErr.Status).Msg("Stored token rejected, clearing it")
			if clearErr := a.tokens.ClearToken(); clearErr != nil {
				a.logger.Error().Err(clearErr).Msg("Failed to clear stored token")
			}
			a.notify(NotifyInfo, "Your session has expired. Please sign in again.")
			return false, nil
		}
		return false, a.fail(err)
	}

	a.startSession(*profile, token)
	return true, nil
}

func (a *App) startSession(profile user.Profile, token string) {
	rooms, messages := a.mock.seed(a.now())

	a.mu.Lock()
	a.persistTokenLocked(token)
	a.cancelRepliesLocked()
	a.session++
	a.user = &profile
	a.token = token
	a.rooms = rooms
	a.messages = messages
	a.activeID = ""
	a.view = ViewChatNoRoom
	a.commit()
}

// Logout cancels pending replies, clears all session state and the stored token, and returns
// to the landing page.
func (a *App) Logout() {
	a.mu.Lock()
	a.cancelRepliesLocked()
	a.session++
	a.user = nil
	a.token = ""
	a.rooms = nil
	a.messages = make(map[string][]Message)
	a.activeID = ""
	a.view = ViewLandingHome
	if err := a.tokens.ClearToken(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to clear stored token")
	}
	a.commit()

	a.notify(NotifyInfo, "You have been logged out.")
}

// persistTokenLocked writes the token while mu is held, so it cannot land after a Logout that
// already cleared the store.
func (a *App) persistTokenLocked(token string) {
	if err := a.tokens.SetToken(token); err != nil {
		a.logger.Error().Err(err).Msg("Failed to persist session token")
	}
}

// credentials returns the token and session of the signed-in user.
func (a *App) credentials() (string, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.user == nil {
		return "", 0, ErrNotAuthenticated
	}
	return a.token, a.session, nil
}

// UpdateProfile saves first name, last name and avatar URL on the server.
func (a *App) UpdateProfile(ctx context.Context, firstName, lastName, avatar string) error {
	token, session, err := a.credentials()
	if err != nil {
		return a.fail(err)
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return a.fail(ErrNameRequired)
	}

	profile, err := a.api.UpdateProfile(ctx, token, firstName, lastName, strings.TrimSpace(avatar))
	if err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	if a.session != session {
		a.mu.Unlock()
		return nil
	}
	a.user = profile
	a.commit()

	a.notify(NotifySuccess, "Profile updated successfully!")
	return nil
}

// ChangePassword replaces the password and keeps the re-issued token.
func (a *App) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	token, session, err := a.credentials()
	if err != nil {
		return a.fail(err)
	}

	if current == "" || newPassword == "" || confirm == "" {
		return a.fail(ErrMissingFields)
	}
	if newPassword != confirm {
		return a.fail(ErrPasswordMismatch)
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return a.fail(ErrPasswordTooShort)
	}

	newToken, err := a.api.ChangePassword(ctx, token, current, newPassword)
	if err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	if a.session != session {
		a.mu.Unlock()
		return nil
	}
	a.token = newToken
	a.persistTokenLocked(newToken)
	a.mu.Unlock()

	a.notify(NotifySuccess, "Password reset successfully!")
	return nil
}
