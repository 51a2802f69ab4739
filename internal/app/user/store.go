package user

import (
	"context"
	"errors"
)

var (
	// ErrEmailTaken is returned by CreateUser when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
)

// CreateParams are the fields supplied at registration.
type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// ProfileParams are the editable profile fields.
type ProfileParams struct {
	FirstName string
	LastName  string
	AvatarURL string
}

// Store persists accounts. Implementations must make CreateUser atomic with respect to the
// email uniqueness check, so concurrent registrations of one email create one account.
type Store interface {
	CreateUser(ctx context.Context, params CreateParams) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, params ProfileParams) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
