/*
Package user contains the account model of the auth service and the stores that persist it.

User is the stored record, including the password hash. Profile is the public view returned
by the API; it never carries the hash.
*/
package user

import (
	"strings"
	"time"
)

// User is a persisted account.
type User struct {
	// ID is the unique, immutable identifier of the account.
	ID string

	// Username is the display name chosen at registration. Not unique.
	Username string

	// Email is the login identifier, unique across accounts and stored normalized.
	Email string

	// PasswordHash is the bcrypt hash of the password (salt included).
	PasswordHash string

	// FirstName and LastName are editable from the profile screen.
	FirstName string
	LastName  string

	// AvatarURL is an absolute image URL or empty.
	AvatarURL string

	// LastLoginAt is nil until the first successful login.
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the JSON representation of a user returned to clients.
type Profile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Avatar      string     `json:"avatar,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Avatar:      u.AvatarURL,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// NormalizeEmail trims and lower-cases an email so lookups and the uniqueness
// check are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName derives first and last name from a username at registration:
// the first word becomes the first name, the rest the last name.
func SplitName(username string) (first, last string) {
	fields := strings.Fields(username)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
