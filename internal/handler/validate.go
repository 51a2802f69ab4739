package handler

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"echospace/internal/pkg/errs"
)

const (
	MaxUsernameLength = 50
	MinPasswordLength = 6
	MaxPasswordLength = 50

	// MaxPasswordBytes is the longest input bcrypt hashes.
	MaxPasswordBytes = 72
	MaxNameLength     = 50
	MaxAvatarURLBytes = 2048
)

func validateUsername(username string) *errs.CustomError {
	n := utf8.RuneCountInString(username)
	if n < 1 || n > MaxUsernameLength {
		return errs.NewError(errs.ErrInvalidUsername, MaxUsernameLength)
	}
	return nil
}

// validateEmail accepts a bare address only; display-name forms such as "Bob <b@x.io>" are rejected.
func validateEmail(email string) *errs.CustomError {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errs.NewError(errs.ErrInvalidEmail)
	}
	return nil
}

func validatePassword(password string) *errs.CustomError {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength || len(password) > MaxPasswordBytes {
		return errs.NewError(errs.ErrInvalidPassword, MinPasswordLength, MaxPasswordLength, MaxPasswordBytes)
	}
	return nil
}

func validateName(first, last string) *errs.CustomError {
	for _, name := range []string{first, last} {
		n := utf8.RuneCountInString(name)
		if n < 1 || n > MaxNameLength {
			return errs.NewError(errs.ErrInvalidName)
		}
	}
	return nil
}

// validateAvatarURL accepts an empty value or an absolute http(s) URL.
func validateAvatarURL(raw string) *errs.CustomError {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxAvatarURLBytes {
		return errs.NewError(errs.ErrInvalidParams)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return errs.NewError(errs.ErrInvalidParams)
	}
}
