/*
Package jwt issues and verifies the session tokens of the auth service.

Tokens are HS256-signed JWTs. Nothing is stored server-side: a token is valid when its
signature verifies under the server secret and it has not expired.
*/
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// SessionExpiration is the lifetime of tokens issued at login and registration.
	SessionExpiration = 24 * time.Hour

	// TokenIssuer is written to, and required in, every token.
	TokenIssuer = "EchoSpace"
)

var (
	// ErrTokenExpired is returned for a well-formed, correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for every other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// GenerateToken signs payload, stamping issuer, subject, issued-at and an expiry of
// duration from now.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("jwt secret is empty")
	}

	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		Subject:   payload.ID,
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken verifies tokenString and returns its payload.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors == jwt.ValidationErrorExpired {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Issuer != TokenIssuer || claims.ID == "" {
		return nil, fmt.Errorf("%w: unexpected issuer or empty subject", ErrTokenInvalid)
	}

	return claims, nil
}
