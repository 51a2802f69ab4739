package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of an EchoSpace session token.
type Payload struct {
	// StandardClaims carries expiry, issued-at, issuer and subject. The subject
	// duplicates ID so generic JWT tooling can read the user.
	jwt.StandardClaims

	// ID is the user identifier the token was issued for.
	ID string `json:"uid"`

	// Email is the account email at issue time. Informational only; handlers load
	// the current profile from the store.
	Email string `json:"email"`
}
