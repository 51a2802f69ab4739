/*
Package errs provides the application error type and its code table.

Codes are grouped by range so clients and logs can tell request problems, account problems
and server faults apart at a glance.
*/
package errs

// 1xxx: request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates a request Content-Type other than JSON.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a body that is not valid JSON for the target type.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates a body over the accepted size.
	ErrRequestEntityTooLarge = 1006
)

// 3xxx: user, credential and session errors
const (
	// ErrInvalidUsername indicates an empty or over-long username.
	ErrInvalidUsername = 3101

	// ErrInvalidEmail indicates an email address that does not parse.
	ErrInvalidEmail = 3102

	// ErrInvalidPassword indicates a password outside the accepted length in runes or bytes.
	ErrInvalidPassword = 3103

	// ErrInvalidName indicates an empty or over-long first or last name.
	ErrInvalidName = 3104

	// ErrEmailTaken indicates that a registration used an email that already has an account.
	ErrEmailTaken = 3201

	// ErrInvalidCredentials is returned for every failed login, whether the account exists or not.
	ErrInvalidCredentials = 3301

	// ErrUnauthorized indicates a missing, malformed, expired or forged session token.
	ErrUnauthorized = 3302

	// ErrCurrentPasswordInvalid indicates a wrong current password on password change.
	ErrCurrentPasswordInvalid = 3303

	// ErrUserNotFound indicates that an authenticated operation targeted a deleted account.
	ErrUserNotFound = 3401

	// ErrAvatarFileInvalid indicates an avatar upload request with a bad type or size.
	ErrAvatarFileInvalid = 3501
)

// 5xxx: internal errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates that the user store or object storage failed.
	ErrStorageFailed = 5001

	// ErrStorageNotConfigured indicates a request for a feature whose backing service is disabled.
	ErrStorageNotConfigured = 5002
)
