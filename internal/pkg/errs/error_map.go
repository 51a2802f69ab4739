package errs

import "net/http"

// errorMap holds the client-facing message and HTTP status of every code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed request body.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},

	// 3xxx
	ErrInvalidUsername:        {Code: ErrInvalidUsername, Message: "Username must be between 1 and %d characters.", Status: http.StatusBadRequest},
	ErrInvalidEmail:           {Code: ErrInvalidEmail, Message: "Please enter a valid email address.", Status: http.StatusBadRequest},
	ErrInvalidPassword:        {Code: ErrInvalidPassword, Message: "Password must be between %d and %d characters and at most %d bytes.", Status: http.StatusBadRequest},
	ErrInvalidName:            {Code: ErrInvalidName, Message: "Please enter both first and last name.", Status: http.StatusBadRequest},
	ErrEmailTaken:             {Code: ErrEmailTaken, Message: "An account with this email already exists.", Status: http.StatusConflict},
	ErrInvalidCredentials:     {Code: ErrInvalidCredentials, Message: "Invalid email or password.", Status: http.StatusUnauthorized},
	ErrUnauthorized:           {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrCurrentPasswordInvalid: {Code: ErrCurrentPasswordInvalid, Message: "Current password is incorrect.", Status: http.StatusBadRequest},
	ErrUserNotFound:           {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusUnauthorized},
	ErrAvatarFileInvalid:      {Code: ErrAvatarFileInvalid, Message: "Avatar must be a JPEG, PNG, WebP or GIF image up to %d MB.", Status: http.StatusBadRequest},

	// 5xxx
	ErrUnknown:              {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed:        {Code: ErrStorageFailed, Message: "Service temporarily unavailable. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageNotConfigured: {Code: ErrStorageNotConfigured, Message: "This feature is not available on this server.", Status: http.StatusNotImplemented},
}
