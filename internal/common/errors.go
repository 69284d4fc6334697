package common

import "errors"

// Callers match these with errors.Is.
var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Gateway errors as seen by the sync core.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTransport       = errors.New("transport failure")

	// Local durable state could not be decoded.
	ErrStorageCorrupt = errors.New("storage corrupt")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
