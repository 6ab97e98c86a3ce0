package util

import "github.com/google/uuid"

// NewJTI returns a unique identifier for an access token.
func NewJTI() string {
	return "jti_" + uuid.NewString()
}

// NewRefreshToken returns an opaque refresh token value. Only its SHA-256
// hash is ever stored.
func NewRefreshToken() string {
	return uuid.NewString() + uuid.NewString()
}

// NewRequestID returns a correlation id for request logging.
func NewRequestID() string {
	return uuid.NewString()
}
