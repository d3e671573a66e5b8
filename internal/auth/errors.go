package auth

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds returned by the token service and login gate. The HTTP layer
// maps each kind to a status code; the core only reports what went wrong.
var (
	// ErrMisconfigured means the signing secret is absent from configuration.
	ErrMisconfigured = errors.New("signing secret not configured")

	// ErrNoAuthHeader means no Authorization header was presented. Callers
	// that tolerate anonymous requests must treat this differently from an
	// invalid token.
	ErrNoAuthHeader = errors.New("authorization header not found")

	// ErrMalformedHeader means the header was present but not "Bearer <token>".
	ErrMalformedHeader = errors.New("authorization header malformed")

	// ErrTokenInvalid covers signature failures, unexpected signing
	// algorithms and tokens outside their validity window.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrIssuerMismatch means the iss claim does not match this server.
	ErrIssuerMismatch = errors.New("token issuer does not match this server")

	// ErrSubjectMissing means the claim set carries no user id.
	ErrSubjectMissing = errors.New("user id not found in token")

	// ErrSubjectNotFound means the user id in the token resolves to nobody.
	ErrSubjectNotFound = errors.New("token user does not exist")

	// ErrInvalidCredentials means the username/password check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCodeFormat means the one-time code has the wrong shape.
	ErrCodeFormat = errors.New("verification code format invalid")

	// ErrCodeRejected means the OTP provider rejected the code.
	ErrCodeRejected = errors.New("verification code rejected")
)

// RateLimitedError is returned by the login gate while the failure counter
// is at or above the limit.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("authentication limit reached, try again in %s", HumanDuration(e.RetryAfter))
}

// ProviderError wraps an OTP provider failure as an opaque passthrough.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("otp provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
