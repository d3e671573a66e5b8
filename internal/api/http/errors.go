package http

import (
	"errors"
	"net/http"

	"github.com/spec-kit/stateless-auth/internal/auth"
	apperrors "github.com/spec-kit/stateless-auth/pkg/util"
)

// authStatus is the boundary's mapping table from core error kinds to HTTP
// codes. The core never decides statuses itself.
var authStatus = []struct {
	kind   error
	code   string
	status int
}{
	{auth.ErrNoAuthHeader, "NO_AUTH_HEADER", http.StatusUnauthorized},
	{auth.ErrMalformedHeader, "MALFORMED_AUTH_HEADER", http.StatusUnauthorized},
	{auth.ErrTokenInvalid, "TOKEN_INVALID", http.StatusUnauthorized},
	{auth.ErrIssuerMismatch, "ISSUER_MISMATCH", http.StatusUnauthorized},
	{auth.ErrSubjectMissing, "SUBJECT_MISSING", http.StatusUnauthorized},
	{auth.ErrSubjectNotFound, "SUBJECT_NOT_FOUND", http.StatusUnauthorized},
	{auth.ErrInvalidCredentials, "LOGIN_FAILED", http.StatusForbidden},
	{auth.ErrCodeFormat, "CODE_FORMAT", http.StatusBadRequest},
	{auth.ErrCodeRejected, "CODE_REJECTED", http.StatusBadRequest},
	{auth.ErrMisconfigured, "MISCONFIGURED", http.StatusInternalServerError},
}

// MapAuthError converts core auth error kinds into boundary DomainErrors.
// Anything already a DomainError passes through; unknown errors become 500s.
func MapAuthError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var limited *auth.RateLimitedError
	if errors.As(err, &limited) {
		return apperrors.NewDomainError("RATE_LIMITED",
			"you have reached the authentication limit, you will be able to try again in "+auth.HumanDuration(limited.RetryAfter),
			http.StatusTooManyRequests,
			map[string]any{"retry_after_seconds": int(limited.RetryAfter.Seconds())})
	}

	var provider *auth.ProviderError
	if errors.As(err, &provider) {
		return apperrors.NewBadGateway("something went wrong with the verification provider")
	}

	for _, entry := range authStatus {
		if errors.Is(err, entry.kind) {
			return apperrors.NewDomainError(entry.code, entry.kind.Error(), entry.status, nil)
		}
	}
	return apperrors.NewInternalError(err)
}
