package http

import (
	"errors"
	"fmt"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/stateless-auth/internal/auth"
	apperrors "github.com/spec-kit/stateless-auth/pkg/util"
)

func TestMapAuthErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{auth.ErrNoAuthHeader, "NO_AUTH_HEADER", stdhttp.StatusUnauthorized},
		{auth.ErrMalformedHeader, "MALFORMED_AUTH_HEADER", stdhttp.StatusUnauthorized},
		{auth.ErrTokenInvalid, "TOKEN_INVALID", stdhttp.StatusUnauthorized},
		{auth.ErrIssuerMismatch, "ISSUER_MISMATCH", stdhttp.StatusUnauthorized},
		{auth.ErrSubjectMissing, "SUBJECT_MISSING", stdhttp.StatusUnauthorized},
		{auth.ErrSubjectNotFound, "SUBJECT_NOT_FOUND", stdhttp.StatusUnauthorized},
		{auth.ErrInvalidCredentials, "LOGIN_FAILED", stdhttp.StatusForbidden},
		{auth.ErrCodeFormat, "CODE_FORMAT", stdhttp.StatusBadRequest},
		{auth.ErrCodeRejected, "CODE_REJECTED", stdhttp.StatusBadRequest},
		{auth.ErrMisconfigured, "MISCONFIGURED", stdhttp.StatusInternalServerError},
	}

	for _, tc := range cases {
		var derr *apperrors.DomainError
		require.ErrorAs(t, MapAuthError(tc.err), &derr, "kind %v", tc.err)
		require.Equal(t, tc.code, derr.Code)
		require.Equal(t, tc.status, derr.HTTPStatus)
	}
}

func TestMapAuthErrorWrappedKind(t *testing.T) {
	wrapped := fmt.Errorf("%w: signature is invalid", auth.ErrTokenInvalid)

	var derr *apperrors.DomainError
	require.ErrorAs(t, MapAuthError(wrapped), &derr)
	require.Equal(t, "TOKEN_INVALID", derr.Code)
}

func TestMapAuthErrorRateLimited(t *testing.T) {
	err := MapAuthError(&auth.RateLimitedError{RetryAfter: 10 * time.Minute})

	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "RATE_LIMITED", derr.Code)
	require.Equal(t, stdhttp.StatusTooManyRequests, derr.HTTPStatus)
	require.Contains(t, derr.Message, "10 minutes")
	require.Equal(t, 600, derr.Details["retry_after_seconds"])
}

func TestMapAuthErrorProvider(t *testing.T) {
	err := MapAuthError(&auth.ProviderError{Op: "send", Err: errors.New("timeout")})

	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "UPSTREAM_ERROR", derr.Code)
	require.Equal(t, stdhttp.StatusBadGateway, derr.HTTPStatus)
}

func TestMapAuthErrorPassthroughAndFallback(t *testing.T) {
	conflict := apperrors.NewConflict("already exists", nil)
	require.Equal(t, conflict, MapAuthError(conflict))

	var derr *apperrors.DomainError
	require.ErrorAs(t, MapAuthError(errors.New("boom")), &derr)
	require.Equal(t, "INTERNAL_ERROR", derr.Code)

	require.NoError(t, MapAuthError(nil))
}
