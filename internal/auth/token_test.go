package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/stateless-auth/internal/domain"
)

const (
	testSecret = "s3cret"
	testIssuer = "https://example.test"
)

type fakeLookup struct {
	users map[string]*domain.User
}

func (f *fakeLookup) FindByID(_ context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}

func newTestService(t *testing.T, secret string, at time.Time) (*TokenService, *fakeLookup) {
	t.Helper()
	lookup := &fakeLookup{users: map[string]*domain.User{
		"42": {ID: "42", Email: "koldo@example.test", Nicename: "koldo", DisplayName: "Koldo"},
	}}
	svc := NewTokenService(secret, testIssuer, 7*24*time.Hour, lookup, TokenOptions{})
	svc.now = func() time.Time { return at }
	return svc, lookup
}

func TestIssueAndValidateRoundtrip(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, testSecret, issuedAt)

	data, err := svc.Issue(&domain.User{ID: "42", Email: "koldo@example.test", Nicename: "koldo", DisplayName: "Koldo"})
	require.NoError(t, err)
	require.NotEmpty(t, data.Token)
	require.Equal(t, "42", data.ID)
	require.Equal(t, "koldo@example.test", data.Email)
	require.Equal(t, "koldo", data.Nicename)
	require.Equal(t, "Koldo", data.DisplayName)

	svc.now = func() time.Time { return issuedAt.Add(100 * time.Second) }
	claims, err := svc.Validate(context.Background(), "Bearer "+data.Token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Data.User.ID)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, issuedAt.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	// Validation is pure: a second pass yields the same result.
	again, err := svc.Validate(context.Background(), "Bearer "+data.Token)
	require.NoError(t, err)
	require.Equal(t, claims.Data.User.ID, again.Data.User.ID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, testSecret, issuedAt)

	data, err := svc.Issue(&domain.User{ID: "42"})
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(7*24*time.Hour + time.Second) }
	_, err = svc.Validate(context.Background(), "Bearer "+data.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	signer, _ := newTestService(t, "other-secret", now)
	data, err := signer.Issue(&domain.User{ID: "42"})
	require.NoError(t, err)

	svc, _ := newTestService(t, testSecret, now)
	_, err = svc.Validate(context.Background(), "Bearer "+data.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsForeignSigningMethod(t *testing.T) {
	now := time.Now()
	claims := &Claims{
		Data: ClaimData{User: UserClaim{ID: "42"}},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc, _ := newTestService(t, testSecret, now)
	_, err = svc.Validate(context.Background(), "Bearer "+signed)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsIssuerMismatch(t *testing.T) {
	now := time.Now()
	other := NewTokenService(testSecret, "https://elsewhere.test", time.Hour, &fakeLookup{}, TokenOptions{})
	data, err := other.Issue(&domain.User{ID: "42"})
	require.NoError(t, err)

	svc, _ := newTestService(t, testSecret, now)
	_, err = svc.Validate(context.Background(), "Bearer "+data.Token)
	require.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc, _ := newTestService(t, testSecret, now)
	_, err = svc.Validate(context.Background(), "Bearer "+signed)
	require.ErrorIs(t, err, ErrSubjectMissing)
}

func TestValidateRejectsUnknownSubject(t *testing.T) {
	now := time.Now()
	svc, lookup := newTestService(t, testSecret, now)

	data, err := svc.Issue(&domain.User{ID: "42"})
	require.NoError(t, err)

	delete(lookup.users, "42")
	_, err = svc.Validate(context.Background(), "Bearer "+data.Token)
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestValidateHeaderShapes(t *testing.T) {
	svc, _ := newTestService(t, testSecret, time.Now())

	_, err := svc.Validate(context.Background(), "")
	require.ErrorIs(t, err, ErrNoAuthHeader)

	_, err = svc.Validate(context.Background(), "Token abc123")
	require.ErrorIs(t, err, ErrMalformedHeader)

	_, err = svc.Validate(context.Background(), "Bearer")
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestMissingSecretIsMisconfigured(t *testing.T) {
	svc, _ := newTestService(t, "", time.Now())

	_, err := svc.Issue(&domain.User{ID: "42"})
	require.ErrorIs(t, err, ErrMisconfigured)

	_, err = svc.Validate(context.Background(), "Bearer whatever")
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestIssueHooks(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	lookup := &fakeLookup{users: map[string]*domain.User{"42": {ID: "42"}}}
	svc := NewTokenService(testSecret, testIssuer, 7*24*time.Hour, lookup, TokenOptions{
		BeforeSign: func(claims *Claims) {
			claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(time.Hour))
		},
		BeforeDispatch: func(data *TokenData, user *domain.User) {
			data.DisplayName = "overridden"
		},
	})
	svc.now = func() time.Time { return issuedAt }

	data, err := svc.Issue(&domain.User{ID: "42"})
	require.NoError(t, err)
	require.Equal(t, "overridden", data.DisplayName)

	claims, err := svc.Validate(context.Background(), "Bearer "+data.Token)
	require.NoError(t, err)
	require.Equal(t, issuedAt.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}
