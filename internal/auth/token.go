package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/stateless-auth/internal/domain"
)

// IdentityLookup resolves token subjects to live users.
type IdentityLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// UserClaim carries the subject identifier inside the claim set.
type UserClaim struct {
	ID string `json:"id"`
}

// ClaimData nests the subject the way clients expect it.
type ClaimData struct {
	User UserClaim `json:"user"`
}

// Claims describes the signed JWT payload: iss/iat/nbf/exp plus a nested
// user id under data.user.id.
type Claims struct {
	Data ClaimData `json:"data"`
	jwt.RegisteredClaims
}

// TokenData is the non-sensitive issuance result handed to clients.
type TokenData struct {
	Token       string `json:"token"`
	ID          string `json:"id"`
	Email       string `json:"user_email"`
	Nicename    string `json:"user_nicename"`
	DisplayName string `json:"user_display_name"`
}

// TokenOptions carries the named extension points applied during issuance.
type TokenOptions struct {
	// BeforeSign may adjust the claim set before it is signed.
	BeforeSign func(claims *Claims)
	// BeforeDispatch may adjust the response data before it is returned.
	BeforeDispatch func(data *TokenData, user *domain.User)
}

// TokenService issues and validates session tokens. Tokens are stateless
// bearer credentials: validity is signature plus claims plus a live
// identity lookup, nothing is stored server-side.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	lookup IdentityLookup
	opts   TokenOptions

	now func() time.Time
}

// NewTokenService builds the service. An empty secret is allowed here and
// reported as ErrMisconfigured at issue/validate time, matching how a
// missing server key should surface to callers rather than at boot.
func NewTokenService(secret, issuer string, ttl time.Duration, lookup IdentityLookup, opts TokenOptions) *TokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		lookup: lookup,
		opts:   opts,
		now:    time.Now,
	}
}

// Issue signs a claim set for the user and returns it with the small set of
// user fields safe to show clients. Password hashes never leave here.
func (s *TokenService) Issue(user *domain.User) (*TokenData, error) {
	if len(s.secret) == 0 {
		return nil, ErrMisconfigured
	}

	issuedAt := s.now()
	claims := &Claims{
		Data: ClaimData{User: UserClaim{ID: user.ID}},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}
	if s.opts.BeforeSign != nil {
		s.opts.BeforeSign(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	data := &TokenData{
		Token:       signed,
		ID:          user.ID,
		Email:       user.Email,
		Nicename:    user.Nicename,
		DisplayName: user.DisplayName,
	}
	if s.opts.BeforeDispatch != nil {
		s.opts.BeforeDispatch(data, user)
	}
	return data, nil
}

// Validate checks a raw Authorization header value and returns the decoded
// claims. Each step can reject; validation is a single pass with no side
// effects. The caller passes the primary header value, or the
// redirect-preserved fallback when the primary is absent.
func (s *TokenService) Validate(ctx context.Context, authHeader string) (*Claims, error) {
	raw, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	if len(s.secret) == 0 {
		return nil, ErrMisconfigured
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Exactly one accepted algorithm; anything else is rejected to
		// prevent algorithm confusion.
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Issuer != s.issuer {
		return nil, ErrIssuerMismatch
	}
	if claims.Data.User.ID == "" {
		return nil, ErrSubjectMissing
	}
	user, err := s.lookup.FindByID(ctx, claims.Data.User.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSubjectNotFound
	}

	return claims, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformedHeader
	}
	return strings.TrimSpace(parts[1]), nil
}
