package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/stateless-auth/internal/auth"
	"github.com/spec-kit/stateless-auth/internal/config"
	"github.com/spec-kit/stateless-auth/internal/domain"
	"github.com/spec-kit/stateless-auth/internal/events"
	"github.com/spec-kit/stateless-auth/internal/otp"
	"github.com/spec-kit/stateless-auth/internal/repository"
	"github.com/spec-kit/stateless-auth/internal/social"
	apperrors "github.com/spec-kit/stateless-auth/pkg/util"
)

// AuthService coordinates registration, the OTP login flow and password
// recovery. Token issuance/validation and the attempt gate live in
// internal/auth; this service wires them to users and providers.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.ResetCodeRepository
	gate       *auth.Gate
	tokens     *auth.TokenService
	otp        otp.Provider
	verifiers  social.Verifiers
	dispatcher events.Dispatcher
	logger     *zap.Logger

	bcryptCost  int
	countryCode string
	codeLength  int
	resetTTL    time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	ResetCodeRepo repository.ResetCodeRepository
	Gate          *auth.Gate
	Tokens        *auth.TokenService
	OTPProvider   otp.Provider
	Verifiers     social.Verifiers
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	codeLength := cfg.OTP.CodeLength
	if codeLength <= 0 {
		codeLength = 6
	}
	return &AuthService{
		users:       deps.UserRepo,
		resets:      deps.ResetCodeRepo,
		gate:        deps.Gate,
		tokens:      deps.Tokens,
		otp:         deps.OTPProvider,
		verifiers:   deps.Verifiers,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		countryCode: cfg.OTP.CountryCode,
		codeLength:  codeLength,
		resetTTL:    cfg.Auth.ResetCodeTTL(),
	}
}

// RegisterInput carries new account fields.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

var nicenameRe = regexp.MustCompile(`[^A-Za-z0-9-]+`)

func nicename(login string) string {
	return strings.ToLower(nicenameRe.ReplaceAllString(login, "-"))
}

// Register creates a new account. The phone number is enrolled with the OTP
// provider before the user record exists, so a provider refusal aborts the
// whole registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	switch {
	case in.Username == "":
		return nil, apperrors.NewValidationError("field 'username' is required", nil)
	case in.Email == "":
		return nil, apperrors.NewValidationError("field 'email' is required", nil)
	case in.Password == "":
		return nil, apperrors.NewValidationError("field 'password' is required", nil)
	case in.PhoneNumber == "":
		return nil, apperrors.NewValidationError("field 'phone_number' is required", nil)
	}

	if _, err := s.users.GetByLogin(ctx, in.Username); err == nil {
		return nil, apperrors.NewConflict("username already exists, please enter another username", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("email already exists, please try 'Reset Password'", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	otpUserID, err := s.enrollPhone(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Login:        in.Username,
		Email:        in.Email,
		DisplayName:  in.Username,
		Nicename:     nicename(in.Username),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		OTPUserID:    otpUserID,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Login: user.Login,
		Email: user.Email,
	})
	return user, nil
}

// enrollPhone rejects already-registered phone numbers and returns the
// provider-assigned user id for new ones.
func (s *AuthService) enrollPhone(ctx context.Context, email, phoneNumber string) (string, error) {
	if _, err := s.users.GetByPhone(ctx, phoneNumber); err == nil {
		return "", apperrors.NewConflict("phone number already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	otpUserID, err := s.otp.RegisterUser(ctx, email, phoneNumber, s.countryCode)
	if err != nil {
		return "", &auth.ProviderError{Op: "register", Err: err}
	}
	return otpUserID, nil
}

// SocialRegisterInput carries a provider-issued token plus the phone number
// needed to finish enrollment.
type SocialRegisterInput struct {
	Provider    domain.SocialProvider
	Token       string
	TokenSecret string
	PhoneNumber string
}

// SocialRegister creates or links an account from a verified social
// identity.
func (s *AuthService) SocialRegister(ctx context.Context, in SocialRegisterInput) (*domain.User, error) {
	if in.Token == "" {
		return nil, apperrors.NewValidationError("field 'token' is required", nil)
	}
	if in.PhoneNumber == "" {
		return nil, apperrors.NewValidationError("field 'phone_number' is required to complete the registration", nil)
	}
	verifier, ok := s.verifiers[in.Provider]
	if !ok {
		return nil, apperrors.NewValidationError("unknown social provider", map[string]any{"provider": in.Provider})
	}

	profile, err := verifier.Verify(ctx, in.Token, in.TokenSecret)
	if err != nil {
		return nil, apperrors.NewUnauthorized(fmt.Sprintf("%s token verification failed", in.Provider))
	}
	if !profile.EmailVerified {
		return nil, apperrors.NewValidationError("email needs to be verified on your provider account", nil)
	}

	if _, err := s.users.GetBySocialAccount(ctx, in.Provider, profile.ProviderUserID); err == nil {
		return nil, apperrors.NewConflict(fmt.Sprintf("%s account already linked to a user", in.Provider), nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// An existing account with the provider's email gets linked instead of
	// duplicated.
	if profile.Email != "" {
		existing, err := s.users.GetByEmail(ctx, profile.Email)
		if err == nil {
			return existing, s.linkSocial(ctx, existing, in.Provider, profile)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	} else {
		return nil, apperrors.NewValidationError("social provider did not disclose an email address", nil)
	}

	otpUserID, err := s.enrollPhone(ctx, profile.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	login := profile.Name
	if _, err := s.users.GetByLogin(ctx, nicename(login)); err == nil {
		login += "_social_auth"
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Social accounts never log in with a password; the stored one is an
	// unguessable throwaway.
	hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Login:        nicename(login),
		Email:        profile.Email,
		DisplayName:  profile.Name,
		Nicename:     nicename(login),
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		OTPUserID:    otpUserID,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.linkSocial(ctx, user, in.Provider, profile); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Login:  user.Login,
		Email:  user.Email,
		Social: string(in.Provider),
	})
	return user, nil
}

func (s *AuthService) linkSocial(ctx context.Context, user *domain.User, provider domain.SocialProvider, profile *social.Profile) error {
	return s.users.LinkSocialAccount(ctx, &domain.SocialAccount{
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		AvatarURL:      profile.AvatarURL,
	})
}

// SendLoginCode authenticates credentials behind the attempt gate and asks
// the OTP provider to deliver a code. It returns the user so the caller can
// hand the id back for the verify step.
func (s *AuthService) SendLoginCode(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if user.OTPUserID == "" {
		return nil, apperrors.NewValidationError("no phone enrolled for this account", nil)
	}
	if err := s.otp.SendCode(ctx, user.OTPUserID); err != nil {
		return nil, &auth.ProviderError{Op: "send", Err: err}
	}

	s.publish(ctx, events.EventCodeSent, user.ID, nil)
	return user, nil
}

// authenticate runs the gate before any credential evaluation and records a
// failure only when real credentials were checked and found wrong. A gate
// rejection therefore never double-counts as another failure.
func (s *AuthService) authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if err := s.gate.Check(ctx); err != nil {
		var limited *auth.RateLimitedError
		if errors.As(err, &limited) {
			s.publish(ctx, events.EventLockoutTriggered, "", events.LockoutTriggeredPayload{
				Username:   username,
				RetryAfter: auth.HumanDuration(limited.RetryAfter),
			})
		}
		return nil, err
	}

	user, err := s.users.GetByLoginOrEmail(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.failLogin(ctx, username)
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, s.failLogin(ctx, username)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, username)
	}
	return user, nil
}

func (s *AuthService) failLogin(ctx context.Context, username string) error {
	if err := s.gate.RecordFailure(ctx, username); err != nil {
		s.logger.Error("failed to record login failure", zap.Error(err))
	}
	s.publish(ctx, events.EventLoginFailed, "", events.LoginFailedPayload{Username: username})
	return auth.ErrInvalidCredentials
}

// VerifyLoginCode checks the code's shape, delegates correctness to the
// provider and issues a session token on success.
func (s *AuthService) VerifyLoginCode(ctx context.Context, userID, code string) (*auth.TokenData, error) {
	if userID == "" || code == "" {
		return nil, apperrors.NewValidationError("no data to verify", nil)
	}
	if len(code) != s.codeLength {
		return nil, auth.ErrCodeFormat
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if user.OTPUserID == "" {
		return nil, auth.ErrCodeFormat
	}

	ok, err := s.otp.VerifyCode(ctx, user.OTPUserID, code)
	if err != nil {
		return nil, &auth.ProviderError{Op: "verify", Err: err}
	}
	if !ok {
		return nil, auth.ErrCodeRejected
	}

	data, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTokenIssued, user.ID, nil)
	return data, nil
}

// ValidateToken exposes token validation to the HTTP layer.
func (s *AuthService) ValidateToken(ctx context.Context, authHeader string) (*auth.Claims, error) {
	return s.tokens.Validate(ctx, authHeader)
}

// LostPassword stores a short-lived reset code for the account matching the
// given login or email and emits the notification event carrying it.
func (s *AuthService) LostPassword(ctx context.Context, userLogin string) (string, error) {
	if userLogin == "" {
		return "", apperrors.NewValidationError("the field 'user_login' is required", nil)
	}

	user, err := s.users.GetByLoginOrEmail(ctx, userLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("user", map[string]any{"user_login": userLogin})
		}
		return "", err
	}

	code, err := numericCode(6)
	if err != nil {
		return "", err
	}
	reset := &repository.ResetCode{
		UserID:    user.ID,
		Code:      code,
		ResetKey:  uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", err
	}

	s.publish(ctx, events.EventPasswordResetRequested, user.ID, events.PasswordResetRequestedPayload{
		Email:    user.Email,
		Code:     reset.Code,
		ResetKey: reset.ResetKey,
	})
	return user.Email, nil
}

// ResetPassword consumes a valid reset code and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return apperrors.NewValidationError("the field 'token' is required", nil)
	}
	if newPassword == "" {
		return apperrors.NewValidationError("the field 'password' is required", nil)
	}

	reset, err := s.resets.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("the token is not valid", nil)
		}
		return err
	}
	if reset.Expired(time.Now()) {
		return apperrors.NewValidationError("password reset token expired", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}

	s.publish(ctx, events.EventPasswordResetCompleted, reset.UserID, nil)
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// numericCode draws n random decimal digits.
func numericCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", d.Int64())
	}
	return b.String(), nil
}
