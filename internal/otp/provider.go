package otp

import "context"

// Provider is the out-of-band one-time-password service the login flow
// delegates to. Code correctness is entirely the provider's call; the
// service only checks shape before delegating.
type Provider interface {
	// RegisterUser enrolls a phone number and returns the provider-assigned
	// user id to store alongside the account.
	RegisterUser(ctx context.Context, email, phoneNumber, countryCode string) (string, error)
	// SendCode asks the provider to deliver a code via SMS.
	SendCode(ctx context.Context, providerUserID string) error
	// VerifyCode checks a code: (false, nil) means the provider rejected it,
	// an error means the provider could not be consulted.
	VerifyCode(ctx context.Context, providerUserID, code string) (bool, error)
}
