package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// SocialProvider identifies an external sign-in provider.
type SocialProvider string

const (
	SocialProviderGoogle  SocialProvider = "google"
	SocialProviderTwitter SocialProvider = "twitter"
)

// User is the domain model for accounts that authenticate against the service.
type User struct {
	ID           string
	Login        string
	Email        string
	DisplayName  string
	Nicename     string
	FirstName    string
	LastName     string
	PasswordHash string
	PhoneNumber  string
	OTPUserID    string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SocialAccount links a user to an external identity.
type SocialAccount struct {
	UserID         string
	Provider       SocialProvider
	ProviderUserID string
	AvatarURL      string
	CreatedAt      time.Time
}
