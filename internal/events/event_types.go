package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventLoginFailed            EventType = "login_failed"
	EventLockoutTriggered       EventType = "lockout_triggered"
	EventCodeSent               EventType = "code_sent"
	EventTokenIssued            EventType = "token_issued"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Login  string `json:"login"`
	Email  string `json:"email"`
	Social string `json:"social,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Username string `json:"username"`
	Tried    int    `json:"tried"`
}

// LockoutTriggeredPayload payload.
type LockoutTriggeredPayload struct {
	Username   string `json:"username"`
	RetryAfter string `json:"retry_after"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	ResetKey string `json:"reset_key"`
}
