package dto

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// SocialRegisterRequest payload for provider-backed registration.
type SocialRegisterRequest struct {
	Social      string `json:"social"`
	Token       string `json:"token"`
	TokenSecret string `json:"token_secret"`
	PhoneNumber string `json:"phone_number"`
}

// SendSMSRequest payload for the credential check + OTP dispatch step.
type SendSMSRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyCodeRequest payload for the OTP verification step.
type VerifyCodeRequest struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

// TokenResponse is the issuance result returned to clients.
type TokenResponse struct {
	Token       string `json:"token"`
	ID          string `json:"id"`
	Email       string `json:"user_email"`
	Nicename    string `json:"user_nicename"`
	DisplayName string `json:"user_display_name"`
}

// LostPasswordRequest payload.
type LostPasswordRequest struct {
	UserLogin string `json:"user_login"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PusherRequest payload for the realtime bridge.
type PusherRequest struct {
	UID  string `json:"uid"`
	Text string `json:"txt"`
}
