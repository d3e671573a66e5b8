package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/stateless-auth/internal/config"
)

// AuthyClient talks to an Authy-compatible SMS OTP API.
type AuthyClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewAuthyClient builds a provider client from configuration.
func NewAuthyClient(cfg config.OTPConfig, logger *zap.Logger) *AuthyClient {
	return &AuthyClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type authyUserResponse struct {
	Success bool `json:"success"`
	User    struct {
		ID int64 `json:"id"`
	} `json:"user"`
	Message string `json:"message"`
}

type authyStatusResponse struct {
	Success interface{} `json:"success"`
	Message string      `json:"message"`
}

// ok interprets the API's success field, which arrives as a bool or the
// string "true" depending on endpoint.
func (r authyStatusResponse) ok() bool {
	switch v := r.Success.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// RegisterUser enrolls email + phone and returns the Authy user id.
func (c *AuthyClient) RegisterUser(ctx context.Context, email, phoneNumber, countryCode string) (string, error) {
	form := url.Values{}
	form.Set("user[email]", email)
	form.Set("user[cellphone]", phoneNumber)
	form.Set("user[country_code]", countryCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/protected/json/users/new", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Authy-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}
	defer resp.Body.Close()

	var body authyUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("register user: decode response: %w", err)
	}
	if !body.Success || body.User.ID == 0 {
		return "", fmt.Errorf("register user: provider refused: %s", body.Message)
	}
	return strconv.FormatInt(body.User.ID, 10), nil
}

// SendCode requests SMS delivery for the given Authy user.
func (c *AuthyClient) SendCode(ctx context.Context, providerUserID string) error {
	endpoint := fmt.Sprintf("%s/protected/json/sms/%s", c.baseURL, url.PathEscape(providerUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Authy-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	defer resp.Body.Close()

	var body authyStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("send code: decode response: %w", err)
	}
	if !body.ok() {
		return fmt.Errorf("send code: provider refused: %s", body.Message)
	}
	c.logger.Debug("otp sms requested", zap.String("otp_user_id", providerUserID))
	return nil
}

// VerifyCode asks the provider whether the code matches. A 401 with a
// structured body is a rejection, not a transport failure.
func (c *AuthyClient) VerifyCode(ctx context.Context, providerUserID, code string) (bool, error) {
	endpoint := fmt.Sprintf("%s/protected/json/verify/%s/%s",
		c.baseURL, url.PathEscape(code), url.PathEscape(providerUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Authy-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify code: %w", err)
	}
	defer resp.Body.Close()

	var body authyStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("verify code: decode response: %w", err)
	}
	if body.ok() && resp.StatusCode == http.StatusOK {
		return true, nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusOK {
		return false, nil
	}
	return false, fmt.Errorf("verify code: unexpected status %d: %s", resp.StatusCode, body.Message)
}
