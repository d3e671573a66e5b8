package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spec-kit/stateless-auth/internal/config"
	"github.com/spec-kit/stateless-auth/internal/domain"
)

// Profile is the identity a provider vouches for.
type Profile struct {
	ProviderUserID string
	Name           string
	FirstName      string
	LastName       string
	Email          string
	EmailVerified  bool
	AvatarURL      string
}

// Verifier checks a provider-issued token and returns the identity behind it.
type Verifier interface {
	Verify(ctx context.Context, token, tokenSecret string) (*Profile, error)
}

// Verifiers maps provider names to their verifier.
type Verifiers map[domain.SocialProvider]Verifier

// NewVerifiers builds the configured provider set.
func NewVerifiers(cfg config.SocialConfig) Verifiers {
	client := &http.Client{Timeout: 10 * time.Second}
	return Verifiers{
		domain.SocialProviderGoogle:  &GoogleVerifier{clientID: cfg.GoogleClientID, http: client},
		domain.SocialProviderTwitter: &TwitterVerifier{http: client},
	}
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID string
	endpoint string
	http     *http.Client
}

type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, token, _ string) (*Profile, error) {
	endpoint := v.endpoint
	if endpoint == "" {
		endpoint = "https://oauth2.googleapis.com/tokeninfo"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?id_token="+url.QueryEscape(token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google tokeninfo: id token rejected (status %d)", resp.StatusCode)
	}
	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google tokeninfo: decode: %w", err)
	}
	if v.clientID != "" && info.Aud != v.clientID {
		return nil, fmt.Errorf("google tokeninfo: token issued for another client")
	}

	return &Profile{
		ProviderUserID: info.Sub,
		Name:           info.Name,
		FirstName:      info.GivenName,
		LastName:       info.FamilyName,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified == "true",
		AvatarURL:      info.Picture,
	}, nil
}

// TwitterVerifier validates Twitter user access tokens against /2/users/me.
// Twitter does not disclose the email over this endpoint; the registration
// flow treats it as unverified-absent.
type TwitterVerifier struct {
	endpoint string
	http     *http.Client
}

type twitterUserResponse struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (v *TwitterVerifier) Verify(ctx context.Context, token, _ string) (*Profile, error) {
	endpoint := v.endpoint
	if endpoint == "" {
		endpoint = "https://api.twitter.com/2/users/me"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?user.fields=profile_image_url", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter verify: access token rejected (status %d)", resp.StatusCode)
	}
	var body twitterUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("twitter verify: decode: %w", err)
	}
	if body.Data.ID == "" {
		return nil, fmt.Errorf("twitter verify: empty profile")
	}

	return &Profile{
		ProviderUserID: body.Data.ID,
		Name:           body.Data.Username,
		FirstName:      body.Data.Name,
		AvatarURL:      body.Data.ProfileImageURL,
		EmailVerified:  true,
	}, nil
}
