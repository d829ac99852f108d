package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GoogleUser represents user data from a verified Google ID token.
type GoogleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Picture       string `json:"picture"`
	Name          string `json:"name"`
	Audience      string `json:"aud"`
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	client       *http.Client
	tokenInfoURL string
	clientID     string
}

func NewGoogleVerifier(tokenInfoURL, clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		client:       &http.Client{Timeout: 10 * time.Second},
		tokenInfoURL: tokenInfoURL,
		clientID:     clientID,
	}
}

// Verify validates idToken and returns the account it belongs to.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.tokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify google token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("invalid google token")
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode google user info: %w", err)
	}

	// tokeninfo reports booleans as strings.
	if user.EmailVerified != "true" {
		return nil, errors.New("email not verified")
	}
	if v.clientID != "" && user.Audience != v.clientID {
		return nil, errors.New("token issued for another client")
	}

	return &user, nil
}
