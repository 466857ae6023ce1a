package s21

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// PasswordGrant exchanges platform credentials for an access token. Every
// failure is returned as *AuthError.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, &AuthError{Err: err}
	}

	data := url.Values{
		"client_id":  {c.ClientID},
		"username":   {username},
		"password":   {password},
		"grant_type": {"password"},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.AuthURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, &AuthError{Err: err}
	}
	if tokenResp.AccessToken == "" {
		return nil, &AuthError{Err: errors.New("response carried no access_token")}
	}

	return &tokenResp, nil
}
