package s21

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultAuthURL  = "https://auth.sberclass.ru/auth/realms/EduPowerKeycloak/protocol/openid-connect/token"
	DefaultAPIURL   = "https://platform.21-school.ru/services/21-school/api/v1"
	DefaultClientID = "s21-open-api"
)

// Client talks to the platform. It holds no credentials; see TokenSource.
type Client struct {
	AuthURL    string
	APIURL     string
	ClientID   string
	HTTPClient *http.Client

	// Limiter throttles every outbound request. Nil disables throttling.
	Limiter *rate.Limiter
}

// NewClient returns a client with a 15s request timeout and a limiter of
// 8 requests per second with a burst of 4.
func NewClient(authURL, apiURL string) *Client {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		AuthURL:  authURL,
		APIURL:   strings.TrimSuffix(apiURL, "/"),
		ClientID: DefaultClientID,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		Limiter: rate.NewLimiter(rate.Limit(8), 4),
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

// getJSON performs an authenticated GET and decodes a 200 response into target.
func (c *Client) getJSON(ctx context.Context, token, path string, target any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
