package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// MaxMessageLength is the Bot API limit for one text message.
	MaxMessageLength = 4096
)

// Client talks to the Bot API. The HTTP timeout must exceed the long-poll
// timeout passed to GetUpdates.
type Client struct {
	HTTPClient *http.Client

	token string
	api   *tgbotapi.BotAPI
}

// NewClient builds a client without contacting the API. baseURL replaces
// the public endpoint, which tests and local Bot API servers rely on.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	api := &tgbotapi.BotAPI{Token: token, Client: httpClient}
	api.SetAPIEndpoint(strings.TrimSuffix(baseURL, "/") + "/bot%s/%s")

	return &Client{HTTPClient: httpClient, token: token, api: api}
}

// GetUpdates long-polls for message updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	raw, err := c.bind(ctx).GetUpdates(cfg)
	if err != nil {
		return nil, c.wrap("getUpdates", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, updateFrom(u))
	}
	return updates, nil
}

// SendMessage sends an HTML formatted text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	_, err := c.bind(ctx).Send(msg)
	return c.wrap("sendMessage", err)
}

// CopyMessage re-sends a message, whatever its content, to chatID without
// a forward header.
func (c *Client) CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) error {
	_, err := c.bind(ctx).CopyMessage(tgbotapi.NewCopyMessage(chatID, fromChatID, int(messageID)))
	return c.wrap("copyMessage", err)
}

// bind returns a copy of the API whose requests carry ctx. The library's
// methods take no context, its HTTP client is the only hook.
func (c *Client) bind(ctx context.Context) *tgbotapi.BotAPI {
	api := *c.api
	api.Client = contextClient{ctx: ctx, client: c.HTTPClient}
	return &api
}

type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// wrap maps library errors onto APIError and strips the token, which the
// request URL carries, from transport errors.
func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &APIError{
			Code:        tgErr.Code,
			Description: tgErr.Message,
			RetryAfter:  time.Duration(tgErr.RetryAfter) * time.Second,
		}
	}
	return fmt.Errorf("telegram: %s: %w", method, redact(err, c.token))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
