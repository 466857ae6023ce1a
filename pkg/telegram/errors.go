package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

// IsForbidden reports whether the bot may not write to the chat, typically
// because the user blocked it.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}
