package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(method string, form url.Values) (int, string)) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		method := strings.TrimPrefix(r.URL.Path, "/botsecret/")
		status, resp := handler(method, r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "secret")
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	var got url.Values
	client := newTestServer(t, func(method string, form url.Values) (int, string) {
		assert.Equal(t, "sendMessage", method)
		got = form
		return http.StatusOK, `{"ok":true,"result":{"message_id":1,"chat":{"id":42,"type":"private"}}}`
	})

	require.NoError(t, client.SendMessage(context.Background(), 42, "<b>hi</b>"))
	require.Equal(t, "42", got.Get("chat_id"))
	require.Equal(t, "<b>hi</b>", got.Get("text"))
	require.Equal(t, "HTML", got.Get("parse_mode"))
	require.Equal(t, "true", got.Get("disable_web_page_preview"))
}

func TestCopyMessage(t *testing.T) {
	t.Parallel()

	var got url.Values
	client := newTestServer(t, func(method string, form url.Values) (int, string) {
		assert.Equal(t, "copyMessage", method)
		got = form
		return http.StatusOK, `{"ok":true,"result":{"message_id":99}}`
	})

	require.NoError(t, client.CopyMessage(context.Background(), 7, 1000, 55))
	require.Equal(t, "7", got.Get("chat_id"))
	require.Equal(t, "1000", got.Get("from_chat_id"))
	require.Equal(t, "55", got.Get("message_id"))
}

func TestSendMessageErrors(t *testing.T) {
	t.Parallel()

	t.Run("blocked by user", func(t *testing.T) {
		client := newTestServer(t, func(string, url.Values) (int, string) {
			return http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
		})
		err := client.SendMessage(context.Background(), 42, "hi")
		require.Error(t, err)
		require.True(t, IsForbidden(err))
	})

	t.Run("flood control carries retry after", func(t *testing.T) {
		client := newTestServer(t, func(string, url.Values) (int, string) {
			return http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`
		})
		err := client.SendMessage(context.Background(), 42, "hi")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 429, apiErr.Code)
		require.Equal(t, 7*time.Second, apiErr.RetryAfter)
		require.False(t, IsForbidden(err))
	})

	t.Run("non json body", func(t *testing.T) {
		client := newTestServer(t, func(string, url.Values) (int, string) {
			return http.StatusBadGateway, `bad gateway`
		})
		err := client.SendMessage(context.Background(), 42, "hi")
		require.Error(t, err)
		require.False(t, IsForbidden(err))
		require.Contains(t, err.Error(), "sendMessage")
	})
}

func TestGetUpdates(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(method string, form url.Values) (int, string) {
		assert.Equal(t, "getUpdates", method)
		assert.Equal(t, "10", form.Get("offset"))
		assert.Equal(t, "30", form.Get("timeout"))
		assert.JSONEq(t, `["message"]`, form.Get("allowed_updates"))
		return http.StatusOK, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":5,"from":{"id":7,"is_bot":false,"first_name":"Ann","username":"ann"},"chat":{"id":7,"type":"private"},"date":1700000000,"text":"/campus"}},
			{"update_id":11}
		]}`
	})

	updates, err := client.GetUpdates(context.Background(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.Equal(t, int64(10), updates[0].UpdateID)
	require.Equal(t, int64(5), updates[0].Message.MessageID)
	require.Equal(t, "/campus", updates[0].Message.Text)
	require.Equal(t, "ann", updates[0].Message.From.Username)
	require.Equal(t, int64(7), updates[0].Message.Chat.ID)
	require.Nil(t, updates[1].Message)
}

func TestGetUpdatesHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewClient(srv.URL, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetUpdates(ctx, 0, 30*time.Second)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestTransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", "supersecrettoken")
	client.HTTPClient.Timeout = time.Second

	err := client.SendMessage(context.Background(), 1, "hi")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "supersecrettoken")
}
