package bot

import (
	"context"
	"time"
)

// Sender sends a text message to a chat. *telegram.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier delivers presence alerts as private messages. In a private chat
// the chat id equals the user id.
type Notifier struct {
	Sender  Sender
	Timeout time.Duration
}

func (n *Notifier) Notify(ctx context.Context, userID int64, text string) error {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	return n.Sender.SendMessage(ctx, userID, text)
}
