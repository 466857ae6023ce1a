package bot

import (
	"context"
	"fmt"
	"sync"
)

const (
	msgBroadcastAsk     = "📣 Send the message to broadcast: text or media. /cancel to stop."
	msgBroadcastConfirm = "📣 Send this to every member? /confirm or /cancel"
	msgBroadcastEmpty   = "🛑 Send the message first, or /cancel."
	msgBroadcastCancel  = "✖️ Broadcast cancelled."
	msgNothingPending   = "Nothing to confirm or cancel."
)

// draft is an admin's broadcast in progress. A zero messageID means the
// message has not been sent yet.
type draft struct {
	fromChatID int64
	messageID  int64
}

// drafts tracks one pending broadcast per admin.
type drafts struct {
	mu      sync.Mutex
	pending map[int64]draft
}

func (d *drafts) open(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		d.pending = make(map[int64]draft)
	}
	d.pending[userID] = draft{}
}

// fill records msg as the draft if userID is waiting for one.
func (d *drafts) fill(userID, chatID, messageID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.pending[userID]
	if !ok || cur.messageID != 0 {
		return false
	}
	d.pending[userID] = draft{fromChatID: chatID, messageID: messageID}
	return true
}

func (d *drafts) take(userID int64) (draft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.pending[userID]
	if ok && cur.messageID != 0 {
		delete(d.pending, userID)
	}
	return cur, ok
}

func (d *drafts) drop(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[userID]
	delete(d.pending, userID)
	return ok
}

func (b *Bot) broadcast(ctx context.Context, msg Message, args []string) []string {
	var code string
	if len(args) > 0 {
		code = args[0]
	}
	if reply := b.authorize(msg.UserID, code); reply != nil {
		return reply
	}
	b.drafts.open(msg.UserID)
	return []string{msgBroadcastAsk}
}

// captureDraft takes a non-command message as the pending broadcast.
func (b *Bot) captureDraft(msg Message) []string {
	if !b.drafts.fill(msg.UserID, msg.ChatID, msg.MessageID) {
		return nil
	}
	return []string{msgBroadcastConfirm}
}

func (b *Bot) confirm(ctx context.Context, msg Message, _ []string) []string {
	if !b.Moderation.IsAdmin(msg.UserID) {
		return []string{msgNothingPending}
	}
	d, ok := b.drafts.take(msg.UserID)
	switch {
	case !ok:
		return []string{msgNothingPending}
	case d.messageID == 0:
		return []string{msgBroadcastEmpty}
	}

	res, err := b.Broadcasts.Send(ctx, d.fromChatID, d.messageID)
	if err != nil && res.Recipients == 0 {
		return b.internal(ctx, "broadcast failed", err)
	}

	reply := fmt.Sprintf("📣 Broadcast finished ☑️\nDelivered: %d\nFailed: %d", res.Sent, res.Failed)
	if err != nil {
		reply += fmt.Sprintf("\nInterrupted after %d of %d members.", res.Sent+res.Failed, res.Recipients)
	}
	return []string{reply}
}

func (b *Bot) cancel(_ context.Context, msg Message, _ []string) []string {
	if !b.drafts.drop(msg.UserID) {
		return []string{msgNothingPending}
	}
	return []string{msgBroadcastCancel}
}
