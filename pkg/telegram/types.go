package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Update is one incoming event. Only message updates are requested.
type Update struct {
	UpdateID int64
	Message  *Message
}

type Message struct {
	MessageID int64
	From      *User
	Chat      Chat
	Text      string
}

type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	Username  string
}

type Chat struct {
	ID   int64
	Type string
}

func updateFrom(u tgbotapi.Update) Update {
	out := Update{UpdateID: int64(u.UpdateID)}
	m := u.Message
	if m == nil {
		return out
	}

	msg := &Message{MessageID: int64(m.MessageID), Text: m.Text}
	if m.From != nil {
		msg.From = &User{
			ID:        m.From.ID,
			IsBot:     m.From.IsBot,
			FirstName: m.From.FirstName,
			Username:  m.From.UserName,
		}
	}
	if m.Chat != nil {
		msg.Chat = Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	out.Message = msg
	return out
}
