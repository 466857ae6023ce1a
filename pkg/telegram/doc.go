// Package telegram adapts the Bot API library to what the campus bot needs:
// long polling for updates, sending text messages and copying a message to
// another chat. Every call takes a context that bounds the HTTP request.
//
// Usage:
//
//	bot := telegram.NewClient(telegram.DefaultBaseURL, token)
//	updates, err := bot.GetUpdates(ctx, offset, 30*time.Second)
//	err = bot.SendMessage(ctx, chatID, "<b>hello</b>")
package telegram
