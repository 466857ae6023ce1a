package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/campusbot/pkg/telegram"
)

const (
	DefaultPollTimeout  = 30 * time.Second
	DefaultSendTimeout  = 15 * time.Second
	defaultRetryBackoff = 5 * time.Second
)

// Updater long-polls for chat updates. *telegram.Client implements it.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Poller receives updates and runs each command in its own goroutine so a
// slow /campus refresh never blocks other users.
type Poller struct {
	Updates     Updater
	Sender      Sender
	Bot         *Bot
	Logger      *slog.Logger
	PollTimeout time.Duration
	SendTimeout time.Duration

	offset   int64
	inflight sync.WaitGroup
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewPoller(updates Updater, sender Sender, bot *Bot, logger *slog.Logger) *Poller {
	return &Poller{
		Updates:     updates,
		Sender:      sender,
		Bot:         bot,
		Logger:      logger,
		PollTimeout: DefaultPollTimeout,
		SendTimeout: DefaultSendTimeout,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

func (p *Poller) Start() {
	go p.run()
	p.Logger.Info("telegram poller started", "poll_timeout", p.PollTimeout)
}

// Stop cancels the pending long poll and waits for in-flight commands.
func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
	p.Logger.Info("telegram poller stopped")
}

func (p *Poller) run() {
	defer close(p.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.Logger.Warn("failed to fetch updates", "error", err)
			if !p.sleep(retryAfter(err)) {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	p.inflight.Wait()
}

// poll fetches one batch and dispatches it.
func (p *Poller) poll(ctx context.Context) error {
	updates, err := p.Updates.GetUpdates(ctx, p.offset, p.PollTimeout)
	if err != nil {
		return err
	}

	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		msg, ok := messageOf(u)
		if !ok {
			continue
		}

		p.inflight.Add(1)
		go func() {
			defer p.inflight.Done()
			p.handle(ctx, msg)
		}()
	}
	return nil
}

func (p *Poller) handle(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("command handler panicked", "user_id", msg.UserID, "panic", r)
		}
	}()

	for _, reply := range p.Bot.Handle(ctx, msg) {
		sendCtx, cancel := context.WithTimeout(ctx, p.SendTimeout)
		err := p.Sender.SendMessage(sendCtx, msg.ChatID, reply)
		cancel()
		if err != nil {
			p.Logger.Warn("failed to send reply", "chat_id", msg.ChatID, "error", err)
			return
		}
	}
}

func (p *Poller) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stopCh:
		return false
	}
}

// messageOf keeps messages from people. Media without text is kept too, it
// may be a broadcast draft.
func messageOf(u telegram.Update) (Message, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return Message{}, false
	}
	return Message{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		UserID:    m.From.ID,
		Username:  m.From.Username,
		FirstName: m.From.FirstName,
		Text:      m.Text,
	}, true
}

func retryAfter(err error) time.Duration {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	return defaultRetryBackoff
}
