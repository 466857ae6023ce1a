package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
	"github.com/aussiebroadwan/campusbot/pkg/telegram"
)

// Message is an incoming chat message reduced to what commands need.
type Message struct {
	ChatID    int64
	MessageID int64
	UserID    int64
	Username  string
	FirstName string
	Text      string // empty for media messages
}

// Bot turns chat commands into replies.
type Bot struct {
	Members    *service.MemberService
	Moderation *service.ModerationService
	Broadcasts *service.BroadcastService
	Notifier   service.Notifier // delivers /ping reminders
	Snapshots  service.SnapshotSource
	Clusters   []domain.Cluster
	Logger     *slog.Logger

	drafts drafts
}

type handlerFunc func(ctx context.Context, msg Message, args []string) []string

func (b *Bot) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		"start":    b.start,
		"help":     b.start,
		"register": b.register,
		"campus":   b.campus,
		"wanted":   b.wanted,
		"search":   b.search,
		"ping":     b.ping,
		"ref":      b.ref,
		"links":    b.links,

		"ban":       b.ban,
		"unban":     b.unban,
		"broadcast": b.broadcast,
		"confirm":   b.confirm,
		"cancel":    b.cancel,
	}
}

// Handle dispatches msg and returns the replies to send, in order. A message
// that is not a command only gets a reply when it completes a broadcast draft.
func (b *Bot) Handle(ctx context.Context, msg Message) []string {
	name, args, ok := parseCommand(msg.Text)
	if !ok {
		return b.captureDraft(msg)
	}

	ctx, logger := slogx.Scoped(ctx, b.Logger, "user_id", msg.UserID, "command", name)

	banned, err := b.Moderation.IsBanned(ctx, msg.UserID)
	if err != nil {
		logger.Error("failed to check ban list", "error", err)
		return []string{msgInternal}
	}
	if banned {
		return []string{msgBanned}
	}

	handler, ok := b.handlers()[name]
	if !ok {
		return []string{msgUnknownCommand}
	}

	logger.Debug("handling command", "args", len(args))
	return handler(ctx, msg, args)
}

// parseCommand splits "/name@bot arg1 arg2" into its parts.
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

const (
	msgInternal       = "⚠️ Something went wrong, please try again later."
	msgBanned         = "⛔ You are banned from using this bot."
	msgUnknownCommand = "🤔 Unknown command. Send /start for help."
	msgNotRegistered  = "📝 Please register first: /register &lt;login&gt; &lt;name&gt;"
	msgInvalidLogin   = "❌ A login is 8 lowercase latin letters."
	msgAdminOnly      = "⛔ This command is for admins only."
	msgInvalidOTP     = "❌ Invalid one-time code."

	msgHelp = `👋 Hi! I know who is on campus right now.

/register &lt;login&gt; &lt;name&gt;: introduce yourself
/campus: who is on campus
/search &lt;login&gt;: find a peer
/wanted &lt;login&gt;: get one alert a day when a peer shows up
/wanted: show your current watch
/wanted off: stop watching
/ping &lt;login&gt;: remind a peer about your review
/ref: your referral link
/links: useful links`
)

func (b *Bot) start(context.Context, Message, []string) []string {
	return []string{msgHelp}
}

func (b *Bot) register(ctx context.Context, msg Message, args []string) []string {
	if len(args) < 2 {
		return []string{"Usage: /register &lt;login&gt; &lt;name&gt;"}
	}

	u, err := b.Members.Register(ctx, msg.UserID, args[0], strings.Join(args[1:], " "), msg.Username)
	switch {
	case errors.Is(err, service.ErrInvalidLogin):
		return []string{msgInvalidLogin}
	case errors.Is(err, service.ErrInvalidName):
		return []string{"❌ Please give a name of at most 64 characters."}
	case errors.Is(err, service.ErrLoginTaken):
		return []string{fmt.Sprintf("❌ Login <b>%s</b> is already registered by someone else.", html.EscapeString(args[0]))}
	case err != nil:
		return b.internal(ctx, "register failed", err)
	}

	return []string{fmt.Sprintf("✅ Registered as <b>%s</b> (%s).",
		html.EscapeString(u.Login), html.EscapeString(u.Name))}
}

func (b *Bot) campus(ctx context.Context, msg Message, _ []string) []string {
	if reply := b.requireMember(ctx, msg.UserID); reply != nil {
		return reply
	}
	return RenderCampus(b.Snapshots.Get(ctx, false), b.Clusters)
}

func (b *Bot) wanted(ctx context.Context, msg Message, args []string) []string {
	me, err := b.Members.Get(ctx, msg.UserID)
	if errors.Is(err, service.ErrNotRegistered) {
		return []string{msgNotRegistered}
	}
	if err != nil {
		return b.internal(ctx, "load watcher failed", err)
	}

	if len(args) == 0 {
		if me.WatchedLogin == "" {
			return []string{"You are not watching anyone. Usage: /wanted &lt;login&gt;"}
		}
		return []string{fmt.Sprintf("👀 You are watching <b>%s</b>.", html.EscapeString(me.WatchedLogin))}
	}

	if strings.EqualFold(args[0], "off") {
		if err := b.Members.Unwatch(ctx, msg.UserID); err != nil {
			return b.internal(ctx, "unwatch failed", err)
		}
		return []string{"🔕 You are not watching anyone now."}
	}

	login := strings.ToLower(args[0])
	err = b.Members.Watch(ctx, msg.UserID, login)
	switch {
	case errors.Is(err, service.ErrInvalidLogin):
		return []string{msgInvalidLogin}
	case errors.Is(err, service.ErrPeerNotFound):
		return []string{fmt.Sprintf("🤷 <b>%s</b> is not registered in the bot.", html.EscapeString(login))}
	case err != nil:
		return b.internal(ctx, "watch failed", err)
	}

	reply := fmt.Sprintf("👀 Watching <b>%s</b>. You will get one alert a day when they show up on campus.",
		html.EscapeString(login))
	if seat, ok := b.Snapshots.Get(ctx, false).Locate(login); ok {
		reply += fmt.Sprintf("\nThey are on campus right now (%s).", html.EscapeString(seat.Seat()))
	}
	return []string{reply}
}

func (b *Bot) search(ctx context.Context, msg Message, args []string) []string {
	if reply := b.requireMember(ctx, msg.UserID); reply != nil {
		return reply
	}
	if len(args) != 1 {
		return []string{"Usage: /search &lt;login&gt;"}
	}

	peer, err := b.Members.FindByLogin(ctx, args[0])
	switch {
	case errors.Is(err, service.ErrInvalidLogin):
		return []string{msgInvalidLogin}
	case errors.Is(err, service.ErrPeerNotFound):
		return []string{fmt.Sprintf("🤷 <b>%s</b> is not registered in the bot.", html.EscapeString(args[0]))}
	case err != nil:
		return b.internal(ctx, "search failed", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 <b>%s</b>, %s", html.EscapeString(peer.Login), html.EscapeString(peer.Name))
	if peer.TelegramUsername != "" {
		fmt.Fprintf(&sb, " (@%s)", html.EscapeString(peer.TelegramUsername))
	}
	if seat, ok := b.Snapshots.Get(ctx, false).Locate(peer.Login); ok {
		fmt.Fprintf(&sb, "\n📍 On campus: %s", html.EscapeString(seat.Seat()))
	} else {
		sb.WriteString("\n🏠 Not on campus")
	}
	return []string{sb.String()}
}

func (b *Bot) ban(ctx context.Context, msg Message, args []string) []string {
	return b.moderate(ctx, msg, args, "ban", b.Moderation.Ban, "🔨 User %d is banned.")
}

func (b *Bot) unban(ctx context.Context, msg Message, args []string) []string {
	return b.moderate(ctx, msg, args, "unban", b.Moderation.Unban, "🕊 User %d is unbanned.")
}

func (b *Bot) moderate(
	ctx context.Context,
	msg Message,
	args []string,
	name string,
	action func(context.Context, string) (int64, error),
	done string,
) []string {
	var code string
	if len(args) > 1 {
		code = args[1]
	}
	if reply := b.authorize(msg.UserID, code); reply != nil {
		return reply
	}
	if len(args) == 0 {
		return []string{fmt.Sprintf("Usage: /%s &lt;login or user id&gt; [code]", name)}
	}

	id, err := action(ctx, args[0])
	switch {
	case errors.Is(err, service.ErrPeerNotFound), errors.Is(err, service.ErrInvalidLogin):
		return []string{fmt.Sprintf("🤷 <b>%s</b> is not registered in the bot.", html.EscapeString(args[0]))}
	case errors.Is(err, service.ErrForbidden):
		return []string{"⛔ You cannot ban yourself."}
	case err != nil:
		return b.internal(ctx, name+" failed", err)
	}

	slogx.FromContext(ctx).Info("moderation action", "action", name, "target_id", id)
	return []string{fmt.Sprintf(done, id)}
}

// authorize returns a refusal when userID may not run admin commands.
func (b *Bot) authorize(userID int64, code string) []string {
	err := b.Moderation.Authorize(userID, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrInvalidOTP):
		return []string{msgInvalidOTP}
	default:
		return []string{msgAdminOnly}
	}
}

func (b *Bot) ping(ctx context.Context, msg Message, args []string) []string {
	me, err := b.Members.Get(ctx, msg.UserID)
	if errors.Is(err, service.ErrNotRegistered) {
		return []string{msgNotRegistered}
	}
	if err != nil {
		return b.internal(ctx, "load sender failed", err)
	}
	if len(args) != 1 {
		return []string{"Usage: /ping &lt;login&gt;"}
	}

	peer, err := b.Members.FindByLogin(ctx, args[0])
	switch {
	case errors.Is(err, service.ErrInvalidLogin):
		return []string{msgInvalidLogin}
	case errors.Is(err, service.ErrPeerNotFound):
		return []string{fmt.Sprintf("🤷 <b>%s</b> is not registered in the bot.", html.EscapeString(args[0]))}
	case err != nil:
		return b.internal(ctx, "ping lookup failed", err)
	}

	if err := b.Notifier.Notify(ctx, peer.UserID, ReviewReminder(me.Login)); err != nil {
		if telegram.IsForbidden(err) {
			return []string{fmt.Sprintf("📭 <b>%s</b> has blocked the bot, the reminder was not delivered.",
				html.EscapeString(peer.Login))}
		}
		slogx.FromContext(ctx).Warn("ping delivery failed", "peer_id", peer.UserID, "error", err)
		return []string{msgInternal}
	}

	return []string{fmt.Sprintf("✉️ Reminder sent to <b>%s</b> (%s).",
		html.EscapeString(peer.Login), html.EscapeString(peer.Name))}
}

// ReviewReminder is the /ping message a peer receives.
func ReviewReminder(fromLogin string) string {
	return fmt.Sprintf("📢 Reminder from <b>%s</b>:\n\n<b>We have a review! 🔔</b>", html.EscapeString(fromLogin))
}

func (b *Bot) requireMember(ctx context.Context, userID int64) []string {
	_, err := b.Members.Get(ctx, userID)
	if errors.Is(err, service.ErrNotRegistered) {
		return []string{msgNotRegistered}
	}
	if err != nil {
		return b.internal(ctx, "load member failed", err)
	}
	return nil
}

func (b *Bot) internal(ctx context.Context, msg string, err error) []string {
	slogx.FromContext(ctx).Error(msg, "error", err)
	return []string{msgInternal}
}
