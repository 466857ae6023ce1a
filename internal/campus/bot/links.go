package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/aussiebroadwan/campusbot/internal/campus/service"
)

// ReferralURL is filled with the member's login.
const ReferralURL = "https://21-school.ru/?utm_source=school21&utm_medium=student_yak&utm_campaign=%s__"

type link struct {
	title string
	url   string
}

var usefulLinks = []link{
	{"School 21 FAQ", "https://applicant.21-school.ru/faq"},
	{"School 21 rules", "https://applicant.21-school.ru/rules_yak"},
	{"Rocket.Chat rules", "https://applicant.21-school.ru/rocketchat"},
	{"Internship guide", "https://applicant.21-school.ru/internship_guide"},
	{"Internship specialties", "https://applicant.21-school.ru/specialties"},
	{"School 21 position on AI", "https://applicant.21-school.ru/gigacode"},
	{"Online review rules", "https://applicant.21-school.ru/onlineeducation"},
	{"Code review guide", "https://applicant.21-school.ru/code_review"},
	{"Graduation requirements", "https://applicant.21-school.ru/final"},
	{"Writing to yks@21-school.ru", "https://applicant.21-school.ru/sla"},
	{"Earning coins", "https://applicant.21-school.ru/manual_points"},
	{"Guest form", "https://forms.yandex.ru/u/65320571068ff019572c037e/"},
	{"Bringing guests to campus", "https://applicant.21-school.ru/guests"},
}

func (b *Bot) ref(ctx context.Context, msg Message, _ []string) []string {
	me, err := b.Members.Get(ctx, msg.UserID)
	if errors.Is(err, service.ErrNotRegistered) {
		return []string{msgNotRegistered}
	}
	if err != nil {
		return b.internal(ctx, "load member failed", err)
	}

	return []string{fmt.Sprintf("🔗 Your referral link:\n\n<code>%s</code>",
		html.EscapeString(fmt.Sprintf(ReferralURL, me.Login)))}
}

func (b *Bot) links(context.Context, Message, []string) []string {
	var sb strings.Builder
	sb.WriteString("🔗 <b>Useful links</b>\n")
	for _, l := range usefulLinks {
		fmt.Fprintf(&sb, "\n• <a href=\"%s\">%s</a>", html.EscapeString(l.url), html.EscapeString(l.title))
	}
	return []string{sb.String()}
}
