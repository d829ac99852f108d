// Package notify alerts the site owner about events that need attention,
// such as a new contact message or a comment awaiting moderation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/erendikmenn/erenailab-blog/internal/config"
)

// maxSMSBody keeps a notification within a few SMS segments.
const maxSMSBody = 320

// Notifier delivers a short message to the site owner.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// New returns an SMS notifier when Twilio is configured and a log-only
// notifier otherwise.
func New(cfg config.TwilioConfig) Notifier {
	if !cfg.Enabled() {
		return LogNotifier{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewTwilioNotifier(client.Api, cfg.From, cfg.To)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, subject, body string) error {
	slog.InfoContext(ctx, "Notification", "subject", subject, "body", body)
	return nil
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends notifications as SMS.
type TwilioNotifier struct {
	api  messageCreator
	from string
	to   string
}

func NewTwilioNotifier(api messageCreator, from, to string) *TwilioNotifier {
	return &TwilioNotifier{api: api, from: from, to: to}
}

func (n *TwilioNotifier) Notify(ctx context.Context, subject, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(truncate(subject+": "+body, maxSMSBody))

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.InfoContext(ctx, "Notification sent", "subject", subject, "sid", sid)
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// Async runs Notify in the background so request handlers never wait on
// delivery. Failures are logged.
func Async(ctx context.Context, n Notifier, subject, body string) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := n.Notify(ctx, subject, body); err != nil {
			slog.WarnContext(ctx, "Notification failed", "subject", subject, "error", err)
		}
	}()
}
