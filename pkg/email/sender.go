package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message is a single transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid sender when an API key is configured and a logging
// sender otherwise.
func New(cfg config.SendgridConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLogSender(logg)
	}
	return NewSendGridSender(cfg, sendgrid.NewSendClient(cfg.APIKey))
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client   sendClient
	from     string
	fromName string
}

func NewSendGridSender(cfg config.SendgridConfig, client sendClient) *SendGridSender {
	return &SendGridSender{client: client, from: cfg.DefaultFrom, fromName: cfg.FromName}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("email recipient is required")
	}

	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	// Transactional codes must not be rewritten by link tracking.
	tracking := mail.NewTrackingSettings()
	click := mail.NewClickTrackingSetting()
	click.SetEnable(false)
	click.SetEnableText(false)
	tracking.SetClickTracking(click)
	open := mail.NewOpenTrackingSetting()
	open.SetEnable(false)
	tracking.SetOpenTracking(open)
	m.SetTrackingSettings(tracking)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid api error: %d - %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg == nil {
		return nil
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email_to":      msg.To,
		"email_subject": msg.Subject,
		"email_text":    msg.Text,
	})
	s.logg.Info(ctx, "email.not_configured")
	return nil
}
