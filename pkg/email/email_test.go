package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubSendClient struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (s *stubSendClient) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, m)
	if s.err != nil {
		return nil, s.err
	}
	return &rest.Response{StatusCode: s.status, Body: "body"}, nil
}

func TestRendererEmailChangeOTP(t *testing.T) {
	r, err := NewRenderer("Storefront")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	msg, err := r.EmailChangeOTP("a@example.com", "12345678", 10*time.Minute)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.To != "a@example.com" || !strings.Contains(msg.HTML, "12345678") || !strings.Contains(msg.HTML, "10 minutes") {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestRendererEscapesReply(t *testing.T) {
	r, err := NewRenderer("Storefront")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	msg, err := r.MessageReply("b@example.com", "Ravi", "where is my order?", "<b>soon</b>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(msg.HTML, "<b>soon</b>") {
		t.Fatalf("reply should be escaped: %s", msg.HTML)
	}
	if msg.Text != "<b>soon</b>" {
		t.Fatalf("text part should carry the raw reply")
	}
}

func TestSendGridSender(t *testing.T) {
	client := &stubSendClient{status: 202}
	sender := NewSendGridSender(config.SendgridConfig{DefaultFrom: "shop@example.com", FromName: "Shop"}, client)

	if err := sender.Send(context.Background(), Message{To: "c@example.com", Subject: "hi", HTML: "<p>hi</p>"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(client.sent) != 1 || client.sent[0].From.Address != "shop@example.com" {
		t.Fatalf("unexpected sent payload")
	}

	client.status = 401
	if err := sender.Send(context.Background(), Message{To: "c@example.com"}); err == nil {
		t.Fatal("expected error on non-2xx status")
	}

	client.err = errors.New("network")
	if err := sender.Send(context.Background(), Message{To: "c@example.com"}); err == nil {
		t.Fatal("expected transport error")
	}

	if err := sender.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error without recipient")
	}
}

func TestNewFallsBackToLogSender(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	sender := New(config.SendgridConfig{}, logg)
	if _, ok := sender.(*LogSender); !ok {
		t.Fatalf("expected log sender, got %T", sender)
	}
	if err := sender.Send(context.Background(), Message{To: "d@example.com", Text: "code 42"}); err != nil {
		t.Fatalf("log sender should never fail: %v", err)
	}
	if !strings.Contains(buf.String(), "code 42") {
		t.Fatalf("expected logged email body, got %s", buf.String())
	}

	if _, ok := New(config.SendgridConfig{APIKey: "SG.key"}, logg).(*SendGridSender); !ok {
		t.Fatal("expected sendgrid sender when api key is set")
	}
}
