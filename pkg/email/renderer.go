package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateEmailChangeOTP = "email_change_otp"
	TemplateMessageReply   = "message_reply"
)

// TemplateData feeds every email template. Unused fields are ignored.
type TemplateData struct {
	Subject       string
	Preheader     string
	StoreName     string
	Year          int
	Code          string
	ExpiryMinutes int
	Name          string
	Reply         string
	Original      string
}

// Renderer renders the embedded HTML templates.
type Renderer struct {
	storeName string
	templates map[string]*template.Template
}

func NewRenderer(storeName string) (*Renderer, error) {
	base, err := templateFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("read base template: %w", err)
	}

	r := &Renderer{storeName: storeName, templates: map[string]*template.Template{}}
	for _, name := range []string{TemplateEmailChangeOTP, TemplateMessageReply} {
		content, err := templateFS.ReadFile("templates/" + name + ".html")
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tmpl, err := template.New(name).Parse(string(base))
		if err != nil {
			return nil, fmt.Errorf("parse base for %s: %w", name, err)
		}
		if _, err := tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(name string, data TemplateData) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if data.StoreName == "" {
		data.StoreName = r.storeName
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// EmailChangeOTP renders the verification code email.
func (r *Renderer) EmailChangeOTP(to, code string, expiry time.Duration) (Message, error) {
	subject := fmt.Sprintf("Your %s verification code", r.storeName)
	body, err := r.Render(TemplateEmailChangeOTP, TemplateData{
		Subject:       subject,
		Preheader:     fmt.Sprintf("Your verification code is %s", code),
		Code:          code,
		ExpiryMinutes: int(expiry.Minutes()),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: body, Text: "Your verification code is " + code}, nil
}

// MessageReply renders the reply to a contact message or FAQ question.
func (r *Renderer) MessageReply(to, name, original, reply string) (Message, error) {
	subject := fmt.Sprintf("Re: your message to %s", r.storeName)
	body, err := r.Render(TemplateMessageReply, TemplateData{
		Subject:   subject,
		Preheader: "We replied to your message",
		Name:      name,
		Reply:     reply,
		Original:  original,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: body, Text: reply}, nil
}
