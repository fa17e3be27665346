package alert

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"vigil/internal/config"
	"vigil/internal/storage"
)

//go:embed "templates"
var templateFS embed.FS

// EmailChannel delivers alerts through the SendGrid v3 mail API.
type EmailChannel struct {
	cfg  config.EmailConfig
	tmpl *template.Template
}

// NewEmailChannel parses the embedded email template.
func NewEmailChannel(cfg config.EmailConfig) (*EmailChannel, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/alert.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &EmailChannel{cfg: cfg, tmpl: tmpl}, nil
}

func (e *EmailChannel) Name() storage.Channel { return storage.ChannelEmail }

// Deliver sends a single email to the alert's recipient.
func (e *EmailChannel) Deliver(ctx context.Context, a *storage.Alert) error {
	if e.cfg.APIKey == "" || e.cfg.FromAddress == "" {
		return fmt.Errorf("%w: sendgrid api key or sender missing", ErrNotConfigured)
	}
	if a.Recipient == "" {
		return fmt.Errorf("%w: no email address", ErrNotConfigured)
	}

	s := styleFor(a.Kind)
	var html bytes.Buffer
	err := e.tmpl.ExecuteTemplate(&html, "htmlBody", map[string]any{
		"Alert": a,
		"Color": s.htmlColor,
		"Emoji": s.emoji,
		"Label": s.label,
		"Brand": e.cfg.FromName,
		"Time":  a.TriggeredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	from := mail.NewEmail(e.cfg.FromName, e.cfg.FromAddress)
	to := mail.NewEmail("", a.Recipient)
	message := mail.NewSingleEmail(from, Subject(e.cfg.FromName, a), to, a.Message, html.String())

	request := sendgrid.GetRequest(e.cfg.APIKey, "/v3/mail/send", e.cfg.Host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
