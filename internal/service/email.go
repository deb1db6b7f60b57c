package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/foyerhq/foyer-server/internal/config"
)

// Mailer delivers templated transactional email. Delivery is best-effort:
// callers record failures per item and never roll back completed state
// transitions because an email did not go out.
type Mailer interface {
	SendInvitation(ctx context.Context, email, name, code string, expiresAt time.Time) error
	SendMagicLink(ctx context.Context, email, link string) error
}

type sendGridMailer struct {
	apiKey  string
	from    *mail.Email
	baseURL string
}

// NewSendGridMailer creates a SendGrid-backed mailer
func NewSendGridMailer(apiKey, fromAddress, fromName, baseURL string) Mailer {
	return &sendGridMailer{
		apiKey:  apiKey,
		from:    mail.NewEmail(fromName, fromAddress),
		baseURL: baseURL,
	}
}

func (m *sendGridMailer) SendInvitation(ctx context.Context, email, name, code string, expiresAt time.Time) error {
	subject := "Your access code"
	plainText := fmt.Sprintf(
		"Hello %s,\n\nYour access request has been approved. Use this code to create your account:\n\n%s\n\nSign up at %s/signup. The code expires at %s and can be used once.\n",
		name, code, m.baseURL, expiresAt.Format(time.RFC1123),
	)
	htmlContent := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your access request has been approved. Use this code to create your account:</p><p><strong>%s</strong></p><p>Sign up at <a href=%q>%s/signup</a>. The code expires at %s and can be used once.</p>",
		name, code, m.baseURL+"/signup", m.baseURL, expiresAt.Format(time.RFC1123),
	)

	return m.send(ctx, email, name, subject, plainText, htmlContent)
}

func (m *sendGridMailer) SendMagicLink(ctx context.Context, email, link string) error {
	subject := "Your sign-in link"
	plainText := fmt.Sprintf("Click to sign in:\n\n%s\n\nThe link expires shortly and can be used once. If you did not request it, ignore this email.\n", link)
	htmlContent := fmt.Sprintf("<p>Click to sign in:</p><p><a href=%q>%s</a></p><p>The link expires shortly and can be used once. If you did not request it, ignore this email.</p>", link, link)

	return m.send(ctx, email, "", subject, plainText, htmlContent)
}

func (m *sendGridMailer) send(ctx context.Context, email, name, subject, plainText, htmlContent string) error {
	recipient := mail.NewEmail(name, email)
	message := mail.NewSingleEmail(m.from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(m.apiKey)

	sendCtx, cancel := context.WithTimeout(ctx, config.EmailSendTimeout)
	defer cancel()

	response, err := client.SendWithContext(sendCtx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	return nil
}
