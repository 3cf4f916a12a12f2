package services

import (
	"context"
	"strings"

	"github.com/cloudary/backend/internal/config"
	"github.com/resend/resend-go/v2"
)

// Mailer sends the transactional mails. Handlers treat failures as
// log-and-continue; mail never fails a request.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, code string) error
}

type ResendMailer struct {
	client *resend.Client
	sender string
}

func NewResendMailer(cfg config.MailConfig) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		sender: cfg.Sender,
	}
}

func (m *ResendMailer) SendWelcome(ctx context.Context, to, name string) error {
	html := strings.ReplaceAll(welcomeTemplate, "{{name}}", name)
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.sender,
		To:      []string{to},
		Subject: "Welcome to Cloudary",
		Html:    html,
	})
	return err
}

func (m *ResendMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	html := strings.ReplaceAll(passwordResetTemplate, "{{email}}", to)
	html = strings.ReplaceAll(html, "{{otp}}", code)
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.sender,
		To:      []string{to},
		Subject: "Password Reset OTP",
		Html:    html,
	})
	return err
}

const welcomeTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:'Open Sans',sans-serif;background:#f8fafc;">
  <div style="max-width:500px;margin:40px auto;background:#fff;border-radius:12px;overflow:hidden;">
    <div style="background:linear-gradient(135deg,#4f46e5,#7c3aed);padding:30px;text-align:center;">
      <h1 style="color:#fff;font-size:24px;margin:0;">Welcome to Cloudary</h1>
    </div>
    <div style="padding:40px 30px;color:#1f2937;">
      <p style="font-size:16px;">Hi {{name}},</p>
      <p>Your account has been created successfully. Upload, organize and share your files from anywhere.</p>
    </div>
    <div style="padding:20px;text-align:center;font-size:12px;color:#6b7280;background:#f9fafb;">
      You received this email because you signed up for Cloudary.
    </div>
  </div>
</body>
</html>`

const passwordResetTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:'Open Sans',sans-serif;background:#f8fafc;">
  <div style="max-width:500px;margin:40px auto;background:#fff;border-radius:12px;overflow:hidden;">
    <div style="background:linear-gradient(135deg,#4f46e5,#7c3aed);padding:30px;text-align:center;">
      <h1 style="color:#fff;font-size:24px;margin:0;">Password Reset</h1>
    </div>
    <div style="padding:40px 30px;color:#1f2937;">
      <p style="font-size:16px;">We received a password reset request for {{email}}.</p>
      <p>Use this one-time code within the next 15 minutes:</p>
      <p style="font-size:28px;font-weight:600;letter-spacing:4px;text-align:center;color:#4f46e5;">{{otp}}</p>
      <p>If you did not request a reset, you can ignore this email.</p>
    </div>
    <div style="padding:20px;text-align:center;font-size:12px;color:#6b7280;background:#f9fafb;">
      Cloudary never asks for your password by email.
    </div>
  </div>
</body>
</html>`
