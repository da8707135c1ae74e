// internal/services/email_sender.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/models"
)

type EmailSender struct {
	cfg config.EmailConfig
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (s *EmailSender) Channel() models.NotificationChannel {
	return models.NotificationChannelEmail
}

func (s *EmailSender) Provider() string {
	return "smtp"
}

// Send delivers an HTML message. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *EmailSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Setup authentication
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.FromName, s.cfg.FromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// RenderEmail renders a named template with data and returns the subject and
// HTML body.
func RenderEmail(templateType string, data interface{}) (string, string, error) {
	tpl := getEmailTemplate(templateType)

	subject, err := renderTemplate(tpl.Subject, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := renderTemplate(tpl.Body, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to render email template: %w", err)
	}
	return subject, body, nil
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"order_confirmation": {
			Subject: "Order Confirmation - #{{.OrderNumber}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you for your order, {{.CustomerName}}!</h2>
	<p>Your order <strong>#{{.OrderNumber}}</strong> has been received and is awaiting confirmation.</p>
	<table>
		<tr><td>Product</td><td>{{.ProductName}}</td></tr>
		<tr><td>Quantity</td><td>{{.Quantity}} {{.Unit}}</td></tr>
		<tr><td>Unit price</td><td>₦{{.UnitPrice}}</td></tr>
		<tr><td>Total</td><td>₦{{.Total}}</td></tr>
		<tr><td>Farm</td><td>{{.FarmName}}</td></tr>
		<tr><td>Delivery to</td><td>{{.DeliveryAddress}}</td></tr>
	</table>
	<p>Payment method: {{.PaymentMethod}}</p>
	<p>Best regards,<br>AgriMarket Team</p>
</body>
</html>`,
		},
	}

	if tpl, exists := templates[templateType]; exists {
		return tpl
	}

	// Default template
	return EmailTemplate{
		Subject: "AgriMarket notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
