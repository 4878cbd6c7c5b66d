// utils/email.go
package utils

import (
	"fmt"
	"html"
	"net/url"

	"cloud-kitchen/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(toEmail, subject, htmlContent string) error
}

// PostmarkMailer sends through Postmark.
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(apiToken, sender string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(apiToken, ""), sender: sender}
}

func (m *PostmarkMailer) Send(toEmail, subject, htmlContent string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	return nil
}

// SendGridMailer sends through SendGrid.
type SendGridMailer struct {
	client *sendgrid.Client
	sender string
}

func NewSendGridMailer(apiKey, sender string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), sender: sender}
}

func (m *SendGridMailer) Send(toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Cloud Kitchen", m.sender),
		subject,
		mail.NewEmail("", toEmail),
		htmlContent,
		htmlContent,
	)
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// EmailService renders the shop's emails and hands them to a Mailer.
// With a nil Mailer every send is logged and skipped.
type EmailService struct {
	mailer  Mailer
	baseURL string
	log     *logrus.Entry
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, baseURL string, log *logrus.Entry) *EmailService {
	return &EmailService{mailer: mailer, baseURL: baseURL, log: log}
}

// NewMailer picks the provider named in configuration; "" disables email.
func NewMailer(provider, postmarkToken, sendgridKey, sender string) (Mailer, error) {
	switch provider {
	case "":
		return nil, nil
	case "postmark":
		if postmarkToken == "" {
			return nil, fmt.Errorf("POSTMARK_API_TOKEN is not set")
		}
		return NewPostmarkMailer(postmarkToken, sender), nil
	case "sendgrid":
		if sendgridKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
		}
		return NewSendGridMailer(sendgridKey, sender), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", provider)
	}
}

// Enabled reports whether emails are actually delivered.
func (es *EmailService) Enabled() bool {
	return es != nil && es.mailer != nil
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if !es.Enabled() {
		es.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Debug("Email delivery disabled, skipping")
		return nil
	}
	if err := es.mailer.Send(toEmail, subject, htmlContent); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	es.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("Email sent")
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, token string) error {
	subject := "Verify Your Email"
	verificationLink := fmt.Sprintf("%s/verify?token=%s", es.baseURL, url.QueryEscape(token))
	htmlContent := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		verificationLink,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order *models.Order) error {
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your order! Your order (ID: %s) has been placed and will be delivered to <strong>%s</strong>.<br><br>Total Amount: <strong>৳%s</strong><br><br>Thank you for ordering with us!",
		order.ID.Hex(),
		html.EscapeString(order.DeliveryAddress),
		order.TotalAmount.String(),
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderStatusEmail tells the customer their order moved to a new status.
func (es *EmailService) SendOrderStatusEmail(toEmail, name string, order *models.Order) error {
	subject := "Order Status Updated"
	htmlContent := fmt.Sprintf(
		"Dear %s,<br><br>Your order (ID: %s) is now <strong>%s</strong>.<br><br>Thank you for ordering with us!",
		html.EscapeString(name),
		order.ID.Hex(),
		order.Status,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
