// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/gatherhall/events-service/internal/domain"
	"github.com/gatherhall/events-service/internal/logging"
)

// SMTPConfig holds the SMTP server configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string // Optional for authenticated SMTP
	Password string // Optional for authenticated SMTP
}

// SMTPService implements the EmailService interface using SMTP.
type SMTPService struct {
	config SMTPConfig
}

// NewSMTPService creates a new SMTP email service.
func NewSMTPService(config SMTPConfig) *SMTPService {
	return &SMTPService{config: config}
}

// SendDigest sends one rendered digest email to one recipient.
func (s *SMTPService) SendDigest(ctx context.Context, digest domain.EmailDigest) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", digest.RecipientEmail))

	message := buildEmailMessage(digest.RecipientEmail, digest.Subject, digest.HTMLContent, digest.TextContent, s.config)
	if err := sendEmailMessage(digest.RecipientEmail, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send digest email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "digest email sent successfully")
	return nil
}

// buildEmailMessage builds the complete email message with headers and multipart content.
func buildEmailMessage(recipient, subject, htmlContent, textContent string, config SMTPConfig) string {
	boundary := "===============1234567890123456789=="

	var message strings.Builder

	// Email headers
	message.WriteString(fmt.Sprintf("From: %s\r\n", config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	message.WriteString("\r\n")

	// Plain text part
	message.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	message.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(textContent)
	message.WriteString("\r\n")

	// HTML part
	message.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	message.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(htmlContent)
	message.WriteString("\r\n")

	// End boundary
	message.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return message.String()
}

// sendEmailMessage sends a pre-built email message via SMTP.
func sendEmailMessage(recipient, message string, config SMTPConfig) error {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	err := smtp.SendMail(addr, auth, config.From, []string{recipient}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// NoOpService is a no-operation email service that logs but doesn't send emails.
type NoOpService struct{}

// NewNoOpService creates a new no-op email service.
func NewNoOpService() *NoOpService {
	return &NoOpService{}
}

// SendDigest logs the digest but doesn't send an email.
func (s *NoOpService) SendDigest(ctx context.Context, digest domain.EmailDigest) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", digest.RecipientEmail))

	slog.DebugContext(ctx, "email service disabled, skipping digest email")
	return nil
}

var (
	_ domain.EmailService = (*SMTPService)(nil)
	_ domain.EmailService = (*NoOpService)(nil)
)
