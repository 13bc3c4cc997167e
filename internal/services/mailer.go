package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// MailerService sends campaign alert mails over plain SMTP. Configuration
// comes from the environment; when incomplete, SendAlert returns an error
// and the caller falls back to logging only.
type MailerService struct{}

func NewMailerService() *MailerService {
	return &MailerService{}
}

func (s *MailerService) SendAlert(to []string, subject string, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("EMAIL_FROM")
	fromName := os.Getenv("EMAIL_FROM_NAME")

	if host == "" || username == "" || password == "" {
		return fmt.Errorf("SMTP configuration missing")
	}

	if port == "" {
		port = "587"
	}
	if from == "" {
		from = username
	}
	if fromName == "" {
		fromName = "CyberKPI"
	}

	auth := smtp.PlainAuth("", username, password, host)

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", fromName, from),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", host, port)
	if err := smtp.SendMail(addr, auth, from, to, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}

	return nil
}
