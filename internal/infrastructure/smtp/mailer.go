package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/servicelink-api/internal/config"
	"github.com/servicelink-api/internal/domain"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
	SendCode(to, name, purpose, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// SendCode delivers a one-time code with purpose-appropriate wording.
func (m *mailer) SendCode(to, name, purpose, code string) error {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	var subject, action string
	switch purpose {
	case domain.PurposePasswordReset:
		subject = "Your ServiceLink password reset code"
		action = "reset your password"
	case domain.PurposeEmailVerify:
		subject = "Verify your ServiceLink email address"
		action = "verify your email address"
	default:
		subject = "Your ServiceLink verification code"
		action = "continue"
	}
	body := fmt.Sprintf("%s,\n\nUse code %s to %s. The code expires in 10 minutes.\n\nIf you did not request this, you can ignore this email.", greeting, code, action)
	return m.SendEmail(to, subject, body)
}
