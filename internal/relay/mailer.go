package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"arkana/internal/domain"
	u "arkana/internal/utils"
)

// Mailer delivers a composed email and returns the transport message id.
type Mailer interface {
	Send(ctx context.Context, e Email) (string, error)
}

// SMTPMailer sends through the configured SMTP server.
type SMTPMailer struct {
	cfg u.MailConfig
}

func NewSMTPMailer(cfg u.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// missing names the settings that keep the transport from working, using the
// environment variable names operators set.
func (m *SMTPMailer) missing() []string {
	var out []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	check("SMTP_HOST", m.cfg.SMTPHost)
	if m.cfg.SMTPPort == 0 {
		out = append(out, "SMTP_PORT")
	}
	check("SMTP_USER", m.cfg.SMTPUser)
	check("SMTP_PASS", m.cfg.SMTPPass)
	check("EMAIL_FROM", m.cfg.From)
	check("EMAIL_TO", m.cfg.To)
	return out
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) (string, error) {
	if missing := m.missing(); len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", domain.ErrMailNotConfigured, strings.Join(missing, ", "))
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return "", fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return "", fmt.Errorf("to address: %w", err)
	}
	if err := msg.ReplyTo(e.ReplyTo); err != nil {
		return "", fmt.Errorf("reply-to address: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, e.HTML)
	msg.SetMessageID()
	msg.SetDate()

	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.SMTPUser),
		mail.WithPassword(m.cfg.SMTPPass),
		mail.WithTimeout(m.timeout()),
	}
	if m.cfg.SMTPPort == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(m.cfg.SMTPHost, opts...)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	id := ""
	if ids := msg.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		id = ids[0]
	}
	return id, nil
}

func (m *SMTPMailer) timeout() time.Duration {
	if m.cfg.Timeout > 0 {
		return m.cfg.Timeout
	}
	return 30 * time.Second
}
