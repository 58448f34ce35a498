package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/iliyamo/recipe-share/internal/config"
)

// SMTPMailer sends through an SMTP server. With Implicit set the connection
// is TLS from the first byte (port 465); otherwise STARTTLS is used when
// the server offers it.
type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	From     string
	Implicit bool
	Timeout  time.Duration
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.FromName,
		From:     cfg.FromEmail,
		Implicit: cfg.SMTPTLS,
		Timeout:  10 * time.Second,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if s.Host == "" || s.From == "" {
		return errors.New("smtp: host and sender are required")
	}
	msg, err := s.buildMessage(m, time.Now())
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *SMTPMailer) options() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(s.Port)}
	if s.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.Timeout))
	}
	if s.Implicit {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if s.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthAutoDiscover),
			gomail.WithUsername(s.User),
			gomail.WithPassword(s.Pass),
		)
	}
	return opts
}

// buildMessage renders an HTML message. The body is quoted-printable so
// long template lines stay within the SMTP line limit.
func (s *SMTPMailer) buildMessage(m Message, now time.Time) (*gomail.Msg, error) {
	msg := gomail.NewMsg(gomail.WithEncoding(gomail.EncodingQP))
	from := msg.From
	if s.FromName != "" {
		from = func(addr string) error { return msg.FromFormat(s.FromName, addr) }
	}
	if err := from(s.From); err != nil {
		return nil, fmt.Errorf("smtp: sender: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("smtp: recipient: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetDateWithValue(now)
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}
