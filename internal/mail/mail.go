// Package mail delivers transactional email. The Mailer chosen at startup
// either sends over SMTP, hands the message to the RabbitMQ mail queue for
// the mail-worker command, or just logs it in development.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/queue"
)

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New builds the Mailer selected by cfg.Transport.
func New(cfg config.MailConfig, rabbitURL string) (Mailer, error) {
	switch strings.ToLower(cfg.Transport) {
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "queue":
		return &QueueMailer{Pub: queue.NewPublisher(rabbitURL)}, nil
	case "log", "":
		return LogMailer{}, nil
	default:
		return nil, fmt.Errorf("mail: unknown transport %q", cfg.Transport)
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Int("html_bytes", len(m.HTML)).Msg("mail: not sent (log transport)")
	return nil
}

// QueueMailer publishes messages as queue.MailJob.
type QueueMailer struct {
	Pub *queue.Publisher
}

func (q *QueueMailer) Send(ctx context.Context, m Message) error {
	if err := q.Pub.PublishMail(ctx, queue.MailJob{To: m.To, Subject: m.Subject, HTML: m.HTML}); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}
