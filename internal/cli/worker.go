package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/recipe-share/internal/mail"
	"github.com/iliyamo/recipe-share/internal/queue"
)

// WorkerOptions holds flags for the mail-worker command.
type WorkerOptions struct {
	*RootOptions
	Prefetch int
}

// NewMailWorkerCommand creates the mail-worker command, which drains the
// mail queue filled by MAIL_TRANSPORT=queue and sends each job over SMTP.
func NewMailWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mail-worker",
		Short: "Deliver queued email over SMTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Mail.SMTPHost == "" {
				return fmt.Errorf("mail-worker: SMTP_HOST is required")
			}
			consumer := &queue.MailConsumer{
				URL:      cfg.RabbitURL,
				Handle:   deliver(mail.NewSMTPMailer(cfg.Mail)),
				Prefetch: opts.Prefetch,
			}
			log.Info().Str("queue", queue.MailQueueName).Msg("mail worker started")
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("mail worker stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Prefetch, "prefetch", 10, "unacknowledged deliveries held at once")
	return cmd
}

// deliver adapts a Mailer to the queue consumer.
func deliver(m mail.Mailer) queue.MailHandler {
	return func(ctx context.Context, job queue.MailJob) error {
		return m.Send(ctx, mail.Message{To: job.To, Subject: job.Subject, HTML: job.HTML})
	}
}
