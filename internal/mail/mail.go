package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/config"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers one message and reports whether it was accepted.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg config.MailConfig, log *zap.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogMailer(log), nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.From), nil
	case "mailersend":
		if cfg.MailerSendAPIKey == "" {
			return nil, fmt.Errorf("MAIL_DRIVER=mailersend requires MAILERSEND_API_KEY")
		}
		return NewMailerSend(cfg.MailerSendAPIKey, cfg.FromName, cfg.From, log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// LogMailer only logs messages. Used in development.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log.Named("mail")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("email not sent, log driver active",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
