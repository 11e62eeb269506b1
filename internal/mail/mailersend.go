package mail

import (
	"context"
	"fmt"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"
)

type MailerSend struct {
	client    *mailersend.Mailersend
	fromName  string
	fromEmail string
	logger    *zap.Logger
}

func NewMailerSend(apiKey, fromName, fromEmail string, log *zap.Logger) *MailerSend {
	return &MailerSend{
		client:    mailersend.NewMailersend(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		logger:    log.Named("mailersend"),
	}
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Name:  m.fromName,
		Email: m.fromEmail,
	})
	message.SetRecipients([]mailersend.Recipient{
		{
			Name:  msg.ToName,
			Email: msg.To,
		},
	})
	message.SetSubject(msg.Subject)
	message.SetText(msg.Body)

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Debug("email accepted", zap.String("message_id", res.Header.Get("X-Message-Id")))
	return nil
}
