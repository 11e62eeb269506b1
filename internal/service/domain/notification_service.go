package domain

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/mail"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

const ConfirmationSubject = "Reserva Confirmada!"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`Olá {{.UserName}},

Reserva confirmada!
{{if .HotelName}}Hotel: {{.HotelName}}
{{end}}Período: {{.CheckInDate}} até {{.CheckOutDate}} ({{.StayLengthDays}} diárias)
Valor: R$ {{.Amount}}

Obrigado!
`))

// Confirmation carries what the guest is told about a reservation.
type Confirmation struct {
	ReservationID  uint
	HotelName      string
	UserName       string
	UserEmail      string
	CheckInDate    string
	CheckOutDate   string
	StayLengthDays int
	TotalAmount    decimal.Decimal
}

// SentMarkers remembers which reservations were already confirmed.
type SentMarkers interface {
	WasNotified(ctx context.Context, reservationID uint) (bool, error)
	MarkNotified(ctx context.Context, reservationID uint, ttl time.Duration) error
}

type NotificationService interface {
	// SendConfirmation mails the guest once per reservation. sent is false
	// when an earlier delivery already did it.
	SendConfirmation(ctx context.Context, c Confirmation) (sent bool, err error)
}

type notificationService struct {
	mailer  mail.Mailer
	markers SentMarkers
	ttl     time.Duration
	logger  *zap.Logger
}

var _ NotificationService = (*notificationService)(nil)

func NewNotificationService(mailer mail.Mailer, markers SentMarkers, dedupTTL time.Duration, logger *zap.Logger) *notificationService {
	return &notificationService{
		mailer:  mailer,
		markers: markers,
		ttl:     dedupTTL,
		logger:  logger.Named("notification_service"),
	}
}

func (s *notificationService) SendConfirmation(ctx context.Context, c Confirmation) (bool, error) {
	if c.ReservationID == 0 || strings.TrimSpace(c.UserEmail) == "" {
		return false, fmt.Errorf("%w: reservation id and user email are required", service.ErrInvalidInput)
	}

	already, err := s.markers.WasNotified(ctx, c.ReservationID)
	if err != nil {
		return false, fmt.Errorf("check sent marker: %w", err)
	}
	if already {
		return false, nil
	}

	body, err := RenderConfirmation(c)
	if err != nil {
		return false, err
	}
	if err := s.mailer.Send(ctx, mail.Message{
		To:      c.UserEmail,
		ToName:  c.UserName,
		Subject: ConfirmationSubject,
		Body:    body,
	}); err != nil {
		return false, err
	}

	// the mail is out; a lost marker only risks one duplicate on redelivery
	if err := s.markers.MarkNotified(ctx, c.ReservationID, s.ttl); err != nil {
		s.logger.Warn("failed to store sent marker",
			zap.Uint("reservation_id", c.ReservationID),
			zap.Error(err))
	}
	return true, nil
}

// RenderConfirmation renders the plain text confirmation body.
func RenderConfirmation(c Confirmation) (string, error) {
	var buf bytes.Buffer
	err := confirmationTemplate.Execute(&buf, struct {
		Confirmation
		Amount string
	}{
		Confirmation: c,
		Amount:       FormatBRL(c.TotalAmount),
	})
	if err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

// FormatBRL formats an amount with two decimals and a decimal comma.
func FormatBRL(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}
