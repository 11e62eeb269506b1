package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/mq"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

// NotificationWorkflow consumes notificacoes_queue and mails the guest.
type NotificationWorkflow struct {
	notificationService domain.NotificationService
	consumer            *mq.Consumer
	logger              *zap.Logger
}

func NewNotificationWorkflow(notificationService domain.NotificationService, mqClient *mq.Client, cfg mq.ConsumerConfig, logger *zap.Logger) *NotificationWorkflow {
	w := &NotificationWorkflow{
		notificationService: notificationService,
		logger:              logger.Named("notification_workflow"),
	}
	cfg.Queue = mq.NotificationsQueue
	w.consumer = mq.NewConsumer(mqClient, cfg, mq.JSONHandler(w.Handle), logger)
	return w
}

func (w *NotificationWorkflow) Run(ctx context.Context) error {
	return w.consumer.Run(ctx)
}

func (w *NotificationWorkflow) State() mq.State {
	return w.consumer.State()
}

func (w *NotificationWorkflow) Handle(ctx context.Context, ev mq.ReservationEvent) error {
	if ev.ReservationID == 0 || ev.UserEmail == "" {
		return mq.Permanent(fmt.Errorf("%w: event without reservation id or email", service.ErrInvalidInput))
	}

	sent, err := w.notificationService.SendConfirmation(ctx, domain.Confirmation{
		ReservationID:  ev.ReservationID,
		HotelName:      ev.HotelName,
		UserName:       ev.UserName,
		UserEmail:      ev.UserEmail,
		CheckInDate:    ev.CheckInDate,
		CheckOutDate:   ev.CheckOutDate,
		StayLengthDays: ev.StayLengthDays,
		TotalAmount:    ev.TotalAmount,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return mq.Permanent(err)
		}
		return err
	}

	if sent {
		w.logger.Info("confirmation sent",
			zap.Uint("reservation_id", ev.ReservationID),
			zap.String("to", ev.UserEmail))
	} else {
		w.logger.Info("confirmation already sent, skipping", zap.Uint("reservation_id", ev.ReservationID))
	}
	return nil
}
