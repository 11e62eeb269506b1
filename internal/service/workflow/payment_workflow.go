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

// PaymentWorkflow consumes pagamentos_queue and records one payment per
// reservation.
type PaymentWorkflow struct {
	paymentService domain.PaymentService
	consumer       *mq.Consumer
	logger         *zap.Logger
}

func NewPaymentWorkflow(paymentService domain.PaymentService, mqClient *mq.Client, cfg mq.ConsumerConfig, logger *zap.Logger) *PaymentWorkflow {
	w := &PaymentWorkflow{
		paymentService: paymentService,
		logger:         logger.Named("payment_workflow"),
	}
	cfg.Queue = mq.PaymentsQueue
	w.consumer = mq.NewConsumer(mqClient, cfg, mq.JSONHandler(w.Handle), logger)
	return w
}

// Run consumes until ctx is cancelled.
func (w *PaymentWorkflow) Run(ctx context.Context) error {
	return w.consumer.Run(ctx)
}

func (w *PaymentWorkflow) State() mq.State {
	return w.consumer.State()
}

func (w *PaymentWorkflow) Handle(ctx context.Context, ev mq.ReservationEvent) error {
	if ev.ReservationID == 0 {
		return mq.Permanent(fmt.Errorf("%w: event without reservation id", service.ErrInvalidInput))
	}

	payment, created, err := w.paymentService.Process(ctx, domain.PaymentRequest{
		ReservationID: ev.ReservationID,
		Amount:        ev.TotalAmount,
		CustomerEmail: ev.UserEmail,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return mq.Permanent(err)
		}
		return err
	}

	if !created {
		w.logger.Info("payment already recorded, skipping",
			zap.Uint("reservation_id", ev.ReservationID),
			zap.String("payment_id", payment.PaymentID))
		return nil
	}
	w.logger.Info("payment recorded",
		zap.Uint("reservation_id", ev.ReservationID),
		zap.String("payment_id", payment.PaymentID),
		zap.String("status", string(payment.Status)),
		zap.String("amount", payment.Amount.StringFixed(2)))
	return nil
}
