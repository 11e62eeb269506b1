package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/client"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/mq"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

const defaultPublishTimeout = 5 * time.Second

// EventPublisher publishes one message to one queue.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, message any) error
}

// ReservationWorkflow creates reservations and hands them to the payment
// and notification services.
type ReservationWorkflow struct {
	reservationService domain.ReservationService
	hotels             client.HotelLookup
	publisher          EventPublisher
	useOutbox          bool
	publishTimeout     time.Duration
	logger             *zap.Logger
}

// NewReservationWorkflow wires the saga entry point. With useOutbox the
// events are written next to the reservation and publisher may be nil.
func NewReservationWorkflow(reservationService domain.ReservationService, hotels client.HotelLookup, publisher EventPublisher, useOutbox bool, logger *zap.Logger) *ReservationWorkflow {
	return &ReservationWorkflow{
		reservationService: reservationService,
		hotels:             hotels,
		publisher:          publisher,
		useOutbox:          useOutbox,
		publishTimeout:     defaultPublishTimeout,
		logger:             logger.Named("reservation_workflow"),
	}
}

// Reserve looks the hotel up, prices and stores the reservation, then fans
// one ReservationEvent out to every saga queue. An unknown or unreachable
// hotel stores nothing. The stored reservation is returned even if the
// fan-out fails.
func (w *ReservationWorkflow) Reserve(ctx context.Context, in domain.ReservationInput) (*model.Reservation, error) {
	if _, err := in.StayDays(); err != nil {
		return nil, err
	}

	hotel, err := w.hotels.GetHotel(ctx, in.HotelID)
	if err != nil {
		return nil, err
	}

	reservation, err := domain.BuildReservation(in, hotel.DailyRate)
	if err != nil {
		return nil, err
	}

	if w.useOutbox {
		if err := w.reservationService.Create(ctx, reservation, outboxEvents(hotel.Name)); err != nil {
			return nil, err
		}
		return reservation, nil
	}

	if err := w.reservationService.Create(ctx, reservation, nil); err != nil {
		return nil, err
	}
	w.fanOut(ctx, mq.NewReservationEvent(reservation, hotel.Name))
	return reservation, nil
}

// fanOut publishes ev to every saga queue independently. Failures are only
// logged; the reservation already exists.
func (w *ReservationWorkflow) fanOut(ctx context.Context, ev mq.ReservationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.publishTimeout)
	defer cancel()

	for _, queueName := range mq.SagaQueues {
		if err := w.publisher.Publish(ctx, queueName, ev); err != nil {
			w.logger.Error("failed to publish reservation event",
				zap.Uint("reservation_id", ev.ReservationID),
				zap.String("queue", queueName),
				zap.Error(err))
			continue
		}
		w.logger.Info("reservation event published",
			zap.Uint("reservation_id", ev.ReservationID),
			zap.String("queue", queueName))
	}
}

func outboxEvents(hotelName string) domain.EventBuilder {
	return func(r *model.Reservation) ([]model.OutboxEvent, error) {
		body, err := json.Marshal(mq.NewReservationEvent(r, hotelName))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reservation event: %w", err)
		}
		events := make([]model.OutboxEvent, 0, len(mq.SagaQueues))
		for _, queueName := range mq.SagaQueues {
			events = append(events, model.OutboxEvent{
				ReservationID: r.ID,
				Queue:         queueName,
				Payload:       body,
			})
		}
		return events, nil
	}
}
