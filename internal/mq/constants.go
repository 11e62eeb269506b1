package mq

import (
	"github.com/shopspring/decimal"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

// Queue names and message definitions

// queues fed by the reservation service, one event fanned out to both
const (
	PaymentsQueue      = "pagamentos_queue"
	NotificationsQueue = "notificacoes_queue"
)

// SagaQueues lists every work queue the reservation service publishes to.
var SagaQueues = []string{PaymentsQueue, NotificationsQueue}

// dead-letter topology: every work queue dead-letters into
// DeadLetterExchange with routing key "<queue>.dlq", bound to a queue of the
// same name
const (
	DeadLetterExchange = "saga.dlx"
	DeadLetterSuffix   = ".dlq"
)

func DeadLetterQueue(queueName string) string {
	return queueName + DeadLetterSuffix
}

// RetryCountHeader carries how many times a message was republished after a
// handler failure.
const RetryCountHeader = "x-retry-count"

const DateLayout = "2006-01-02"

// ReservationEvent is produced once per persisted reservation and consumed
// read-only by the payment and notification services.
type ReservationEvent struct {
	ReservationID  uint            `json:"reservation_id"`
	HotelID        uint            `json:"hotel_id"`
	HotelName      string          `json:"hotel_name"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	CheckInDate    string          `json:"check_in_date"`
	CheckOutDate   string          `json:"check_out_date"`
	StayLengthDays int             `json:"stay_length_days"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

func NewReservationEvent(r *model.Reservation, hotelName string) ReservationEvent {
	return ReservationEvent{
		ReservationID:  r.ID,
		HotelID:        r.HotelID,
		HotelName:      hotelName,
		UserName:       r.UserName,
		UserEmail:      r.UserEmail,
		CheckInDate:    r.CheckInDate.Format(DateLayout),
		CheckOutDate:   r.CheckOutDate.Format(DateLayout),
		StayLengthDays: r.StayLengthDays,
		TotalAmount:    r.TotalAmount,
	}
}
