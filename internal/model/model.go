package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Hotel struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:128;not null;index" json:"name"`
	Location       string          `gorm:"size:255" json:"location"`
	RoomsAvailable int             `gorm:"not null;default:0" json:"rooms_available"`
	DailyRate      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"daily_rate"`
}

type Reservation struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	HotelID        uint            `gorm:"not null;index" json:"hotel_id"`
	UserName       string          `gorm:"size:128;not null" json:"user_name"`
	UserEmail      string          `gorm:"size:255;not null" json:"user_email"`
	CEP            string          `gorm:"size:9" json:"cep"`
	CheckInDate    time.Time       `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate   time.Time       `gorm:"type:date;not null" json:"check_out_date"`
	StayLengthDays int             `gorm:"not null" json:"stay_length_days"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Payment is written once per reservation; the unique index on
// ReservationID backs the idempotency check done by the payment service.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	PaymentID     string          `gorm:"size:36;not null;uniqueIndex" json:"payment_id"`
	ReservationID uint            `gorm:"not null;uniqueIndex" json:"reservation_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"type:varchar(16);not null" json:"status"`
	GatewayRef    string          `gorm:"size:128" json:"gateway_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "Approved"
	PaymentFailed   PaymentStatus = "Failed"
)

// OutboxEvent holds a serialized saga event until the relay has handed it
// to the broker.
type OutboxEvent struct {
	ID            uint   `gorm:"primaryKey"`
	ReservationID uint   `gorm:"not null;index"`
	Queue         string `gorm:"size:128;not null"`
	Payload       []byte `gorm:"type:jsonb;not null"`
	Attempts      int    `gorm:"not null;default:0"`
	LastError     string `gorm:"type:text"`
	CreatedAt     time.Time
	PublishedAt   *time.Time `gorm:"index"`
}
