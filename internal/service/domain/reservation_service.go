package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

// ReservationInput is what a guest asks for. StayLengthDays may be left
// zero, it is then derived from the dates.
type ReservationInput struct {
	HotelID        uint
	UserName       string
	UserEmail      string
	CEP            string
	CheckInDate    time.Time
	CheckOutDate   time.Time
	StayLengthDays int
}

// EventBuilder turns a freshly inserted reservation into the outbox rows
// that must be committed with it.
type EventBuilder func(r *model.Reservation) ([]model.OutboxEvent, error)

type ReservationService interface {
	// Create persists r. With a non-nil build the reservation and its
	// outbox rows are written in one transaction.
	Create(ctx context.Context, r *model.Reservation, build EventBuilder) error
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
}

type reservationService struct {
	db     *gorm.DB
	repo   repository.ReservationRepo
	outbox repository.OutboxRepo
}

var _ ReservationService = (*reservationService)(nil)

func NewReservationService(db *gorm.DB, reservationRepo repository.ReservationRepo, outboxRepo repository.OutboxRepo) *reservationService {
	return &reservationService{
		db:     db,
		repo:   reservationRepo,
		outbox: outboxRepo,
	}
}

// ComputeTotal returns dailyRate × days without any rounding.
func ComputeTotal(dailyRate decimal.Decimal, days int) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(int64(days)))
}

// StayLength counts the nights between two dates, ignoring time of day.
func StayLength(checkIn, checkOut time.Time) int {
	in := truncateDate(checkIn)
	out := truncateDate(checkOut)
	return int(out.Sub(in).Hours() / 24)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayDays validates in and returns the number of days to charge. The
// stay length is derived from the dates when omitted. Unlike the legacy
// reservation API, which took dias_permanencia as an independent value, a
// stay length that disagrees with the dates is rejected.
func (in ReservationInput) StayDays() (int, error) {
	if in.HotelID == 0 {
		return 0, fmt.Errorf("%w: hotel id is required", service.ErrInvalidInput)
	}
	if strings.TrimSpace(in.UserName) == "" || strings.TrimSpace(in.UserEmail) == "" {
		return 0, fmt.Errorf("%w: user name and email are required", service.ErrInvalidInput)
	}
	if in.CheckInDate.IsZero() || in.CheckOutDate.IsZero() {
		return 0, fmt.Errorf("%w: check-in and check-out dates are required", service.ErrInvalidInput)
	}

	nights := StayLength(in.CheckInDate, in.CheckOutDate)
	if nights <= 0 {
		return 0, fmt.Errorf("%w: check-out must be after check-in", service.ErrInvalidInput)
	}
	switch days := in.StayLengthDays; {
	case days == 0:
		return nights, nil
	case days < 0:
		return 0, fmt.Errorf("%w: stay length must be positive", service.ErrInvalidInput)
	case days != nights:
		return 0, fmt.Errorf("%w: stay length %d doesn't match the %d nights between the dates", service.ErrInvalidInput, days, nights)
	default:
		return days, nil
	}
}

// BuildReservation validates in and prices it at dailyRate. The returned
// reservation is not persisted.
func BuildReservation(in ReservationInput, dailyRate decimal.Decimal) (*model.Reservation, error) {
	days, err := in.StayDays()
	if err != nil {
		return nil, err
	}

	return &model.Reservation{
		HotelID:        in.HotelID,
		UserName:       strings.TrimSpace(in.UserName),
		UserEmail:      strings.TrimSpace(in.UserEmail),
		CEP:            in.CEP,
		CheckInDate:    truncateDate(in.CheckInDate),
		CheckOutDate:   truncateDate(in.CheckOutDate),
		StayLengthDays: days,
		TotalAmount:    ComputeTotal(dailyRate, days),
	}, nil
}

func (s *reservationService) Create(ctx context.Context, r *model.Reservation, build EventBuilder) error {
	if build == nil {
		return s.repo.Create(ctx, r)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, r); err != nil {
			return err
		}
		events, err := build(r)
		if err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Create(ctx, events)
	})
}

func (s *reservationService) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return s.repo.ListAll(ctx)
}
