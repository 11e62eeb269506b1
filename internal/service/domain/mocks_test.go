package domain

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/client"
	"github.com/Thiagobarros01/hotel-reservation/internal/gateway"
	"github.com/Thiagobarros01/hotel-reservation/internal/mail"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
)

type mockHotelRepo struct{ mock.Mock }

func (m *mockHotelRepo) WithTx(*gorm.DB) repository.HotelRepo { return m }

func (m *mockHotelRepo) Create(ctx context.Context, hotel *model.Hotel) error {
	return m.Called(ctx, hotel).Error(0)
}

func (m *mockHotelRepo) GetByID(ctx context.Context, id uint) (*model.Hotel, error) {
	args := m.Called(ctx, id)
	hotel, _ := args.Get(0).(*model.Hotel)
	return hotel, args.Error(1)
}

func (m *mockHotelRepo) ListAll(ctx context.Context) ([]model.Hotel, error) {
	args := m.Called(ctx)
	hotels, _ := args.Get(0).([]model.Hotel)
	return hotels, args.Error(1)
}

type mockReservationRepo struct{ mock.Mock }

func (m *mockReservationRepo) WithTx(*gorm.DB) repository.ReservationRepo { return m }

func (m *mockReservationRepo) Create(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*model.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationRepo) GetByHotelID(ctx context.Context, hotelID uint) ([]model.Reservation, error) {
	args := m.Called(ctx, hotelID)
	rs, _ := args.Get(0).([]model.Reservation)
	return rs, args.Error(1)
}

func (m *mockReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	args := m.Called(ctx)
	rs, _ := args.Get(0).([]model.Reservation)
	return rs, args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) WithTx(*gorm.DB) repository.PaymentRepo { return m }

func (m *mockPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentRepo) ExistsByReservationID(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) GetByReservationID(ctx context.Context, id uint) (*model.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentRepo) ListAll(ctx context.Context) ([]model.Payment, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]model.Payment)
	return ps, args.Error(1)
}

type mockDecider struct{ mock.Mock }

func (m *mockDecider) Decide(ctx context.Context, c gateway.Charge) (gateway.Decision, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(gateway.Decision), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockMarkers struct{ mock.Mock }

func (m *mockMarkers) WasNotified(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockMarkers) MarkNotified(ctx context.Context, id uint, ttl time.Duration) error {
	return m.Called(ctx, id, ttl).Error(0)
}

type mockAddressLookup struct{ mock.Mock }

func (m *mockAddressLookup) Lookup(ctx context.Context, cep string) (*client.Address, error) {
	args := m.Called(ctx, cep)
	a, _ := args.Get(0).(*client.Address)
	return a, args.Error(1)
}

type mockAddressCache struct{ mock.Mock }

func (m *mockAddressCache) Get(ctx context.Context, key string, dest any) error {
	args := m.Called(ctx, key, dest)
	if fill, ok := args.Get(1).(func(any)); ok && fill != nil {
		fill(dest)
	}
	return args.Error(0)
}

func (m *mockAddressCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	return m.Called(ctx, key, value, exp).Error(0)
}
