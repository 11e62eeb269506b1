package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/gateway"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

var request42 = PaymentRequest{ReservationID: 42, Amount: decimal.RequireFromString("351.00"), CustomerEmail: "joao@example.com"}

func TestPaymentService_ProcessCreatesApprovedPayment(t *testing.T) {
	repo := &mockPaymentRepo{}
	repo.On("ExistsByReservationID", mock.Anything, uint(42)).Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil)
	s := NewPaymentService(repo, gateway.AlwaysApprove{}, zap.NewNop())

	p, created, err := s.Process(context.Background(), request42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(42), p.ReservationID)
	assert.Equal(t, model.PaymentApproved, p.Status)
	assert.Len(t, p.PaymentID, 36)
	assert.True(t, request42.Amount.Equal(p.Amount))
}

func TestPaymentService_ProcessIsIdempotent(t *testing.T) {
	existing := &model.Payment{PaymentID: "p-1", ReservationID: 42, Status: model.PaymentApproved}
	repo := &mockPaymentRepo{}
	repo.On("ExistsByReservationID", mock.Anything, uint(42)).Return(true, nil)
	repo.On("GetByReservationID", mock.Anything, uint(42)).Return(existing, nil)
	decider := &mockDecider{}
	s := NewPaymentService(repo, decider, zap.NewNop())

	p, created, err := s.Process(context.Background(), request42)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, p)
	decider.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessDuplicateRaceReturnsExisting(t *testing.T) {
	existing := &model.Payment{PaymentID: "p-1", ReservationID: 42, Status: model.PaymentApproved}
	repo := &mockPaymentRepo{}
	repo.On("ExistsByReservationID", mock.Anything, uint(42)).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
	repo.On("GetByReservationID", mock.Anything, uint(42)).Return(existing, nil)
	s := NewPaymentService(repo, gateway.AlwaysApprove{}, zap.NewNop())

	p, created, err := s.Process(context.Background(), request42)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "p-1", p.PaymentID)
}

func TestPaymentService_ProcessRecordsDecline(t *testing.T) {
	repo := &mockPaymentRepo{}
	repo.On("ExistsByReservationID", mock.Anything, uint(42)).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	decider := &mockDecider{}
	decider.On("Decide", mock.Anything, gateway.Charge{ReservationID: 42, Amount: request42.Amount, CustomerEmail: "joao@example.com"}).
		Return(gateway.Decision{Status: model.PaymentFailed, Reference: "card_declined"}, nil)
	s := NewPaymentService(repo, decider, zap.NewNop())

	p, created, err := s.Process(context.Background(), request42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.PaymentFailed, p.Status)
	assert.Equal(t, "card_declined", p.GatewayRef)
}

func TestPaymentService_ProcessDeciderErrorStoresNothing(t *testing.T) {
	repo := &mockPaymentRepo{}
	repo.On("ExistsByReservationID", mock.Anything, uint(42)).Return(false, nil)
	decider := &mockDecider{}
	boom := errors.New("gateway timeout")
	decider.On("Decide", mock.Anything, mock.Anything).Return(gateway.Decision{}, boom)
	s := NewPaymentService(repo, decider, zap.NewNop())

	_, _, err := s.Process(context.Background(), request42)
	assert.ErrorIs(t, err, boom)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessRejectsMissingReservation(t *testing.T) {
	s := NewPaymentService(&mockPaymentRepo{}, gateway.AlwaysApprove{}, zap.NewNop())
	_, _, err := s.Process(context.Background(), PaymentRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestPaymentService_ProcessRejectsNonPositiveAmount(t *testing.T) {
	repo := &mockPaymentRepo{}
	s := NewPaymentService(repo, gateway.AlwaysApprove{}, zap.NewNop())

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, _, err := s.Process(context.Background(), PaymentRequest{ReservationID: 9, Amount: amount})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	}
	repo.AssertNotCalled(t, "ExistsByReservationID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
