package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/gateway"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

type PaymentRequest struct {
	ReservationID uint
	Amount        decimal.Decimal
	CustomerEmail string
}

type PaymentService interface {
	// Process records the payment outcome for a reservation. It is
	// idempotent on ReservationID: a repeated call returns the stored
	// record and created=false.
	Process(ctx context.Context, req PaymentRequest) (payment *model.Payment, created bool, err error)
	GetByReservationID(ctx context.Context, reservationID uint) (*model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
}

type paymentService struct {
	repo    repository.PaymentRepo
	decider gateway.Decider
	logger  *zap.Logger
}

var _ PaymentService = (*paymentService)(nil)

func NewPaymentService(paymentRepo repository.PaymentRepo, decider gateway.Decider, logger *zap.Logger) *paymentService {
	return &paymentService{
		repo:    paymentRepo,
		decider: decider,
		logger:  logger.Named("payment_service"),
	}
}

func (s *paymentService) Process(ctx context.Context, req PaymentRequest) (*model.Payment, bool, error) {
	if req.ReservationID == 0 {
		return nil, false, fmt.Errorf("%w: reservation id is required", service.ErrInvalidInput)
	}
	// a missing total decodes as zero and must not be settled
	if !req.Amount.IsPositive() {
		return nil, false, fmt.Errorf("%w: amount must be positive, got %s", service.ErrInvalidInput, req.Amount.StringFixed(2))
	}

	exists, err := s.repo.ExistsByReservationID(ctx, req.ReservationID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		payment, err := s.repo.GetByReservationID(ctx, req.ReservationID)
		if err != nil {
			return nil, false, err
		}
		return payment, false, nil
	}

	decision, err := s.decider.Decide(ctx, gateway.Charge{
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return nil, false, fmt.Errorf("payment decision for reservation %d: %w", req.ReservationID, err)
	}

	payment := &model.Payment{
		PaymentID:     uuid.NewString(),
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Status:        decision.Status,
		GatewayRef:    decision.Reference,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		// lost a race with a concurrent delivery of the same event
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Info("payment already recorded by a concurrent delivery", zap.Uint("reservation_id", req.ReservationID))
			existing, getErr := s.repo.GetByReservationID(ctx, req.ReservationID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return payment, true, nil
}

func (s *paymentService) GetByReservationID(ctx context.Context, reservationID uint) (*model.Payment, error) {
	payment, err := s.repo.GetByReservationID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) ListAll(ctx context.Context) ([]model.Payment, error) {
	return s.repo.ListAll(ctx)
}
