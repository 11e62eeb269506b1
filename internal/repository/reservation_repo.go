package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

type ReservationRepo interface {
	WithTx(tx *gorm.DB) ReservationRepo
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	GetByHotelID(ctx context.Context, hotelID uint) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
}

type reservationRepoGorm struct {
	db *gorm.DB
}

var _ ReservationRepo = (*reservationRepoGorm)(nil)

func NewReservationRepoGorm(db *gorm.DB) *reservationRepoGorm {
	return &reservationRepoGorm{
		db: db,
	}
}

func (r *reservationRepoGorm) WithTx(tx *gorm.DB) ReservationRepo {
	return &reservationRepoGorm{
		db: tx,
	}
}

func (r *reservationRepoGorm) Create(ctx context.Context, reservation *model.Reservation) error {
	return gorm.G[model.Reservation](r.db).Create(ctx, reservation)
}

func (r *reservationRepoGorm) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	reservation, err := gorm.G[model.Reservation](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepoGorm) GetByHotelID(ctx context.Context, hotelID uint) ([]model.Reservation, error) {
	return gorm.G[model.Reservation](r.db).Where("hotel_id = ?", hotelID).Order("id").Find(ctx)
}

func (r *reservationRepoGorm) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return gorm.G[model.Reservation](r.db).Order("id").Find(ctx)
}
