package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

type HotelRepo interface {
	WithTx(tx *gorm.DB) HotelRepo
	Create(ctx context.Context, hotel *model.Hotel) error
	GetByID(ctx context.Context, id uint) (*model.Hotel, error)
	ListAll(ctx context.Context) ([]model.Hotel, error)
}

type hotelRepoGorm struct {
	db *gorm.DB
}

var _ HotelRepo = (*hotelRepoGorm)(nil)

func NewHotelRepoGorm(db *gorm.DB) *hotelRepoGorm {
	return &hotelRepoGorm{
		db: db,
	}
}

func (r *hotelRepoGorm) WithTx(tx *gorm.DB) HotelRepo {
	return &hotelRepoGorm{
		db: tx,
	}
}

func (r *hotelRepoGorm) Create(ctx context.Context, hotel *model.Hotel) error {
	return gorm.G[model.Hotel](r.db).Create(ctx, hotel)
}

func (r *hotelRepoGorm) GetByID(ctx context.Context, id uint) (*model.Hotel, error) {
	hotel, err := gorm.G[model.Hotel](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (r *hotelRepoGorm) ListAll(ctx context.Context) ([]model.Hotel, error) {
	return gorm.G[model.Hotel](r.db).Order("id").Find(ctx)
}
