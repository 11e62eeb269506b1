package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

type HotelService interface {
	CreateHotel(ctx context.Context, hotel *model.Hotel) error
	GetHotelByID(ctx context.Context, id uint) (*model.Hotel, error)
	GetAllHotels(ctx context.Context) ([]model.Hotel, error)
}

type hotelService struct {
	repo repository.HotelRepo
}

var _ HotelService = (*hotelService)(nil)

func NewHotelService(hotelRepo repository.HotelRepo) *hotelService {
	return &hotelService{
		repo: hotelRepo,
	}
}

func (s *hotelService) CreateHotel(ctx context.Context, hotel *model.Hotel) error {
	hotel.Name = strings.TrimSpace(hotel.Name)
	if hotel.Name == "" {
		return fmt.Errorf("%w: hotel name is required", service.ErrInvalidInput)
	}
	if !hotel.DailyRate.IsPositive() {
		return fmt.Errorf("%w: daily rate must be positive", service.ErrInvalidInput)
	}
	if hotel.RoomsAvailable < 0 {
		return fmt.Errorf("%w: rooms available can't be negative", service.ErrInvalidInput)
	}
	hotel.ID = 0
	if err := s.repo.Create(ctx, hotel); err != nil {
		return err
	}
	return nil
}

func (s *hotelService) GetHotelByID(ctx context.Context, id uint) (*model.Hotel, error) {
	hotel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return hotel, nil
}

func (s *hotelService) GetAllHotels(ctx context.Context) ([]model.Hotel, error) {
	hotels, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return hotels, nil
}
