package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

// Reserver runs the reservation saga entry point.
type Reserver interface {
	Reserve(ctx context.Context, in domain.ReservationInput) (*model.Reservation, error)
}

type ReservationHandler struct {
	reserver     Reserver
	reservations domain.ReservationService
}

func NewReservationHandler(reserver Reserver, reservations domain.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		reserver:     reserver,
		reservations: reservations,
	}
}

type ReserveRequest struct {
	HotelID        uint   `json:"hotel_id" binding:"required"`
	UserName       string `json:"user_name" binding:"required"`
	UserEmail      string `json:"user_email" binding:"required,email"`
	CEP            string `json:"cep"`
	CheckInDate    string `json:"check_in_date" binding:"required"`
	CheckOutDate   string `json:"check_out_date" binding:"required"`
	StayLengthDays int    `json:"stay_length_days" binding:"omitempty,min=1"`
}

func (h *ReservationHandler) HandleReserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}
	checkIn, err := time.Parse(time.DateOnly, req.CheckInDate)
	if err != nil {
		bindError(ctx, err)
		return
	}
	checkOut, err := time.Parse(time.DateOnly, req.CheckOutDate)
	if err != nil {
		bindError(ctx, err)
		return
	}

	reservation, err := h.reserver.Reserve(ctx.Request.Context(), domain.ReservationInput{
		HotelID:        req.HotelID,
		UserName:       req.UserName,
		UserEmail:      req.UserEmail,
		CEP:            req.CEP,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		StayLengthDays: req.StayLengthDays,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reservation)
}

func (h *ReservationHandler) HandleGet(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	reservation, err := h.reservations.GetByID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandler) HandleList(ctx *gin.Context) {
	reservations, err := h.reservations.ListAll(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	ctx.JSON(http.StatusOK, reservations)
}
