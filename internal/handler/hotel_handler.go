package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

type HotelHandler struct {
	hotels domain.HotelService
}

func NewHotelHandler(hotels domain.HotelService) *HotelHandler {
	return &HotelHandler{
		hotels: hotels,
	}
}

type CreateHotelRequest struct {
	Name           string          `json:"name" binding:"required"`
	Location       string          `json:"location"`
	RoomsAvailable int             `json:"rooms_available" binding:"min=0"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
}

func (h *HotelHandler) HandleCreate(ctx *gin.Context) {
	var req CreateHotelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	hotel := &model.Hotel{
		Name:           req.Name,
		Location:       req.Location,
		RoomsAvailable: req.RoomsAvailable,
		DailyRate:      req.DailyRate,
	}
	if err := h.hotels.CreateHotel(ctx.Request.Context(), hotel); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, hotel)
}

func (h *HotelHandler) HandleGet(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	hotel, err := h.hotels.GetHotelByID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, hotel)
}

func (h *HotelHandler) HandleList(ctx *gin.Context) {
	hotels, err := h.hotels.GetAllHotels(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	if hotels == nil {
		hotels = []model.Hotel{}
	}
	ctx.JSON(http.StatusOK, hotels)
}
