package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

type PaymentHandler struct {
	payments domain.PaymentService
}

func NewPaymentHandler(payments domain.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
	}
}

func (h *PaymentHandler) HandleList(ctx *gin.Context) {
	payments, err := h.payments.ListAll(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	ctx.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) HandleGetByReservation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetByReservationID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, payment)
}
