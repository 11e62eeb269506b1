package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

type AddressHandler struct {
	addresses domain.AddressService
}

func NewAddressHandler(addresses domain.AddressService) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
	}
}

func (h *AddressHandler) HandleLookup(ctx *gin.Context) {
	addr, err := h.addresses.Lookup(ctx.Request.Context(), ctx.Param("cep"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, addr)
}
