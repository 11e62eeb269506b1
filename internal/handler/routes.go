package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/app"
	"github.com/Thiagobarros01/hotel-reservation/internal/logger"
)

// NewRouter registers the routes of every role the app serves.
func NewRouter(a *app.App, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log.Named("http")))

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   a.Config.Service,
			"consumers": a.ConsumerStates(),
		})
	})

	if a.HotelService != nil {
		h := NewHotelHandler(a.HotelService)
		r.POST("/hoteis", h.HandleCreate)
		r.GET("/hoteis", h.HandleList)
		r.GET("/hoteis/:id", h.HandleGet)
	}
	if a.AddressService != nil {
		h := NewAddressHandler(a.AddressService)
		r.GET("/enderecos/:cep", h.HandleLookup)
	}
	if a.ReservationWorkflow != nil {
		h := NewReservationHandler(a.ReservationWorkflow, a.ReservationService)
		r.POST("/reservas", h.HandleReserve)
		r.GET("/reservas", h.HandleList)
		r.GET("/reservas/:id", h.HandleGet)
	}
	if a.PaymentService != nil {
		h := NewPaymentHandler(a.PaymentService)
		r.GET("/pagamentos", h.HandleList)
		r.GET("/pagamentos/reserva/:id", h.HandleGetByReservation)
	}

	return r
}
