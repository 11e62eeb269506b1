package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

// writeError maps service errors to status codes. Anything unexpected is a
// 500 and is attached to the context for the request log.
func writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid request",
			"detail": err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":  "Not found",
			"detail": err.Error(),
		})
	case errors.Is(err, service.ErrServiceUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Service unavailable",
			"message": "A dependency is unavailable, please try again later",
		})
	default:
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to process request, please try again later",
		})
	}
}

func bindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":  "Invalid request format",
		"detail": err.Error(),
	})
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid request format",
			"detail": name + " must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}
