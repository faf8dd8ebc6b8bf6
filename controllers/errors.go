package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/services"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and answered with a generic 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		validation *services.ValidationError
		duplicate  *services.DuplicatePayerError
		gateway    *services.GatewayUnavailableError
		mismatch   *services.SignatureMismatchError
		notFound   *services.RecordNotFoundError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validation.Fields})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": duplicate.Error(), "code": "duplicate_payer"})
	case errors.As(err, &gateway):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, please try again", "orderId": gateway.OrderID})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment signature verification failed"})
	case errors.As(err, &notFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, services.ErrAlreadyIssued):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
