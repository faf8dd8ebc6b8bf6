package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/services"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody         = 1 << 20
)

type PaymentLifecycle interface {
	CompletePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*services.CompletionResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*services.CompletionResult, error)
}

type PaymentController struct {
	lifecycle PaymentLifecycle
	logger    *slog.Logger
}

func NewPaymentController(lifecycle PaymentLifecycle, logger *slog.Logger) *PaymentController {
	return &PaymentController{lifecycle: lifecycle, logger: logger}
}

type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// POST /orders/verify
//
// The response reflects only the state transition; receipts and mail run
// afterwards and cannot change it.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var input VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gatewayOrderId, gatewayPaymentId and signature are required"})
		return
	}

	res, err := pc.lifecycle.CompletePayment(c.Request.Context(), input.GatewayOrderID, input.GatewayPaymentID, input.Signature)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   res.Status,
		"recordId": res.Order.ID,
	})
}

// POST /webhooks/gateway
func (pc *PaymentController) GatewayWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	res, err := pc.lifecycle.HandleWebhook(c.Request.Context(), body, c.GetHeader(webhookSignatureHeader))
	var notFound *services.RecordNotFoundError
	switch {
	case errors.As(err, &notFound):
		// not ours (or already purged); a non-2xx would only make the gateway retry
		pc.logger.Warn("webhook for unknown gateway order", "gateway_order_id", notFound.GatewayOrderID)
		c.JSON(http.StatusOK, gin.H{"status": services.StatusIgnored})
		return
	case err != nil:
		respondError(c, pc.logger, err)
		return
	}

	resp := gin.H{"status": res.Status}
	if res.Order != nil {
		resp["recordId"] = res.Order.ID
	}
	c.JSON(http.StatusOK, resp)
}
