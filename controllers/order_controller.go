package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

type OrderIntake interface {
	Intake(ctx context.Context, req services.IntakeRequest) (*models.PayableOrder, error)
}

type OrderIssuance interface {
	Issue(ctx context.Context, order *models.PayableOrder) (*services.IssuedOrder, error)
}

type OrderStatusReader interface {
	Status(ctx context.Context, orderID string) (*services.OrderStatusView, error)
}

type OrderController struct {
	intake OrderIntake
	issuer OrderIssuance
	status OrderStatusReader
	logger *slog.Logger
}

func NewOrderController(intake OrderIntake, issuer OrderIssuance, status OrderStatusReader, logger *slog.Logger) *OrderController {
	return &OrderController{intake: intake, issuer: issuer, status: status, logger: logger}
}

// POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	order, err := oc.intake.Intake(c.Request.Context(), req)
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	issued, err := oc.issuer.Issue(c.Request.Context(), order)
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, issued)
}

// GET /orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	view, err := oc.status.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
