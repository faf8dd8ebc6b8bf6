package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/middleware"
	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

const maxPageSize = 100

type OrderLister interface {
	List(ctx context.Context, f services.OrderFilter) ([]models.PayableOrder, int64, error)
	Stats(ctx context.Context) ([]services.StatusCount, error)
}

type LiveFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request, subject string)
}

type AdminController struct {
	orders OrderLister
	feed   LiveFeed
	logger *slog.Logger
}

func NewAdminController(orders OrderLister, feed LiveFeed, logger *slog.Logger) *AdminController {
	return &AdminController{orders: orders, feed: feed, logger: logger}
}

// GET /admin/orders?kind=&status=&page=&limit=
func (ac *AdminController) ListOrders(c *gin.Context) {
	page, err := positiveQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	limit, err := positiveQuery(c, "limit", 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	kind := models.Kind(c.Query("kind"))
	if kind != "" {
		if _, ok := models.PolicyFor(kind); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind"})
			return
		}
	}

	status := models.PaymentStatus(c.Query("status"))
	switch status {
	case "", models.PaymentPending, models.PaymentCompleted, models.PaymentFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment status"})
		return
	}

	orders, total, err := ac.orders.List(c.Request.Context(), services.OrderFilter{
		Kind:          kind,
		PaymentStatus: status,
		Limit:         limit,
		Offset:        (page - 1) * limit,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"page":   page,
		"limit":  limit,
		"orders": orders,
	})
}

// GET /admin/stats
func (ac *AdminController) GetStats(c *gin.Context) {
	rows, err := ac.orders.Stats(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": rows})
}

// GET /ws/orders?token=
func (ac *AdminController) OrderFeed(c *gin.Context) {
	ac.feed.ServeWS(c.Writer, c.Request, c.GetString(middleware.ContextSubject))
}

func positiveQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
