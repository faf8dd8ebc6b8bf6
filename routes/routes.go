package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/gauravghatol/CREA-Final-sub001/controllers"
	"github.com/gauravghatol/CREA-Final-sub001/middleware"
)

type Deps struct {
	Orders        *controllers.OrderController
	Payments      *controllers.PaymentController
	Admin         *controllers.AdminController
	Notifications *controllers.NotificationController
	Health        controllers.Pinger
	Limiter       *middleware.IPRateLimiter
	AdminSecret   string
}

func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck(d.Health))

	// ---------------- ORDERS ----------------
	orders := r.Group("/orders")
	{
		orders.GET("/:id", d.Orders.GetOrder)

		writes := orders.Group("")
		if d.Limiter != nil {
			writes.Use(middleware.RateLimit(d.Limiter))
		}
		writes.POST("", d.Orders.CreateOrder)
		writes.POST("/verify", d.Payments.VerifyPayment)
	}

	// ---------------- GATEWAY ----------------
	r.POST("/webhooks/gateway", d.Payments.GatewayWebhook)

	// ---------------- ADMIN ----------------
	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(d.AdminSecret))
	{
		admin.GET("/orders", d.Admin.ListOrders)
		admin.GET("/stats", d.Admin.GetStats)

		admin.GET("/notifications", d.Notifications.ListNotifications)
		admin.PUT("/notifications/read-all", d.Notifications.MarkAllRead)
		admin.PUT("/notifications/:id/read", d.Notifications.MarkRead)
	}

	// ---------------- WebSockets ----------------
	r.GET("/ws/orders", middleware.AdminAuth(d.AdminSecret), d.Admin.OrderFeed)
}
