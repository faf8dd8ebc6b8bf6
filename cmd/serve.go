package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sony/sonyflake"
	"github.com/spf13/cobra"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/config"
	"github.com/gauravghatol/CREA-Final-sub001/controllers"
	"github.com/gauravghatol/CREA-Final-sub001/middleware"
	"github.com/gauravghatol/CREA-Final-sub001/routes"
	"github.com/gauravghatol/CREA-Final-sub001/services"
	"github.com/gauravghatol/CREA-Final-sub001/ws"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	var cache services.StatusCache = services.NoopStatusCache{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, status cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			cache = services.NewRedisStatusCache(rdb, cfg.Redis.TTL)
		}
	}

	flake := sonyflake.NewSonyflake(sonyflake.Settings{
		MachineID: func() (uint16, error) { return cfg.MachineID, nil },
	})
	if flake == nil {
		return errors.New("receipt number generator could not start")
	}

	hub := ws.NewHub(cfg.AllowedOrigins, logger)
	go hub.Run(ctx)

	ledger := services.NewOrderLedger(db, cache, logger)
	gateway := services.NewRazorpayGateway(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Timeout)

	fulfiller, closeFulfillment, err := buildFulfiller(ctx, cfg, ledger, db, hub, logger)
	if err != nil {
		return err
	}
	defer closeFulfillment()

	lifecycle := services.NewLifecycleMachine(services.LifecycleDeps{
		Ledger:      ledger,
		Verifier:    services.NewSignatureVerifier(cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret),
		Gateway:     gateway,
		Fulfillment: fulfiller,
		Receipts:    flake,
		Logger:      logger,
	})
	intake := services.NewIntakeValidator(ledger, cfg.Gateway.Currency, logger)
	issuer := services.NewOrderIssuer(ledger, gateway, cfg.Gateway.KeyID, cfg.Gateway.Timeout, logger)
	query := services.NewOrderQuery(ledger, cache, time.Now, logger)

	if cfg.Renewal.Interval > 0 {
		reminder := services.NewRenewalReminder(ledger, reminderNotifier(cfg, db, hub), cfg.Renewal.Window, logger)
		go reminder.Start(ctx, cfg.Renewal.Interval)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		Orders:        controllers.NewOrderController(intake, issuer, query, logger),
		Payments:      controllers.NewPaymentController(lifecycle, logger),
		Admin:         controllers.NewAdminController(query, hub, logger),
		Notifications: controllers.NewNotificationController(services.NewNotificationInbox(db), logger),
		Health:        ledger,
		Limiter:       middleware.NewIPRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		AdminSecret:   cfg.Admin.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// let in-flight receipts and mail finish before closing their clients
	fulfiller.Wait()
	return nil
}

// buildFulfiller wires the optional side-effect backends. The returned func
// releases whatever was opened.
func buildFulfiller(ctx context.Context, cfg *config.Config, ledger *services.OrderLedger, db *gorm.DB, hub services.Broadcaster, logger *slog.Logger) (*services.Fulfiller, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Mail.Host == "" {
		logger.Warn("MAIL_HOST not set, payers will only get in-app notifications")
	}
	notifiers := payerNotifier(cfg, db, hub, "payment_completed")

	deps := services.FulfillerDeps{
		Ledger:   ledger,
		Renderer: services.NewPNGReceiptRenderer(cfg.Receipts.Organization),
		Notifier: notifiers,
		Timeout:  cfg.Fulfillment.Timeout,
		Logger:   logger,
	}

	if cfg.Receipts.Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Receipts.Region))
		if err != nil {
			return nil, func() {}, fmt.Errorf("load AWS config: %w", err)
		}
		deps.Archive = services.NewS3ReceiptArchive(s3.NewFromConfig(awsCfg), cfg.Receipts.Bucket, cfg.Receipts.Region)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := services.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			// events are a side effect; payments keep working without them
			logger.Warn("kafka unreachable, completion events disabled", "brokers", cfg.Kafka.Brokers, "error", err)
		} else {
			closers = append(closers, func() {
				if err := producer.Close(); err != nil {
					logger.Warn("closing kafka producer", "error", err)
				}
			})
			deps.Publisher = services.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		}
	}

	return services.NewFulfiller(deps), closeAll, nil
}

// payerNotifier always stores an in-app notification and also mails the
// payer when SMTP is configured.
func payerNotifier(cfg *config.Config, db *gorm.DB, hub services.Broadcaster, action string) services.MultiNotifier {
	notifiers := services.MultiNotifier{services.NewInboxNotifier(db, hub, action)}
	if cfg.Mail.Host != "" {
		dialer := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
		notifiers = append(notifiers, services.NewMailNotifier(dialer, cfg.Mail.From))
	}
	return notifiers
}

func reminderNotifier(cfg *config.Config, db *gorm.DB, hub services.Broadcaster) services.Notifier {
	return payerNotifier(cfg, db, hub, "renewal_reminder")
}
