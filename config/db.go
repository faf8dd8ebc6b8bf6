package config

import (
	"fmt"
	"time"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// ConnectDB opens the Postgres ledger and configures the connection pool.
func ConnectDB(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates the ledger tables and the partial index that keeps at most one
// live membership per e-mail. The index statement is valid for Postgres and SQLite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PayableOrder{}, &models.Notification{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payable_orders_live_membership
		ON payable_orders (kind, payer_email)
		WHERE kind = 'membership' AND payment_status <> 'failed'`).Error
	if err != nil {
		return fmt.Errorf("create membership identity index: %w", err)
	}
	return nil
}
