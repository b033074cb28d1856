package db

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recommendation-service/configs"
)

// Open connects to Postgres with retry/backoff and conservative pool
// limits. Requests acquire connections from this pool and release them
// on completion; nothing in the service holds one across calls.
func Open(cfg *configs.Config) (*gorm.DB, error) {
	var base *gorm.DB
	var err error
	sleep := time.Second
	for i := 0; i < 8; i++ {
		base, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			sqlDB, _ := base.DB()
			if pingWithTimeout(sqlDB, 2*time.Second) == nil {
				break
			}
		}
		time.Sleep(sleep)
		if sleep < 8*time.Second {
			sleep *= 2
		}
	}
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	sqlDB, _ := base.DB()
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return base, nil
}

func pingWithTimeout(sqlDB *sql.DB, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- sqlDB.Ping() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("db ping timeout after %s", timeout)
	}
}
