package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cakeshop-backend/internal/core/config"
	"cakeshop-backend/internal/core/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	maxConnectRetries = 10
	retryDelay        = 2 * time.Second
	pingTimeout       = 5 * time.Second
)

// Connect opens a Postgres pool via the pgx stdlib driver, retrying until the
// database answers a ping or the retry budget is spent.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	var (
		db  *sql.DB
		err error
	)

	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		db, err = sql.Open("pgx", dsn)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = db.PingContext(pctx)
			cancel()
			if err == nil {
				return db, nil
			}
			_ = db.Close()
		}

		logger.Get().Warn("Postgres not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("database connect canceled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxConnectRetries, err)
}
