package database

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"todoshare/internal/config"
	"todoshare/pkg/logger"
)

var (
	pool *sqlx.DB
	once sync.Once
)

// DB returns the global database connection pool (initialized on first use).
// It is nil when DATABASE_URL is unset or the driver rejects it.
func DB(ctx context.Context) *sqlx.DB {
	once.Do(func() {
		cfg := config.Get()
		if cfg.DatabaseURL == "" {
			logger.Error(ctx, "DATABASE_URL is not set")
			return
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error(ctx, "Failed to open database", "error", err)
			return
		}
		db.SetMaxOpenConns(cfg.DBPoolSize)
		db.SetMaxIdleConns(max(cfg.DBPoolSize/2, 1))
		pool = sqlx.NewDb(db, "postgres")
		logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	})
	return pool
}

// Ping checks that the pool exists and the server answers.
func Ping(ctx context.Context) error {
	db := DB(ctx)
	if db == nil {
		return sql.ErrConnDone
	}
	return db.PingContext(ctx)
}
