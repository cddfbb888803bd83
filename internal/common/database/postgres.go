package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-cardiac/internal/common/config"

	_ "github.com/lib/pq"
)

// connMaxIdleTime 空闲连接回收时间，报表 CLI 与服务共用
const connMaxIdleTime = 5 * time.Minute

// NewPostgresDB 打开 PostgreSQL 连接池并在 ctx 内完成一次 Ping
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database, err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s:%d: %w", cfg.Database, cfg.Host, cfg.Port, err)
	}
	return db, nil
}
