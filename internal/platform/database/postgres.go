package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"codearena/internal/platform/config"
	"codearena/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

//go:embed schema.sql
var schema string

var DB *sql.DB

// Open returns a pooled handle to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func Connect(ctx context.Context) error {
	db, err := Open(ctx, config.AppConfig.DBConnStr)
	if err != nil {
		return err
	}
	DB = db
	logger.L().Info("connected to postgres")
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.L().Info("database connection closed")
	}
}
