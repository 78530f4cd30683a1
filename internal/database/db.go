// Package database owns the PostgreSQL connection pool and the embedded
// schema migrations.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/config"
)

const connectTimeout = 10 * time.Second

// DB wraps the shared connection pool.
type DB struct {
	*sqlx.DB
}

// NewConnection opens the pool the repositories share. Traffic is a handful
// of short writes per streamed reply plus one history load per login, so the
// pool stays small.
func NewConnection(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Open("postgres", keywordDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{db}, nil
}

// Close releases the pool.
func (db *DB) Close() error {
	return db.DB.Close()
}

func keywordDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

// GetDSN returns the URL form of the connection string, which is what
// golang-migrate expects.
func GetDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.Database,
		RawQuery: "sslmode=" + cfg.SSLMode,
	}
	return u.String()
}
