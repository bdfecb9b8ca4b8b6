package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gratefultolord/astro_bot/internal/config"
)

type DB struct {
	Conn *sqlx.DB
}

func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	dbConn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db.New: cannot connect to database: %w", err)
	}

	dbConn.SetMaxOpenConns(20)
	dbConn.SetMaxIdleConns(5)
	dbConn.SetConnMaxLifetime(60 * time.Minute)

	return &DB{Conn: dbConn}, nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}

// RunMigrations executes the given SQL scripts in order.
func RunMigrations(conn *sqlx.DB, paths ...string) error {
	for _, path := range paths {
		script, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("db.RunMigrations: read %s: %w", path, err)
		}

		if _, err := conn.Exec(string(script)); err != nil {
			return fmt.Errorf("db.RunMigrations: exec %s: %w", path, err)
		}
	}

	return nil
}

// ConnectWithRetry calls connect until it succeeds, sleeping delay between
// attempts. It gives up only when ctx is done.
func ConnectWithRetry[T any](ctx context.Context, log *zap.Logger, delay time.Duration, connect func(context.Context) (T, error)) (T, error) {
	for attempt := 1; ; attempt++ {
		conn, err := connect(ctx)
		if err == nil {
			return conn, nil
		}

		log.Error("store connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("db.ConnectWithRetry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}
