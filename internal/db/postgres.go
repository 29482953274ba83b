package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"savorysync/internal/config"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func NewPostgresDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		log.Error().Err(err).Str("host", cfg.DBHost).Msg("postgres connection failed")
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to postgres")
	return db, nil
}

// WithTx runs fn in a read-committed transaction. fn's error rolls the
// transaction back; otherwise it is committed.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
