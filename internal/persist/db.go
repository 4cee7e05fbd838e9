package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/config"
)

// DB is the entity store's connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// NewDB opens the pool and pings it once. A zero MaxOpenConns keeps the pgx
// default.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 && int32(cfg.MaxIdleConns) <= poolCfg.MaxConns {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	db := &DB{Pool: pool, log: log}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("database connected",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return db, nil
}

// Ping checks the pool with a 5s cap.
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) InTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s begin: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s commit: %w", op, err)
	}
	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
	db.log.Debug("database closed")
}
