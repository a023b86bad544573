package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/helpers"
)

// Connect opens the master and replica pools described by cfg, retrying
// until the master answers a ping or the attempts run out.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*dbpg.DB, error) {
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSec) * time.Second,
	}
	slaves := helpers.SplitAndTrim(cfg.Slaves, ",")

	attempts := max(cfg.ConnectRetries, 1)
	delay := time.Duration(max(cfg.ConnectRetryDelaySec, 1)) * time.Second

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := open(ctx, cfg.DSN, slaves, opts)
		if err == nil {
			zlog.Logger.Info().Int("attempt", i).Int("replicas", len(slaves)).Msg("database connection established")
			return db, nil
		}
		lastErr = err
		zlog.Logger.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("database connection attempt failed")

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func open(ctx context.Context, dsn string, slaves []string, opts *dbpg.Options) (*dbpg.DB, error) {
	db, err := dbpg.New(dsn, slaves, opts)
	if err != nil {
		return nil, err
	}
	if db.Master == nil {
		return nil, fmt.Errorf("master connection is nil")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Master.PingContext(pingCtx); err != nil {
		Close(db)
		return nil, fmt.Errorf("ping master: %w", err)
	}
	return db, nil
}

// Close closes the master and every replica pool.
func Close(db *dbpg.DB) {
	if db == nil {
		return
	}
	if db.Master != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Warn().Err(err).Msg("failed to close master connection")
		}
	}
	for _, s := range db.Slaves {
		if s != nil {
			s.Close()
		}
	}
}
