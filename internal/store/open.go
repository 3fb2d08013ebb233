package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

// ConnectOptions tunes the connection pool and how long Open waits for the
// database to accept connections. Zero fields take the defaults below.
type ConnectOptions struct {
	PingTimeout     time.Duration
	MaxWait         time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const (
	defaultPingTimeout = 5 * time.Second
	defaultMaxWait     = 30 * time.Second
	firstRetryDelay    = 500 * time.Millisecond
	maxRetryDelay      = 5 * time.Second
)

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaultPingTimeout
	}
	if o.MaxWait <= 0 {
		o.MaxWait = defaultMaxWait
	}
	return o
}

// Open returns a pgx-backed pool for dsn once the server answers a ping.
func Open(ctx context.Context, dsn string, opts ConnectOptions) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := waitForDB(ctx, db, opts.withDefaults(), time.Sleep); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitForDB pings db until it answers, ctx ends or opts.MaxWait has passed.
// The delay between attempts doubles up to maxRetryDelay.
func waitForDB(ctx context.Context, db *sql.DB, opts ConnectOptions, sleep func(time.Duration)) error {
	waitCtx, cancel := context.WithTimeout(ctx, opts.MaxWait)
	defer cancel()

	delay := firstRetryDelay
	for attempt := 1; ; attempt++ {
		pingCtx, cancelPing := context.WithTimeout(waitCtx, opts.PingTimeout)
		err := db.PingContext(pingCtx)
		cancelPing()
		if err == nil {
			return nil
		}

		if waitCtx.Err() != nil {
			return fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("database not ready")

		sleep(delay)
		delay = min(delay*2, maxRetryDelay)
	}
}
