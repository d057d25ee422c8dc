package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

// DefaultConnectTimeout bounds the retries NewPostgres spends waiting for
// the server to accept connections.
const DefaultConnectTimeout = 30 * time.Second

// Postgres stores runs in a PostgreSQL database reached through lib/pq.
type Postgres struct {
	store
}

// NewPostgres opens dsn, pings it with exponential backoff until
// DefaultConnectTimeout or ctx ends, and creates the schema.
func NewPostgres(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	o := buildOptions("journal.postgres", opts)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	operation := func() error {
		return db.PingContext(ctx)
	}
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = DefaultConnectTimeout

	notify := func(err error, next time.Duration) {
		o.log.Warn().Err(err).Dur("retry_in", next).Msg("postgres not ready")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoffStrategy, ctx), notify); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres after retries: %w", err)
	}

	if _, err := db.ExecContext(ctx, PostgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	o.log.Info().Msg("postgres journal connected")
	return &Postgres{store: store{db: db, rebind: dollarBind, log: o.log}}, nil
}
