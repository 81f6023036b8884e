package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voxscribe/internal/infra"
	"voxscribe/internal/sqlinline"
)

// Channel is the Postgres notification channel shared by all API replicas.
const Channel = "voxscribe_events"

const listenRetryInterval = 2 * time.Second

// PGBroker publishes through pg_notify and relays notifications received on
// Channel to a LocalBroker, so subscribers on every replica see every event.
type PGBroker struct {
	local  *LocalBroker
	sql    infra.SQLExecutor
	pool   *pgxpool.Pool
	logger infra.Logger
}

func NewPGBroker(local *LocalBroker, sql infra.SQLExecutor, pool *pgxpool.Pool, logger infra.Logger) *PGBroker {
	return &PGBroker{local: local, sql: sql, pool: pool, logger: logger}
}

func (b *PGBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	if _, err := b.sql.Exec(ctx, sqlinline.QNotifyEvent, Channel, string(payload)); err != nil {
		return fmt.Errorf("events: notify: %w", err)
	}
	return nil
}

func (b *PGBroker) Subscribe(userID string) *Subscription {
	return b.local.Subscribe(userID)
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (b *PGBroker) Run(ctx context.Context) error {
	b.logger.Info().Str("channel", Channel).Msg("events: listener started")
	for {
		err := b.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Error().Err(err).Msg("events: listener failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(listenRetryInterval):
		}
	}
}

func (b *PGBroker) listen(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	// LISTEN takes no bind parameters, so it bypasses the marked query runner.
	if _, err := conn.Exec(ctx, "listen "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = conn.Exec(cleanup, "unlisten *")
	}()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		if err := b.deliver(ctx, []byte(n.Payload)); err != nil {
			b.logger.Warn().Err(err).Msg("events: dropped notification")
		}
	}
}

func (b *PGBroker) deliver(ctx context.Context, payload []byte) error {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if ev.UserID == "" {
		return errors.New("event without user id")
	}
	return b.local.Publish(ctx, ev)
}

var _ Broker = (*PGBroker)(nil)
