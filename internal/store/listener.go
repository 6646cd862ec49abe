package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pvlima/modbot/internal/logger"
)

// Listener subscribes to a Postgres NOTIFY channel and delivers parsed
// notifications. LISTEN needs a dedicated connection, separate from the
// store's pool.
type Listener struct {
	databaseURL string
	channel     string
	log         *logger.Logger
}

// NewListener creates a listener for the given channel.
func NewListener(databaseURL, channel string) *Listener {
	return &Listener{
		databaseURL: databaseURL,
		channel:     channel,
		log:         logger.WithPrefix("listener"),
	}
}

// Listen blocks, delivering notifications to out until ctx is cancelled.
// The connection is re-established with a short pause after failures so a
// database restart does not kill the worker.
func (l *Listener) Listen(ctx context.Context, out chan<- Notification) error {
	for {
		if err := l.listenOnce(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn("listen connection lost: %v, reconnecting", err)
		}

		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, out chan<- Notification) error {
	conn, err := pgx.Connect(ctx, l.databaseURL)
	if err != nil {
		return fmt.Errorf("connect for listen: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen on %q: %w", l.channel, err)
	}
	l.log.Info("subscribed to channel %q", l.channel)

	for {
		pgn, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var n Notification
		if err := json.Unmarshal([]byte(pgn.Payload), &n); err != nil {
			l.log.Warn("dropping malformed notification payload: %v", err)
			continue
		}

		select {
		case out <- n:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
