// Package notify tails the postgres LISTEN/NOTIFY channel the punch writer
// publishes to, so interested parts of the process learn about new punches
// without polling.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// Handler receives a notification payload: the comma-separated subject ids
// a written batch touched.
type Handler func(payload string)

type Listener struct {
	dsn     string
	channel string
	handler Handler
}

func NewListener(dsn, channel string, h Handler) *Listener {
	return &Listener{dsn: dsn, channel: channel, handler: h}
}

// Start runs the listen loop in a goroutine until ctx is canceled. The loop
// holds a dedicated connection (LISTEN is per-connection in postgres) and
// reconnects with a flat backoff on any failure; notifications sent while
// disconnected are lost, which is acceptable because the feed only
// accelerates recomputation that reads would perform anyway.
func (l *Listener) Start(ctx context.Context) {
	go func() {
		for {
			if err := l.listen(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[feed] listener error: %v (reconnecting)", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	log.Printf("[feed] listening on channel %q", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.handler(n.Payload)
	}
}
