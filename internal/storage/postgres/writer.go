package postgres

import (
	"context"
	"fmt"
	"strings"

	"example.com/timeclock/internal/domain"
	"example.com/timeclock/internal/idempotency"
)

type Writer struct {
	db      *DB
	channel string
}

// NewWriter builds a punch writer. channel, when non-empty, is the
// LISTEN/NOTIFY channel told about each successfully written batch.
func NewWriter(db *DB, channel string) *Writer {
	return &Writer{db: db, channel: channel}
}

// InsertBatch inserts punches with ON CONFLICT DO NOTHING on the dedupe key
// to enforce idempotency, then notifies the change channel with the distinct
// subject ids the batch touched.
func (w *Writer) InsertBatch(ctx context.Context, items []domain.Punch) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	cols := []string{"dedupe_key", "subject_id", "kind", "ts_epoch", "latitude", "longitude", "source", "verified"}
	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(cols))

	subjects := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	argi := 1
	for i := range items {
		p := &items[i]
		key, _ := idempotency.DeriveKey(p)

		ph := make([]string, 0, len(cols))
		add := func(v any) {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d", argi))
			argi++
		}

		add(key)
		add(p.SubjectID)
		add(string(p.Kind))
		add(p.Timestamp)

		// coordinates are optional (NULL when the punch carried none)
		if p.Latitude == nil {
			add(nil)
		} else {
			add(*p.Latitude)
		}
		if p.Longitude == nil {
			add(nil)
		} else {
			add(*p.Longitude)
		}

		if p.Source == "" {
			add(nil)
		} else {
			add(p.Source)
		}
		add(p.Verified)

		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")

		if _, ok := seen[p.SubjectID]; !ok {
			seen[p.SubjectID] = struct{}{}
			subjects = append(subjects, p.SubjectID)
		}
	}

	sql := "INSERT INTO punches (" + strings.Join(cols, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		" ON CONFLICT (dedupe_key) DO NOTHING"

	ct, err := w.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	if w.channel != "" && ct.RowsAffected() > 0 {
		payload := strings.Join(subjects, ",")
		if _, err := w.db.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", w.channel, payload); err != nil {
			// The rows are durable; a missed notification only delays
			// recomputation until the next read.
			return ct.RowsAffected(), nil
		}
	}
	return ct.RowsAffected(), nil
}
