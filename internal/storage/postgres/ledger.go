package postgres

import (
	"context"
	"fmt"

	"example.com/timeclock/internal/domain"
)

// LedgerWindow returns one subject's punches with ts_epoch in [from, to),
// ordered by timestamp (insertion order breaks ties). This is the snapshot
// the reducer consumes; the caller picks from/to on accounting-day
// boundaries.
func (db *DB) LedgerWindow(ctx context.Context, subjectID string, from, to int64) ([]domain.Punch, error) {
	sql := `
SELECT dedupe_key, subject_id, kind, ts_epoch, latitude, longitude, COALESCE(source, ''), verified
FROM punches
WHERE subject_id = $1 AND ts_epoch >= $2 AND ts_epoch < $3
ORDER BY ts_epoch ASC, id ASC`

	rows, err := db.Pool.Query(ctx, sql, subjectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Punch
	for rows.Next() {
		var p domain.Punch
		var kind string
		if err := rows.Scan(&p.PunchID, &p.SubjectID, &kind, &p.Timestamp, &p.Latitude, &p.Longitude, &p.Source, &p.Verified); err != nil {
			return nil, fmt.Errorf("scan punch: %w", err)
		}
		p.Kind = domain.PunchKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertDailyTotals caches a completed day's reduction. The cache is derived
// data only; readers always recompute from the ledger, so a stale or missing
// row is harmless.
func (db *DB) UpsertDailyTotals(ctx context.Context, t domain.DailyTotals) error {
	sql := `
INSERT INTO daily_totals (subject_id, day, worked_minutes, break_minutes, computed_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (subject_id, day) DO UPDATE
SET worked_minutes = EXCLUDED.worked_minutes,
    break_minutes  = EXCLUDED.break_minutes,
    computed_at    = now()`

	_, err := db.Pool.Exec(ctx, sql, t.SubjectID, t.Date, t.WorkedMinutes, t.BreakMinutes)
	if err != nil {
		return fmt.Errorf("upsert daily totals: %w", err)
	}
	return nil
}
