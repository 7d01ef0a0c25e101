package postgres

import (
	"context"
	"fmt"

	"example.com/timeclock/internal/domain"
)

// ListSites returns the whole geofence registry. Site counts are small
// (one row per campus), so no paging.
func (db *DB) ListSites(ctx context.Context) ([]domain.Site, error) {
	sql := `
SELECT id, name, latitude, longitude, radius_meters
FROM sites
ORDER BY name ASC`

	rows, err := db.Pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(&s.SiteID, &s.Name, &s.Latitude, &s.Longitude, &s.RadiusMeters); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) CreateSite(ctx context.Context, s *domain.Site) error {
	sql := `
INSERT INTO sites (id, name, latitude, longitude, radius_meters)
VALUES ($1, $2, $3, $4, $5)`

	_, err := db.Pool.Exec(ctx, sql, s.SiteID, s.Name, s.Latitude, s.Longitude, s.RadiusMeters)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}
