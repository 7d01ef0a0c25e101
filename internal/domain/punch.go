package domain

import "time"

// PunchKind is the closed set of clock actions a subject can record.
type PunchKind string

const (
	KindClockIn    PunchKind = "clock_in"
	KindClockOut   PunchKind = "clock_out"
	KindBreakStart PunchKind = "break_start"
	KindBreakEnd   PunchKind = "break_end"
)

// ValidKind reports whether k is one of the four punch kinds.
func ValidKind(k PunchKind) bool {
	switch k {
	case KindClockIn, KindClockOut, KindBreakStart, KindBreakEnd:
		return true
	}
	return false
}

// Punch is the canonical ledger record for ingestion.
// timestamp is epoch seconds (UTC); punches are immutable once written.
type Punch struct {
	PunchID   string    `json:"punch_id,omitempty"`
	SubjectID string    `json:"subject_id"`
	Kind      PunchKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Source    string    `json:"source,omitempty"`
	Verified  bool      `json:"verified,omitempty"`
}

// Time returns the punch timestamp as UTC wall time.
func (p *Punch) Time() time.Time { return time.Unix(p.Timestamp, 0).UTC() }

// Site is one registered geofence zone: a WGS84 center plus an
// admission radius in meters.
type Site struct {
	SiteID       string  `json:"site_id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// DailyTotals is derived, never authoritative: always recomputable from the
// punch ledger for (subject, date).
type DailyTotals struct {
	SubjectID     string `json:"subject_id"`
	Date          string `json:"date"`
	WorkedMinutes int    `json:"worked_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
}

// Validation constraints (keep in sync with the migration's column sizes)
const (
	MaxSubjectIDLen  = 128
	MaxPunchIDLen    = 128
	MaxSourceLen     = 64
	MaxSiteNameLen   = 128
	DefaultClockSkew = 5 * time.Minute
)
