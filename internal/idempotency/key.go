package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"example.com/timeclock/internal/domain"
)

type KeySource string

const (
	KeyFromPunchID   KeySource = "punch_id"
	KeyFromComposite KeySource = "composite"
)

// DeriveKey returns a stable idempotency key and the source used.
// - Prefer an explicit PunchID when provided (kiosk/QR scans carry one).
// - Fallback to composite (subject_id, kind, timestamp).
// We return a hex-encoded SHA-256 when using the composite to guarantee fixed length.
// The key lands in the punches table's unique dedupe column, so a retried
// submission collapses to one row at insert time.
func DeriveKey(p *domain.Punch) (key string, src KeySource) {
	if p.PunchID != "" {
		return p.PunchID, KeyFromPunchID
	}
	composite := fmt.Sprintf("%s|%s|%d", p.SubjectID, p.Kind, p.Timestamp)
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:]), KeyFromComposite
}
