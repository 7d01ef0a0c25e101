package domain

import (
	"errors"
	"fmt"
	"time"
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidatePunch performs strict checks on the punch.
// now: reference time (injectable for tests)
// skew: allowable future skew (positive duration)
func ValidatePunch(p *Punch, now time.Time, skew time.Duration) []FieldError {
	var errs []FieldError

	if p.SubjectID == "" {
		errs = append(errs, FieldError{"subject_id", "required"})
	} else if len(p.SubjectID) > MaxSubjectIDLen {
		errs = append(errs, FieldError{"subject_id", fmt.Sprintf("max length %d", MaxSubjectIDLen)})
	}

	if p.Kind == "" {
		errs = append(errs, FieldError{"kind", "required"})
	} else if !ValidKind(p.Kind) {
		errs = append(errs, FieldError{"kind", "must be one of clock_in, clock_out, break_start, break_end"})
	}

	// Timestamp: epoch seconds, not in the future (allow small skew)
	if p.Timestamp == 0 {
		errs = append(errs, FieldError{"timestamp", "required epoch seconds (UTC)"})
	} else {
		ts := time.Unix(p.Timestamp, 0).UTC()
		if ts.After(now.Add(skew)) {
			errs = append(errs, FieldError{"timestamp", "must not be in the future (beyond allowed skew)"})
		}
	}

	if p.PunchID != "" && len(p.PunchID) > MaxPunchIDLen {
		errs = append(errs, FieldError{"punch_id", fmt.Sprintf("max length %d", MaxPunchIDLen)})
	}
	if p.Source != "" && len(p.Source) > MaxSourceLen {
		errs = append(errs, FieldError{"source", fmt.Sprintf("max length %d", MaxSourceLen)})
	}

	// Coordinates: both or neither, and within WGS84 bounds.
	if (p.Latitude == nil) != (p.Longitude == nil) {
		errs = append(errs, FieldError{"latitude", "latitude and longitude must be provided together"})
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		errs = append(errs, FieldError{"latitude", "must be between -90 and 90"})
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		errs = append(errs, FieldError{"longitude", "must be between -180 and 180"})
	}

	return errs
}

// ValidateSite checks an administrator-submitted geofence site.
func ValidateSite(s *Site) []FieldError {
	var errs []FieldError

	if s.Name == "" {
		errs = append(errs, FieldError{"name", "required"})
	} else if len(s.Name) > MaxSiteNameLen {
		errs = append(errs, FieldError{"name", fmt.Sprintf("max length %d", MaxSiteNameLen)})
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		errs = append(errs, FieldError{"latitude", "must be between -90 and 90"})
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		errs = append(errs, FieldError{"longitude", "must be between -180 and 180"})
	}
	if s.RadiusMeters <= 0 {
		errs = append(errs, FieldError{"radius_meters", "must be greater than zero"})
	}

	return errs
}

// ValidateBulk enforces top-level bulk constraints (count caps) and per-item validation.
// maxItems: cap for number of punches (e.g., 100).
func ValidateBulk(punches []*Punch, maxItems int, now time.Time, skew time.Duration) (allErrs [][]FieldError, topErr error) {
	if len(punches) == 0 {
		return nil, errors.New("punches: required and must contain at least one item")
	}
	if len(punches) > maxItems {
		return nil, fmt.Errorf("punches: max %d items", maxItems)
	}
	allErrs = make([][]FieldError, len(punches))
	var any bool
	for i := range punches {
		fe := ValidatePunch(punches[i], now, skew)
		if len(fe) > 0 {
			allErrs[i] = fe
			any = true
		}
	}
	if any {
		return allErrs, fmt.Errorf("one or more punches failed validation")
	}
	return nil, nil
}
