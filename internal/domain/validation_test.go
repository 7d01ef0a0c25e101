package domain

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

func validPunch() Punch {
	return Punch{
		SubjectID: "emp-1",
		Kind:      KindClockIn,
		Timestamp: testNow.Add(-time.Hour).Unix(),
	}
}

func fieldSet(errs []FieldError) map[string]bool {
	m := make(map[string]bool, len(errs))
	for _, e := range errs {
		m[e.Field] = true
	}
	return m
}

func TestValidatePunchOK(t *testing.T) {
	p := validPunch()
	if errs := ValidatePunch(&p, testNow, DefaultClockSkew); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValidatePunchRequiredFields(t *testing.T) {
	p := Punch{}
	fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew))
	for _, f := range []string{"subject_id", "kind", "timestamp"} {
		if !fields[f] {
			t.Fatalf("missing error for %s, got %v", f, fields)
		}
	}
}

func TestValidatePunchUnknownKind(t *testing.T) {
	p := validPunch()
	p.Kind = "lunch"
	if fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew)); !fields["kind"] {
		t.Fatalf("expected kind error, got %v", fields)
	}
}

func TestValidatePunchFutureTimestamp(t *testing.T) {
	p := validPunch()
	p.Timestamp = testNow.Add(10 * time.Minute).Unix()
	if fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew)); !fields["timestamp"] {
		t.Fatalf("expected timestamp error, got %v", fields)
	}

	// Within skew is fine.
	p.Timestamp = testNow.Add(2 * time.Minute).Unix()
	if errs := ValidatePunch(&p, testNow, DefaultClockSkew); len(errs) != 0 {
		t.Fatalf("timestamp within skew rejected: %v", errs)
	}
}

func TestValidatePunchCoordinatesTogether(t *testing.T) {
	lat := 41.0
	p := validPunch()
	p.Latitude = &lat
	if fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew)); !fields["latitude"] {
		t.Fatalf("expected error for latitude without longitude, got %v", fields)
	}

	lon := 29.0
	p.Longitude = &lon
	if errs := ValidatePunch(&p, testNow, DefaultClockSkew); len(errs) != 0 {
		t.Fatalf("unexpected errors with both coordinates: %v", errs)
	}
}

func TestValidatePunchCoordinateBounds(t *testing.T) {
	lat, lon := 91.0, 181.0
	p := validPunch()
	p.Latitude = &lat
	p.Longitude = &lon
	fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew))
	if !fields["latitude"] || !fields["longitude"] {
		t.Fatalf("expected out-of-range errors, got %v", fields)
	}
}

func TestValidatePunchLengthLimits(t *testing.T) {
	p := validPunch()
	p.SubjectID = strings.Repeat("x", MaxSubjectIDLen+1)
	p.Source = strings.Repeat("x", MaxSourceLen+1)
	fields := fieldSet(ValidatePunch(&p, testNow, DefaultClockSkew))
	if !fields["subject_id"] || !fields["source"] {
		t.Fatalf("expected length errors, got %v", fields)
	}
}

func TestValidateSite(t *testing.T) {
	s := Site{Name: "HQ", Latitude: 41.0, Longitude: 29.0, RadiusMeters: 100}
	if errs := ValidateSite(&s); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	s.RadiusMeters = 0
	if fields := fieldSet(ValidateSite(&s)); !fields["radius_meters"] {
		t.Fatalf("expected radius error, got %v", fields)
	}

	s = Site{Latitude: -91, Longitude: 200, RadiusMeters: -5}
	fields := fieldSet(ValidateSite(&s))
	for _, f := range []string{"name", "latitude", "longitude", "radius_meters"} {
		if !fields[f] {
			t.Fatalf("missing error for %s, got %v", f, fields)
		}
	}
}

func TestValidateBulk(t *testing.T) {
	if _, err := ValidateBulk(nil, 100, testNow, DefaultClockSkew); err == nil {
		t.Fatalf("expected error for empty bulk")
	}

	many := make([]*Punch, 101)
	for i := range many {
		p := validPunch()
		many[i] = &p
	}
	if _, err := ValidateBulk(many, 100, testNow, DefaultClockSkew); err == nil {
		t.Fatalf("expected error for oversized bulk")
	}

	good := validPunch()
	bad := validPunch()
	bad.SubjectID = ""
	all, err := ValidateBulk([]*Punch{&good, &bad}, 100, testNow, DefaultClockSkew)
	if err == nil {
		t.Fatalf("expected per-item validation failure")
	}
	if len(all[0]) != 0 || len(all[1]) == 0 {
		t.Fatalf("errors attributed to wrong items: %v", all)
	}
}
