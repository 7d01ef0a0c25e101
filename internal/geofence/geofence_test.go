package geofence

import (
	"math"
	"testing"

	"example.com/timeclock/internal/domain"
)

func TestDistanceKnownPair(t *testing.T) {
	// Paris to London is roughly 344 km.
	paris := Point{Latitude: 48.8566, Longitude: 2.3522}
	london := Point{Latitude: 51.5074, Longitude: -0.1278}
	d := Distance(paris, london)
	if d < 340_000 || d > 348_000 {
		t.Fatalf("got %.0fm, want ~344km", d)
	}
}

func TestDistanceZero(t *testing.T) {
	p := Point{Latitude: 40.0, Longitude: -73.9}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("got %v, want 0", d)
	}
}

func TestAdmitInclusiveBoundary(t *testing.T) {
	site := domain.Site{SiteID: "s1", Name: "HQ", Latitude: 0, Longitude: 0}
	point := Point{Latitude: 0, Longitude: 0.001} // ~111m east
	d := Distance(point, Point{Latitude: site.Latitude, Longitude: site.Longitude})

	site.RadiusMeters = d // exactly on the boundary
	if dec := Admit(point, []domain.Site{site}); !dec.Admitted {
		t.Fatalf("boundary point not admitted (distance=%v radius=%v)", d, site.RadiusMeters)
	}

	site.RadiusMeters = d - 1 // one meter inside the distance
	if dec := Admit(point, []domain.Site{site}); dec.Admitted {
		t.Fatalf("point 1m beyond radius was admitted")
	}
}

func TestAdmitNearestOfMultiple(t *testing.T) {
	point := Point{Latitude: 0, Longitude: 0}
	near := domain.Site{SiteID: "near", Name: "Near", Latitude: 0, Longitude: 0.0005, RadiusMeters: 100} // ~56m
	far := domain.Site{SiteID: "far", Name: "Far", Latitude: 0, Longitude: 0.0045, RadiusMeters: 100}    // ~500m

	dec := Admit(point, []domain.Site{far, near})
	if !dec.Admitted {
		t.Fatalf("expected admission within the near site's radius")
	}
	if dec.Nearest == nil || dec.Nearest.SiteID != "near" {
		t.Fatalf("nearest = %+v, want the near site", dec.Nearest)
	}
}

func TestAdmitRejectedReportsNearest(t *testing.T) {
	point := Point{Latitude: 0, Longitude: 0}
	site := domain.Site{SiteID: "s1", Name: "Campus", Latitude: 0, Longitude: 0.004, RadiusMeters: 100}

	dec := Admit(point, []domain.Site{site})
	if dec.Admitted {
		t.Fatalf("expected rejection")
	}
	if dec.Nearest == nil || dec.Nearest.SiteID != "s1" {
		t.Fatalf("nearest = %+v, want the only site", dec.Nearest)
	}
	if dec.DistanceMeters == nil {
		t.Fatalf("expected a diagnostic distance on rejection")
	}
	want := math.Round(Distance(point, Point{Latitude: site.Latitude, Longitude: site.Longitude}))
	if *dec.DistanceMeters != want {
		t.Fatalf("distance = %v, want %v", *dec.DistanceMeters, want)
	}
}

func TestAdmitFarSiteWithBigRadius(t *testing.T) {
	// The nearest site rejects but a farther one admits; admission is
	// against any site, and the admitting site is the one reported.
	point := Point{Latitude: 0, Longitude: 0}
	tight := domain.Site{SiteID: "tight", Name: "Tight", Latitude: 0, Longitude: 0.0005, RadiusMeters: 10}
	wide := domain.Site{SiteID: "wide", Name: "Wide", Latitude: 0, Longitude: 0.004, RadiusMeters: 1000}

	dec := Admit(point, []domain.Site{tight, wide})
	if !dec.Admitted {
		t.Fatalf("expected admission via the wide site")
	}
	if dec.Nearest == nil || dec.Nearest.SiteID != "wide" {
		t.Fatalf("nearest = %+v, want the wide site", dec.Nearest)
	}
}

func TestAdmitEmptyRegistry(t *testing.T) {
	dec := Admit(Point{Latitude: 0, Longitude: 0}, nil)
	if dec.Admitted {
		t.Fatalf("empty registry must not admit")
	}
	if dec.Nearest != nil || dec.DistanceMeters != nil {
		t.Fatalf("empty registry must report no nearest site, got %+v", dec)
	}
}
