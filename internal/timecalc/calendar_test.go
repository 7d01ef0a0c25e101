package timecalc

import (
	"testing"
	"time"
)

func TestDayStart(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 2024-05-07 01:30 UTC is still 2024-05-06 in New York.
	utc := time.Date(2024, 5, 7, 1, 30, 0, 0, time.UTC)
	got := DayStart(utc, loc)
	want := time.Date(2024, 5, 6, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWeekStartIsMonday(t *testing.T) {
	for d := 6; d <= 12; d++ { // 2024-05-06 is a Monday
		got := WeekStart(time.Date(2024, 5, d, 15, 0, 0, 0, time.UTC), time.UTC)
		want := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("day %d: got %v, want %v", d, got, want)
		}
	}
}

func TestWeekStartOnSunday(t *testing.T) {
	got := WeekStart(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), time.UTC)
	want := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), time.UTC)
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDaysCoversWindow(t *testing.T) {
	from := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	days := Days(from, from.AddDate(0, 0, 7))
	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	if !days[0].Equal(from) || !days[6].Equal(from.AddDate(0, 0, 6)) {
		t.Fatalf("unexpected bounds: first=%v last=%v", days[0], days[6])
	}
}
