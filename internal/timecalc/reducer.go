// Package timecalc reconstructs worked and break time from a subject's
// ordered punch ledger. It is the application-side replacement for the
// aggregation the legacy system ran inside the datastore, so dashboards,
// history and exports all share one implementation.
package timecalc

import (
	"time"

	"example.com/timeclock/internal/domain"
)

// Totals is the reduction of one accounting day's punches.
type Totals struct {
	WorkedMinutes int `json:"worked_minutes"`
	BreakMinutes  int `json:"break_minutes"`
}

// Reduce walks punches for one subject on one accounting day, in
// non-decreasing timestamp order, and returns total worked and break
// minutes. The caller partitions the ledger by calendar day; Reduce never
// errors and never returns negative minutes.
//
// Anomaly policy:
//   - a second clock_in while one is open overwrites the open start
//     (latest wins, nothing is double counted)
//   - clock_out or break_end with no matching open start is inert
//   - break_start without an open work session is inert
//   - a break still open at clock_out is closed at the clock_out time
//
// When asOf is non-nil and the last session is still open, minutes accrue up
// to asOf; an open break at asOf accrues to break time, not worked time.
// When asOf is nil an unterminated session contributes nothing beyond its
// last closed segment.
func Reduce(punches []domain.Punch, asOf *time.Time) Totals {
	var (
		workStart  *time.Time
		breakStart *time.Time
		worked     int
		brk        int
		sessionBrk int // break minutes inside the open session
	)

	closeBreak := func(end time.Time) {
		m := floorMinutes(end.Sub(*breakStart))
		brk += m
		sessionBrk += m
		breakStart = nil
	}

	for i := range punches {
		t := punches[i].Time()
		switch punches[i].Kind {
		case domain.KindClockIn:
			// Overwrite on double clock-in; an open break belonged to
			// the abandoned session and is dropped without accrual.
			ts := t
			workStart = &ts
			breakStart = nil
			sessionBrk = 0
		case domain.KindClockOut:
			if workStart == nil {
				continue
			}
			if breakStart != nil {
				closeBreak(t)
			}
			m := floorMinutes(t.Sub(*workStart)) - sessionBrk
			if m > 0 {
				worked += m
			}
			workStart = nil
			sessionBrk = 0
		case domain.KindBreakStart:
			if workStart == nil {
				continue
			}
			ts := t
			breakStart = &ts
		case domain.KindBreakEnd:
			if breakStart == nil {
				continue
			}
			closeBreak(t)
		}
	}

	if workStart != nil && asOf != nil {
		now := asOf.UTC()
		if breakStart != nil && now.After(*breakStart) {
			closeBreak(now)
		}
		m := floorMinutes(now.Sub(*workStart)) - sessionBrk
		if m > 0 {
			worked += m
		}
	}

	return Totals{WorkedMinutes: worked, BreakMinutes: brk}
}

// floorMinutes converts a segment to whole minutes, clamping negative spans
// (clock skew, out-of-order input) to zero.
func floorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// ClockState is the subject's current standing derived from the last punch.
type ClockState string

const (
	StateIn      ClockState = "in"
	StateOut     ClockState = "out"
	StateOnBreak ClockState = "on_break"
)

// Status reports the clock state implied by the most recent punch.
// An empty ledger means the subject never clocked in today.
func Status(punches []domain.Punch) ClockState {
	if len(punches) == 0 {
		return StateOut
	}
	switch punches[len(punches)-1].Kind {
	case domain.KindClockIn, domain.KindBreakEnd:
		return StateIn
	case domain.KindBreakStart:
		return StateOnBreak
	default:
		return StateOut
	}
}
