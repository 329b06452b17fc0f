// Package timeline computes the segment mutations needed to keep a
// person's duty history gap-free, non-overlapping, and chronologically
// ordered when a new duty is inserted at any point in the career.
package timeline

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"roster/internal/roster/models"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/dates"
)

// Result is the outcome of one reconciliation: the existing segments whose
// end dates changed, plus the fully-formed new segment. Reconciliation
// never deletes a segment; only end dates are adjusted.
type Result struct {
	Updated    []models.DutySegment
	NewSegment models.DutySegment
}

// NewSegmentIsCurrent reports whether the inserted segment ended up open,
// i.e. the insertion extended the career forward rather than backfilling.
func (r Result) NewSegmentIsCurrent() bool { return r.NewSegment.IsOpen() }

// Reconcile inserts a duty starting on the given calendar day into a
// person's existing timeline and returns the mutations that keep the
// timeline invariants intact:
//
//  1. An open segment starting strictly before the new start is no longer
//     current; it closes on the day before the new start.
//  2. The nearest predecessor is trimmed to end the day before the new
//     start when it is open or reaches into the new segment.
//  3. The new segment ends the day before its successor starts, or stays
//     open when no later segment exists.
//
// The caller must pre-screen duplicates: a start equal to an existing
// segment's start is a precondition violation and is rejected here.
func Reconcile(existing []models.DutySegment, personID uuid.UUID, start time.Time, rank, title string) (Result, error) {
	start = dates.AtMidnight(start)

	segs := make([]models.DutySegment, len(existing))
	copy(segs, existing)
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start.Before(segs[j].Start) })

	prev, next, open := -1, -1, -1
	for i, s := range segs {
		if s.Start.Equal(start) {
			return Result{}, dErrors.New(dErrors.CodeValidation,
				"a duty segment already starts on "+start.Format("2006-01-02"))
		}
		if s.Start.Before(start) {
			prev = i
		} else if next == -1 {
			next = i
		}
		if s.IsOpen() {
			open = i
		}
	}

	cutoff := dates.DayBefore(start)
	changed := make([]int, 0, 2)

	// The open segment loses currency only when the insertion lands after
	// its start. A backfill before the open segment leaves it open.
	if open != -1 && segs[open].Start.Before(start) {
		end := cutoff
		segs[open].End = &end
		changed = append(changed, open)
	}

	// Trim the predecessor when it still reaches into the new segment. If
	// the predecessor was the open segment it already ends on the cutoff.
	if prev != -1 && (segs[prev].End == nil || !segs[prev].End.Before(start)) {
		end := cutoff
		segs[prev].End = &end
		if len(changed) == 0 || changed[len(changed)-1] != prev {
			changed = append(changed, prev)
		}
	}

	var newEnd *time.Time
	if next != -1 {
		end := dates.DayBefore(segs[next].Start)
		newEnd = &end
	}

	res := Result{
		NewSegment: models.DutySegment{
			ID:       uuid.New(),
			PersonID: personID,
			Rank:     rank,
			Title:    title,
			Start:    start,
			End:      newEnd,
		},
	}
	for _, i := range changed {
		res.Updated = append(res.Updated, segs[i])
	}
	return res, nil
}

// RemainingOpen returns the existing segment still open after the
// reconciliation, if any. It is distinct from the new segment: when the
// new segment itself is open nothing else can be.
func (r Result) RemainingOpen(existing []models.DutySegment) *models.DutySegment {
	closedNow := make(map[uuid.UUID]bool, len(r.Updated))
	for _, u := range r.Updated {
		if !u.IsOpen() {
			closedNow[u.ID] = true
		}
	}
	for _, s := range existing {
		if s.IsOpen() && !closedNow[s.ID] {
			out := s
			return &out
		}
	}
	return nil
}
