// Package snapshot derives a person's status snapshot from a reconciled
// duty timeline. All functions are pure; persistence happens in the store.
package snapshot

import (
	"github.com/google/uuid"

	"roster/internal/roster/models"
	"roster/internal/roster/timeline"
	"roster/pkg/dates"
)

// Apply computes the snapshot row to upsert after inserting a duty.
//
// Career start is the earliest start across all segments and only moves
// earlier. On first insertion the current fields mirror whichever segment
// is left current: an existing segment that survived reconciliation still
// open, else the new segment if it ended up open, else nothing (a pure
// historical backfill leaves them nil). On later insertions the current
// fields are overwritten only when the new segment itself became the open
// one; backfills touch career start alone.
//
// Career end is set when the chosen current segment carries the retirement
// title, to the day before that segment starts.
func Apply(existing *models.StatusSnapshot, personID uuid.UUID, preInsert []models.DutySegment, res timeline.Result) *models.StatusSnapshot {
	earliest := dates.AtMidnight(res.NewSegment.Start)
	for _, s := range preInsert {
		if s.Start.Before(earliest) {
			earliest = dates.AtMidnight(s.Start)
		}
	}

	if existing == nil {
		snap := &models.StatusSnapshot{PersonID: personID, CareerStart: earliest}
		current := res.RemainingOpen(preInsert)
		if current == nil && res.NewSegmentIsCurrent() {
			seg := res.NewSegment
			current = &seg
		}
		if current != nil {
			setCurrent(snap, *current)
		}
		return snap
	}

	snap := existing.Clone()
	if snap.CareerStart.IsZero() || earliest.Before(snap.CareerStart) {
		snap.CareerStart = earliest
	}
	if res.NewSegmentIsCurrent() {
		setCurrent(snap, res.NewSegment)
	}
	return snap
}

func setCurrent(snap *models.StatusSnapshot, seg models.DutySegment) {
	rank, title := seg.Rank, seg.Title
	snap.CurrentRank = &rank
	snap.CurrentTitle = &title
	if seg.IsRetirement() {
		end := dates.DayBefore(seg.Start)
		snap.CareerEnd = &end
	}
}
