package models

import "github.com/google/uuid"

// ChangeSet is the tagged transaction request handed to a Store. Every
// mutation of a person's timeline goes through exactly one ChangeSet commit
// so the invariant guard cannot be bypassed by a new write path. Either the
// whole set applies or none of it does.
//
// BaselineSegments carries the committed segment count the caller observed
// when it computed the change. A store that finds a different committed
// count at commit time must fail with sentinel.ErrConflict so the caller
// retries from a fresh read; this is what serializes racing insertions for
// the same person.
type ChangeSet struct {
	PersonID         uuid.UUID
	AddSegments      []DutySegment
	UpdateSegments   []DutySegment
	RemoveSegmentIDs []uuid.UUID
	Snapshot         *StatusSnapshot
	RemoveSnapshot   bool
	BaselineSegments int
}

// Empty reports whether the change set carries no mutations at all.
func (cs ChangeSet) Empty() bool {
	return len(cs.AddSegments) == 0 &&
		len(cs.UpdateSegments) == 0 &&
		len(cs.RemoveSegmentIDs) == 0 &&
		cs.Snapshot == nil &&
		!cs.RemoveSnapshot
}

// SegmentDelta is the net change this commit makes to the person's segment count.
func (cs ChangeSet) SegmentDelta() int {
	return len(cs.AddSegments) - len(cs.RemoveSegmentIDs)
}
