package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusSnapshot is the denormalized "current state" row derived from a
// person's duty segments. It exists if and only if the person has at least
// one duty segment; the invariant guard rejects any commit that would break
// that.
//
// CurrentRank and CurrentTitle mirror the open segment (or stay nil after a
// pure historical backfill that left nothing open). CareerStart is the
// earliest start across all segments and only ever moves earlier. CareerEnd
// is set only once a retirement segment becomes current, to the day before
// that segment starts.
type StatusSnapshot struct {
	PersonID     uuid.UUID  `json:"person_id"`
	CurrentRank  *string    `json:"current_rank,omitempty"`
	CurrentTitle *string    `json:"current_title,omitempty"`
	CareerStart  time.Time  `json:"career_start"`
	CareerEnd    *time.Time `json:"career_end,omitempty"`
}

// Clone returns a deep copy, detaching pointer fields from the original.
func (s *StatusSnapshot) Clone() *StatusSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.CurrentRank != nil {
		rank := *s.CurrentRank
		out.CurrentRank = &rank
	}
	if s.CurrentTitle != nil {
		title := *s.CurrentTitle
		out.CurrentTitle = &title
	}
	if s.CareerEnd != nil {
		end := *s.CareerEnd
		out.CareerEnd = &end
	}
	return &out
}
