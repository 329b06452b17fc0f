package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RetiredTitle is the sentinel duty title that ends a career. Matching is
// case-insensitive on the whole title.
const RetiredTitle = "RETIRED"

// DutySegment is one contiguous period of a person holding a rank and title.
// Start and End are calendar days (midnight UTC, see pkg/dates). A nil End
// marks the open segment: the person's current assignment.
//
// Invariants (per person, maintained by the timeline reconciler):
//   - segments are totally ordered by Start and never overlap
//   - at most one segment is open
//   - consecutive segments leave no gap: each closed segment ends the day
//     before its successor starts
type DutySegment struct {
	ID       uuid.UUID  `json:"id"`
	PersonID uuid.UUID  `json:"person_id"`
	Rank     string     `json:"rank"`
	Title    string     `json:"title"`
	Start    time.Time  `json:"start_date"`
	End      *time.Time `json:"end_date,omitempty"`
}

// IsOpen reports whether the segment is the person's current assignment.
func (s DutySegment) IsOpen() bool { return s.End == nil }

// IsRetirement reports whether the segment carries the retirement sentinel title.
func (s DutySegment) IsRetirement() bool {
	return strings.EqualFold(strings.TrimSpace(s.Title), RetiredTitle)
}
