package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"roster/internal/roster/models"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/dates"
	"roster/pkg/platform/sentinel"
)

// Administrative segment edits. These bypass the reconciler on purpose:
// an operator correcting a stored segment is trusted to supply the exact
// dates. They still commit through a guarded ChangeSet, so the
// snapshot-requires-segment invariant holds on these paths too.

// DutyUpdate carries an administrative edit of one stored segment.
type DutyUpdate struct {
	SegmentID uuid.UUID
	Rank      string
	Title     string
	Start     time.Time
	End       *time.Time
}

// UpdateDuty overwrites a stored segment's fields.
func (s *Service) UpdateDuty(ctx context.Context, upd DutyUpdate) error {
	upd.Rank = strings.TrimSpace(upd.Rank)
	upd.Title = strings.TrimSpace(upd.Title)
	switch {
	case upd.SegmentID == uuid.Nil:
		return dErrors.New(dErrors.CodeValidation, "segment id is required")
	case upd.Rank == "":
		return dErrors.New(dErrors.CodeValidation, "rank is required")
	case upd.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case upd.Start.IsZero():
		return dErrors.New(dErrors.CodeValidation, "start date is required")
	}
	start := dates.AtMidnight(upd.Start)
	if upd.End != nil {
		end := dates.AtMidnight(*upd.End)
		if end.Before(start) {
			return dErrors.New(dErrors.CodeValidation, "end date must not precede start date")
		}
		upd.End = &end
	}

	seg, err := s.store.FindSegment(ctx, upd.SegmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "duty segment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find duty segment")
	}

	existing, err := s.store.ListDutySegments(ctx, seg.PersonID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list duty segments")
	}

	seg.Rank = upd.Rank
	seg.Title = upd.Title
	seg.Start = start
	seg.End = upd.End

	cs := models.ChangeSet{
		PersonID:         seg.PersonID,
		UpdateSegments:   []models.DutySegment{*seg},
		BaselineSegments: len(existing),
	}
	if err := s.store.Commit(ctx, cs); err != nil {
		return s.translateCommitErr(ctx, err, seg.PersonID.String())
	}
	s.logger.InfoContext(ctx, "duty segment updated", "segment_id", seg.ID, "person_id", seg.PersonID)
	return nil
}

// RemoveDuty deletes a stored segment. Removing the last segment of a
// person who has a status snapshot fails with an invariant violation and
// leaves both rows untouched.
func (s *Service) RemoveDuty(ctx context.Context, segmentID uuid.UUID) error {
	seg, err := s.store.FindSegment(ctx, segmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "duty segment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find duty segment")
	}

	existing, err := s.store.ListDutySegments(ctx, seg.PersonID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list duty segments")
	}

	cs := models.ChangeSet{
		PersonID:         seg.PersonID,
		RemoveSegmentIDs: []uuid.UUID{segmentID},
		BaselineSegments: len(existing),
	}
	if err := s.store.Commit(ctx, cs); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			s.metrics.IncrementInvariantViolations()
		}
		return s.translateCommitErr(ctx, err, seg.PersonID.String())
	}
	s.logger.InfoContext(ctx, "duty segment removed", "segment_id", segmentID, "person_id", seg.PersonID)
	return nil
}
