// Package guard enforces the cross-entity invariant that a status snapshot
// never exists without at least one backing duty segment.
//
// Every store commit path must call Check inside the same transaction as
// the write, against the committed state that transaction sees. The check
// is deliberately a plain function taking the tagged change set, not a
// save hook, so adding a new write path cannot silently bypass it.
package guard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"roster/internal/roster/models"
	dErrors "roster/pkg/domain-errors"
)

// CommittedView exposes the committed state visible inside the commit's
// own transaction. Counts must not reflect the pending change set.
type CommittedView interface {
	CountSegments(ctx context.Context, personID uuid.UUID) (int, error)
	HasSnapshot(ctx context.Context, personID uuid.UUID) (bool, error)
}

// Check rejects any change set that would leave the person's snapshot in
// place with zero duty segments. The projected count is the committed
// count plus pending additions minus pending removals.
func Check(ctx context.Context, view CommittedView, cs models.ChangeSet) error {
	willHaveSnapshot := cs.Snapshot != nil
	if !willHaveSnapshot && !cs.RemoveSnapshot {
		has, err := view.HasSnapshot(ctx, cs.PersonID)
		if err != nil {
			return fmt.Errorf("guard: check snapshot: %w", err)
		}
		willHaveSnapshot = has
	}
	if !willHaveSnapshot {
		return nil
	}

	committed, err := view.CountSegments(ctx, cs.PersonID)
	if err != nil {
		return fmt.Errorf("guard: count segments: %w", err)
	}
	if committed+cs.SegmentDelta() <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("person %s would keep a status snapshot with no duty segments", cs.PersonID))
	}
	return nil
}
