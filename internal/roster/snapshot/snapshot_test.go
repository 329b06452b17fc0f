package snapshot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"roster/internal/roster/models"
	"roster/internal/roster/timeline"
	"roster/pkg/dates"
)

type SnapshotSuite struct {
	suite.Suite
	personID uuid.UUID
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotSuite))
}

func (s *SnapshotSuite) SetupTest() {
	s.personID = uuid.New()
}

func (s *SnapshotSuite) reconcile(existing []models.DutySegment, start time.Time, rank, title string) timeline.Result {
	res, err := timeline.Reconcile(existing, s.personID, start, rank, title)
	s.Require().NoError(err)
	return res
}

func (s *SnapshotSuite) TestFirstInsertionSetsCurrentFields() {
	res := s.reconcile(nil, dates.Day(2020, time.January, 10), "LT", "Pilot")

	snap := Apply(nil, s.personID, nil, res)

	s.Equal(s.personID, snap.PersonID)
	s.Equal(dates.Day(2020, time.January, 10), snap.CareerStart)
	s.Require().NotNil(snap.CurrentRank)
	s.Equal("LT", *snap.CurrentRank)
	s.Require().NotNil(snap.CurrentTitle)
	s.Equal("Pilot", *snap.CurrentTitle)
	s.Nil(snap.CareerEnd)
}

func (s *SnapshotSuite) TestAppendOverwritesCurrentFields() {
	first := s.reconcile(nil, dates.Day(2020, time.January, 10), "LT", "Pilot")
	existing := []models.DutySegment{first.NewSegment}
	prior := Apply(nil, s.personID, nil, first)

	second := s.reconcile(existing, dates.Day(2020, time.June, 1), "CAPT", "Commander")
	snap := Apply(prior, s.personID, existing, second)

	s.Equal(dates.Day(2020, time.January, 10), snap.CareerStart)
	s.Equal("CAPT", *snap.CurrentRank)
	s.Equal("Commander", *snap.CurrentTitle)
}

func (s *SnapshotSuite) TestBackfillMovesCareerStartOnly() {
	first := s.reconcile(nil, dates.Day(2020, time.June, 1), "CAPT", "Commander")
	existing := []models.DutySegment{first.NewSegment}
	prior := Apply(nil, s.personID, nil, first)

	backfill := s.reconcile(existing, dates.Day(2019, time.March, 1), "LT", "Pilot")
	snap := Apply(prior, s.personID, existing, backfill)

	s.Equal(dates.Day(2019, time.March, 1), snap.CareerStart)
	// Current fields still reflect the open commander segment.
	s.Equal("CAPT", *snap.CurrentRank)
	s.Equal("Commander", *snap.CurrentTitle)
}

func (s *SnapshotSuite) TestCareerStartNeverMovesLater() {
	prior := &models.StatusSnapshot{
		PersonID:    s.personID,
		CareerStart: dates.Day(2018, time.January, 1),
	}
	seg := models.DutySegment{
		ID: uuid.New(), PersonID: s.personID,
		Rank: "LT", Title: "Pilot",
		Start: dates.Day(2018, time.January, 1),
	}

	res := s.reconcile([]models.DutySegment{seg}, dates.Day(2020, time.June, 1), "CAPT", "Commander")
	snap := Apply(prior, s.personID, []models.DutySegment{seg}, res)

	s.Equal(dates.Day(2018, time.January, 1), snap.CareerStart)
}

func (s *SnapshotSuite) TestRetirementSetsCareerEnd() {
	first := s.reconcile(nil, dates.Day(2020, time.January, 10), "LT", "Pilot")
	existing := []models.DutySegment{first.NewSegment}
	prior := Apply(nil, s.personID, nil, first)

	retire := s.reconcile(existing, dates.Day(2021, time.April, 1), "CAPT", "RETIRED")
	snap := Apply(prior, s.personID, existing, retire)

	s.Require().NotNil(snap.CareerEnd)
	s.Equal(dates.Day(2021, time.March, 31), *snap.CareerEnd)
	s.Equal("RETIRED", *snap.CurrentTitle)
}

func (s *SnapshotSuite) TestRetirementTitleIsCaseInsensitive() {
	res := s.reconcile(nil, dates.Day(2021, time.April, 1), "CAPT", "Retired")

	snap := Apply(nil, s.personID, nil, res)

	s.Require().NotNil(snap.CareerEnd)
	s.Equal(dates.Day(2021, time.March, 31), *snap.CareerEnd)
}

func (s *SnapshotSuite) TestFirstInsertionAsBackfillKeepsExistingOpenCurrent() {
	// Segments exist but no snapshot does yet. The surviving open segment,
	// not the backfilled one, supplies the current fields.
	open := models.DutySegment{
		ID: uuid.New(), PersonID: s.personID,
		Rank: "CAPT", Title: "Commander",
		Start: dates.Day(2020, time.June, 1),
	}
	existing := []models.DutySegment{open}

	res := s.reconcile(existing, dates.Day(2019, time.January, 1), "LT", "Pilot")
	snap := Apply(nil, s.personID, existing, res)

	s.Equal(dates.Day(2019, time.January, 1), snap.CareerStart)
	s.Require().NotNil(snap.CurrentRank)
	s.Equal("CAPT", *snap.CurrentRank)
	s.Equal("Commander", *snap.CurrentTitle)
}

func (s *SnapshotSuite) TestPureHistoricalBackfillLeavesCurrentEmpty() {
	// Every segment is closed after reconciliation and no snapshot existed:
	// career start is known but nobody is current.
	end := dates.Day(2020, time.December, 31)
	closed := models.DutySegment{
		ID: uuid.New(), PersonID: s.personID,
		Rank: "CAPT", Title: "Commander",
		Start: dates.Day(2020, time.June, 1), End: &end,
	}
	s.Require().False(closed.IsOpen())
	existing := []models.DutySegment{closed}

	res := s.reconcile(existing, dates.Day(2019, time.January, 1), "LT", "Pilot")
	snap := Apply(nil, s.personID, existing, res)

	s.Nil(snap.CurrentRank)
	s.Nil(snap.CurrentTitle)
}

func (s *SnapshotSuite) TestApplyDoesNotMutatePriorSnapshot() {
	prior := Apply(nil, s.personID, nil, s.reconcile(nil, dates.Day(2020, time.January, 10), "LT", "Pilot"))
	existing := []models.DutySegment{{
		ID: uuid.New(), PersonID: s.personID,
		Rank: "LT", Title: "Pilot",
		Start: dates.Day(2020, time.January, 10),
	}}

	res := s.reconcile(existing, dates.Day(2020, time.June, 1), "CAPT", "Commander")
	_ = Apply(prior, s.personID, existing, res)

	s.Equal("LT", *prior.CurrentRank)
	s.Equal("Pilot", *prior.CurrentTitle)
}
