package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "roster/pkg/domain-errors"
)

func TestNewPerson(t *testing.T) {
	now := time.Now().UTC()

	t.Run("trims the display name", func(t *testing.T) {
		p, err := NewPerson("  John Young  ", now)
		require.NoError(t, err)
		assert.Equal(t, "John Young", p.Name)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := NewPerson("   ", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects names over 200 characters", func(t *testing.T) {
		_, err := NewPerson(strings.Repeat("x", 201), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestNormalizedName(t *testing.T) {
	assert.Equal(t, NormalizedName("john young"), NormalizedName("  JOHN Young "))
}

func TestDutySegmentIsRetirement(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"RETIRED", true},
		{"retired", true},
		{"  Retired  ", true},
		{"Commander", false},
		{"RETIRED Pilot", false},
	}
	for _, tc := range tests {
		seg := DutySegment{Title: tc.title}
		assert.Equal(t, tc.want, seg.IsRetirement(), "title %q", tc.title)
	}
}

func TestChangeSet(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, ChangeSet{PersonID: uuid.New(), BaselineSegments: 3}.Empty())
		assert.False(t, ChangeSet{AddSegments: []DutySegment{{}}}.Empty())
		assert.False(t, ChangeSet{RemoveSnapshot: true}.Empty())
	})

	t.Run("segment delta", func(t *testing.T) {
		cs := ChangeSet{
			AddSegments:      []DutySegment{{}, {}},
			UpdateSegments:   []DutySegment{{}},
			RemoveSegmentIDs: []uuid.UUID{uuid.New()},
		}
		assert.Equal(t, 1, cs.SegmentDelta())
	})
}

func TestStatusSnapshotClone(t *testing.T) {
	rank, title := "CAPT", "Commander"
	end := time.Date(2021, time.March, 31, 0, 0, 0, 0, time.UTC)
	orig := &StatusSnapshot{
		PersonID:     uuid.New(),
		CurrentRank:  &rank,
		CurrentTitle: &title,
		CareerStart:  time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		CareerEnd:    &end,
	}

	clone := orig.Clone()
	*clone.CurrentRank = "LT"
	*clone.CareerEnd = clone.CareerEnd.AddDate(1, 0, 0)

	assert.Equal(t, "CAPT", *orig.CurrentRank)
	assert.Equal(t, end, *orig.CareerEnd)

	var nilSnap *StatusSnapshot
	assert.Nil(t, nilSnap.Clone())
}
