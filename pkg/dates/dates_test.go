package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToDay(t *testing.T) {
	t.Run("keeps the wall-clock day of a zoned timestamp", func(t *testing.T) {
		zone := time.FixedZone("UTC+10", 10*60*60)
		in := time.Date(2020, time.March, 15, 23, 45, 0, 0, zone)

		got := ToDay(in)

		assert.Equal(t, time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("reads UTC-marked timestamps in local time", func(t *testing.T) {
		restore := time.Local
		time.Local = time.FixedZone("UTC-5", -5*60*60)
		defer func() { time.Local = restore }()

		// Midnight UTC is still the previous evening locally.
		in := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)

		got := ToDay(in)

		assert.Equal(t, time.Date(2020, time.March, 14, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("always lands at midnight UTC", func(t *testing.T) {
		got := ToDay(time.Date(2021, time.July, 4, 13, 12, 11, 10, time.FixedZone("X", 3600)))

		assert.Equal(t, time.UTC, got.Location())
		h, m, s := got.Clock()
		assert.Zero(t, h)
		assert.Zero(t, m)
		assert.Zero(t, s)
	})
}

func TestAtMidnight(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2019, time.November, 30, 8, 30, 0, 0, zone)

	got := AtMidnight(in)

	assert.Equal(t, time.Date(2019, time.November, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestDayBefore(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid-month", Day(2020, time.June, 15), Day(2020, time.June, 14)},
		{"first of month", Day(2020, time.March, 1), Day(2020, time.February, 29)},
		{"first of year", Day(2021, time.January, 1), Day(2020, time.December, 31)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DayBefore(tc.in))
		})
	}
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(
		time.Date(2020, time.May, 5, 1, 0, 0, 0, time.UTC),
		time.Date(2020, time.May, 5, 23, 0, 0, 0, time.UTC),
	))
	assert.False(t, SameDay(Day(2020, time.May, 5), Day(2020, time.May, 6)))
}
