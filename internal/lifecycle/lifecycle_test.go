package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfeed/internal/model"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestParseEventDate(t *testing.T) {
	cases := []struct {
		name  string
		date  string
		clock string
		want  time.Time
	}{
		{"date only", "2026/01/24", "", utc(2026, 1, 24, 0, 0)},
		{"with time", "2026/01/24", "17:30", utc(2026, 1, 24, 17, 30)},
		{"blank time", "2026/01/24", "   ", utc(2026, 1, 24, 0, 0)},
		{"hours only", "2026/01/24", "09", utc(2026, 1, 24, 9, 0)},
		{"rolls over", "2026/02/30", "", utc(2026, 3, 2, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEventDate(tc.date, tc.clock)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %v want %v", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseEventDateIsDeterministic(t *testing.T) {
	a, err := ParseEventDate("2026/01/24", "10:15")
	require.NoError(t, err)
	b, err := ParseEventDate("2026/01/24", "10:15")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestParseEventDateDefaultTime(t *testing.T) {
	a, err := ParseEventDate("2026/01/24", "")
	require.NoError(t, err)
	b, err := ParseEventDate("2026/01/24", "00:00")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestParseEventDateInvalid(t *testing.T) {
	cases := [][2]string{
		{"2026-01-24", ""},
		{"2026/xx/24", ""},
		{"", ""},
		{"2026/01/24", "ab:00"},
		{"2026/01/24", "10:cd"},
	}
	for _, c := range cases {
		_, err := ParseEventDate(c[0], c[1])
		assert.True(t, errors.Is(err, ErrInvalidDateFormat), "%q %q: %v", c[0], c[1], err)
	}
}

func TestInstantRoundTrip(t *testing.T) {
	in := time.Date(2026, 1, 24, 17, 5, 9, 123, time.FixedZone("X", 3*3600))
	s := FormatInstant(in)
	assert.Equal(t, "20260124T140509Z", s)

	back, err := ParseInstant(s)
	require.NoError(t, err)
	assert.True(t, in.Truncate(time.Second).Equal(back))

	_, err = ParseInstant("2026-01-24")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestComputeState(t *testing.T) {
	cases := []struct {
		name string
		date model.DateInfo
		now  time.Time
		want model.State
	}{
		{
			name: "upcoming",
			date: model.DateInfo{Start: "2026/01/24"},
			now:  utc(2026, 1, 20, 0, 0),
			want: model.StateUpcoming,
		},
		{
			name: "same day grace after explicit end",
			date: model.DateInfo{Start: "2026/01/24", StartTime: "10:00", End: "2026/01/24", EndTime: "12:00"},
			now:  utc(2026, 1, 24, 23, 0),
			want: model.StateOngoing,
		},
		{
			name: "default window",
			date: model.DateInfo{Start: "2026/01/24", StartTime: "17:00"},
			now:  utc(2026, 1, 24, 20, 0),
			want: model.StateOngoing,
		},
		{
			name: "default window crossing midnight",
			date: model.DateInfo{Start: "2026/01/24", StartTime: "22:00"},
			now:  utc(2026, 1, 25, 3, 59),
			want: model.StateOngoing,
		},
		{
			name: "end day grace applies to implicit end",
			date: model.DateInfo{Start: "2026/01/24", StartTime: "22:00"},
			now:  utc(2026, 1, 25, 23, 59),
			want: model.StateOngoing,
		},
		{
			name: "multi day in the middle",
			date: model.DateInfo{Start: "2026/01/20", End: "2026/01/26", EndTime: "18:00"},
			now:  utc(2026, 1, 22, 12, 0),
			want: model.StateOngoing,
		},
		{
			name: "starts exactly now",
			date: model.DateInfo{Start: "2026/01/24", StartTime: "10:00", End: "2026/01/25"},
			now:  utc(2026, 1, 24, 10, 0),
			want: model.StateOngoing,
		},
		{
			name: "prior day",
			date: model.DateInfo{Start: "2026/01/22", StartTime: "10:00", End: "2026/01/22", EndTime: "12:00"},
			now:  utc(2026, 1, 24, 0, 30),
			want: model.StatePast,
		},
		{
			name: "end date without time ends at midnight",
			date: model.DateInfo{Start: "2026/01/22", End: "2026/01/23"},
			now:  utc(2026, 1, 24, 0, 0),
			want: model.StatePast,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeState(tc.date, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeStateInvalidFailsClosed(t *testing.T) {
	now := utc(2020, 1, 1, 0, 0)

	got, err := ComputeState(model.DateInfo{Start: "soon"}, now)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	assert.Equal(t, model.StatePast, got)

	got, err = ComputeState(model.DateInfo{Start: "2030/01/01", End: "later"}, now)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	assert.Equal(t, model.StatePast, got)
}

func TestBoundsDefaultWindow(t *testing.T) {
	start, end, err := Bounds(model.DateInfo{Start: "2026/01/24", StartTime: "17:00"})
	require.NoError(t, err)
	assert.Equal(t, OngoingWindow, end.Sub(start))
}

func TestClassifyAllKeepsOrderAndDegradesInvalid(t *testing.T) {
	recs := []model.EventRecord{
		{ID: "a", Date: model.DateInfo{Start: "2026/02/01"}},
		{ID: "b", Date: model.DateInfo{Start: "bad"}},
		{ID: "c", Date: model.DateInfo{Start: "2026/01/01"}},
	}
	got := ClassifyAll(recs, utc(2026, 1, 20, 0, 0))
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, model.StateUpcoming, got[0].ComputedState)
	assert.Equal(t, model.StatePast, got[1].ComputedState)
	assert.Equal(t, model.StatePast, got[2].ComputedState)
}

func TestClassifyIgnoresManualState(t *testing.T) {
	rec := model.EventRecord{ID: "x", State: model.StateCanceled, Date: model.DateInfo{Start: "2026/02/01"}}
	got := Classify(rec, utc(2026, 1, 20, 0, 0))
	assert.Equal(t, model.StateUpcoming, got.ComputedState)
	assert.Equal(t, model.StateCanceled, got.State)
}
