package sqlquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/models"
)

// Tuesday 2026-08-25 14:30 UTC.
var pinnedNow = time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)

func TestResolveRangeCalendarTokens(t *testing.T) {
	cases := []struct {
		token      string
		start, end time.Time
	}{
		{"today",
			time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},
		{"yesterday",
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)},
		{"this_week",
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), // Monday
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
		{"this_month",
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"this_year",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			w, err := ResolveRange(models.RangeToken(tc.token), pinnedNow)
			require.NoError(t, err)
			assert.True(t, tc.start.Equal(w.Start), "start: got %v", w.Start)
			assert.True(t, tc.end.Equal(w.End), "end: got %v", w.End)
			assert.Equal(t, tc.token, w.Label)
		})
	}
}

func TestResolveRangeRollingTokens(t *testing.T) {
	w, err := ResolveRange("last_24_hours", pinnedNow)
	require.NoError(t, err)
	assert.True(t, pinnedNow.Add(-24*time.Hour).Equal(w.Start))
	assert.True(t, pinnedNow.Equal(w.End))

	w, err = ResolveRange("last_30_minutes", pinnedNow)
	require.NoError(t, err)
	assert.True(t, pinnedNow.Add(-30*time.Minute).Equal(w.Start))

	w, err = ResolveRange("last_week", pinnedNow)
	require.NoError(t, err)
	assert.True(t, pinnedNow.AddDate(0, 0, -7).Equal(w.Start))
	assert.True(t, pinnedNow.Equal(w.End))
}

func TestResolveRangeAgoTokens(t *testing.T) {
	// 3_hours_ago is a one-hour slice starting three hours back.
	w, err := ResolveRange("3_hours_ago", pinnedNow)
	require.NoError(t, err)
	assert.True(t, pinnedNow.Add(-3*time.Hour).Equal(w.Start))
	assert.True(t, pinnedNow.Add(-2*time.Hour).Equal(w.End))

	// 2_days_ago is that whole calendar day.
	w, err = ResolveRange("2_days_ago", pinnedNow)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.True(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC).Equal(w.End))

	// 1_weeks_ago is the previous Monday-to-Monday week.
	w, err = ResolveRange("1_weeks_ago", pinnedNow)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.True(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC).Equal(w.End))
}

func TestResolveRangePreviousTokens(t *testing.T) {
	// previous_7_days is the 7-day window before the most recent 7 days.
	w, err := ResolveRange("previous_7_days", pinnedNow)
	require.NoError(t, err)
	assert.True(t, pinnedNow.AddDate(0, 0, -14).Equal(w.Start))
	assert.True(t, pinnedNow.AddDate(0, 0, -7).Equal(w.End))
}

func TestResolveRangeUnknownToken(t *testing.T) {
	_, err := ResolveRange("next_week", pinnedNow)
	assert.Error(t, err)
}

func TestWindowsAreHalfOpen(t *testing.T) {
	today, err := ResolveRange("today", pinnedNow)
	require.NoError(t, err)
	yesterday, err := ResolveRange("yesterday", pinnedNow)
	require.NoError(t, err)
	assert.True(t, yesterday.End.Equal(today.Start), "adjacent windows must not overlap")
}
