package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestTimesOn_TwiceDaily(t *testing.T) {
	times, err := TimesOn("0 8,20 * * *", day(t, "2026-10-16 13:37"))
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "20:00"}, times)
}

func TestTimesOn_IncludesMidnight(t *testing.T) {
	times, err := TimesOn("0 0,12 * * *", day(t, "2026-10-16 23:59"))
	require.NoError(t, err)
	assert.Equal(t, []string{"00:00", "12:00"}, times)
}

func TestTimesOn_WeekdayFilter(t *testing.T) {
	// 2026-10-16 is a Friday; 2026-10-19 is a Monday.
	none, err := TimesOn("30 9 * * 1", day(t, "2026-10-16 08:00"))
	require.NoError(t, err)
	assert.Empty(t, none)

	monday, err := TimesOn("30 9 * * 1", day(t, "2026-10-19 08:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30"}, monday)
}

func TestTimesOn_InvalidExpression(t *testing.T) {
	_, err := TimesOn("every day", day(t, "2026-10-16 08:00"))
	assert.Error(t, err)
}
