package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s not available: %v", name, err)
	}
	return loc
}

func TestStartOfWeek_SundayStartOnWednesday(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	wed := time.Date(2024, 3, 6, 15, 42, 11, 0, loc)
	require.Equal(t, time.Wednesday, wed.Weekday())

	got := StartOfWeek(wed, time.Sunday)
	assert.Equal(t, time.Sunday, got.Weekday())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, 0, got.Second())
	assert.Equal(t, 3, got.Day())
}

func TestStartOfWeek_OnStartDay(t *testing.T) {
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.True(t, StartOfWeek(mon, time.Monday).Equal(mon))
	assert.True(t, StartOfWeek(mon.Add(23*time.Hour), time.Monday).Equal(mon))
}

func TestStartOfWeek_AcrossDSTUsesLocalMidnight(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	// DST began 2024-03-10 at 02:00 local.
	tue := time.Date(2024, 3, 12, 9, 0, 0, 0, loc)
	got := StartOfWeek(tue, time.Sunday)
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestCurrentAndPreviousWeek(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	cur := CurrentWeek(now, time.Monday)
	assert.Equal(t, 7*Day, cur.End.Sub(cur.Start))
	assert.True(t, cur.Contains(now))
	assert.False(t, cur.Contains(cur.End))
	assert.True(t, cur.Contains(cur.Start))

	prev := PreviousWeek(now, time.Monday)
	assert.True(t, prev.End.Equal(cur.Start))
	assert.Equal(t, 7*Day, prev.End.Sub(prev.Start))
}

func TestRolling(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	r := Rolling(7, now)
	assert.True(t, r.End.Equal(now))
	assert.Equal(t, 7*Day, now.Sub(r.Start))
	assert.True(t, r.ContainsInclusive(now))
	assert.False(t, r.Contains(now))
}

func TestLastDayOfWeek(t *testing.T) {
	assert.Equal(t, time.Sunday, LastDayOfWeek(time.Monday))
	assert.Equal(t, time.Saturday, LastDayOfWeek(time.Sunday))

	sun := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.True(t, IsLastDayOfWeek(sun, time.Monday))
	assert.False(t, IsLastDayOfWeek(sun, time.Sunday))
	assert.Equal(t, 10, StartOfLastDay(sun, time.Monday).Day())
}

func TestNormalizeWeekStart(t *testing.T) {
	assert.Equal(t, time.Sunday, NormalizeWeekStart(7))
	assert.Equal(t, time.Saturday, NormalizeWeekStart(-1))
	assert.Equal(t, time.Wednesday, NormalizeWeekStart(3))
}

func TestWeekIDAndISO(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-W10", WeekID(start))
	assert.Equal(t, "2024-03-04T00:00:00.000Z", ISO(start))
}

func TestDaysIn(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	days := DaysIn(CurrentWeek(now, time.Monday))
	require.Len(t, days, 7)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Sunday, days[6].Weekday())
}
