package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
)

func entriesOn(dates ...string) []mood.Entry {
	out := make([]mood.Entry, 0, len(dates))
	for i, d := range dates {
		out = append(out, mood.Entry{ID: d + string(rune('a'+i)), Mood: "calm", Date: d})
	}
	return out
}

// 2024-03-15 is a Friday.
var friday = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func TestDistribution(t *testing.T) {
	entries := []mood.Entry{{Mood: "happy"}, {Mood: "happy"}, {Mood: "sad"}}

	assert.Equal(t, []MoodStat{
		{Mood: "happy", Count: 2, Percentage: 67},
		{Mood: "sad", Count: 1, Percentage: 33},
	}, Distribution(entries))
}

func TestDistributionTiesKeepFirstAppearance(t *testing.T) {
	entries := []mood.Entry{{Mood: "tired"}, {Mood: "calm"}, {Mood: "calm"}, {Mood: "tired"}, {Mood: "sad"}}

	stats := Distribution(entries)
	require.Len(t, stats, 3)
	assert.Equal(t, "tired", stats[0].Mood)
	assert.Equal(t, "calm", stats[1].Mood)
	assert.Equal(t, 40, stats[0].Percentage)
	assert.Equal(t, 20, stats[2].Percentage)
}

func TestDistributionEmpty(t *testing.T) {
	assert.Empty(t, Distribution(nil))
}

func TestWeekly(t *testing.T) {
	entries := entriesOn("2024-03-15", "2024-03-15", "2024-03-09", "2024-03-08", "2024-03-16")

	week := Weekly(entries, friday)
	require.Len(t, week, WeekDays)

	assert.Equal(t, DayActivity{Date: "2024-03-09", Day: "Sat", Count: 1}, week[0])
	assert.Equal(t, DayActivity{Date: "2024-03-15", Day: "Fri", Count: 2}, week[6])
	for _, d := range week[1:6] {
		assert.Zero(t, d.Count, d.Date)
	}
}

func TestWeeklyUsesClockLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2024-03-15 20:00 UTC is already the 16th in Tokyo.
	now := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC).In(tokyo)

	week := Weekly(nil, now)
	assert.Equal(t, "2024-03-16", week[6].Date)
	assert.Equal(t, "Sat", week[6].Day)
}

func TestStreaksGapBeforeToday(t *testing.T) {
	// Mon-Wed, then Fri; today is Fri.
	entries := entriesOn("2024-03-11", "2024-03-12", "2024-03-13", "2024-03-15")

	assert.Equal(t, Streaks{Current: 1, Longest: 3}, ComputeStreaks(entries, friday))
}

func TestStreaksCountFromYesterday(t *testing.T) {
	entries := entriesOn("2024-03-12", "2024-03-13", "2024-03-14")

	assert.Equal(t, Streaks{Current: 3, Longest: 3}, ComputeStreaks(entries, friday))
}

func TestStreaksBroken(t *testing.T) {
	entries := entriesOn("2024-03-01", "2024-03-02", "2024-03-13")

	assert.Equal(t, Streaks{Current: 0, Longest: 2}, ComputeStreaks(entries, friday))
}

func TestStreaksSingleDate(t *testing.T) {
	assert.Equal(t, Streaks{Current: 1, Longest: 1}, ComputeStreaks(entriesOn("2024-03-15"), friday))
	assert.Equal(t, Streaks{Current: 1, Longest: 1}, ComputeStreaks(entriesOn("2024-03-14"), friday))
	assert.Equal(t, Streaks{Current: 0, Longest: 1}, ComputeStreaks(entriesOn("2024-01-01"), friday))
	assert.Equal(t, Streaks{}, ComputeStreaks(nil, friday))
}

func TestStreaksAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := entriesOn("2024-02-28", "2024-02-29", "2024-03-01")

	assert.Equal(t, Streaks{Current: 3, Longest: 3}, ComputeStreaks(entries, now))
}

func TestStreaksIgnoreOrderAndDuplicates(t *testing.T) {
	a := entriesOn("2024-03-15", "2024-03-13", "2024-03-14", "2024-03-14")
	b := entriesOn("2024-03-14", "2024-03-15", "2024-03-14", "2024-03-13")

	assert.Equal(t, ComputeStreaks(a, friday), ComputeStreaks(b, friday))
	assert.Equal(t, 3, DaysTracked(a))
}

func TestUnparseableDatesCountButDoNotStreak(t *testing.T) {
	entries := entriesOn("garbage", "2024-03-15")

	assert.Equal(t, 2, DaysTracked(entries))
	assert.Equal(t, Streaks{Current: 1, Longest: 1}, ComputeStreaks(entries, friday))
}

func TestSummarize(t *testing.T) {
	entries := []mood.Entry{
		{Mood: "happy", Date: "2024-03-15"},
		{Mood: "sad", Date: "2024-03-14"},
		{Mood: "happy", Date: "2024-03-14"},
	}

	s := Summarize(entries, friday)
	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, 2, s.DaysTracked)
	assert.Equal(t, "happy", s.TopMood)
	assert.Equal(t, Streaks{Current: 2, Longest: 2}, s.Streaks)
	assert.Len(t, s.Weekly, WeekDays)

	empty := Summarize(nil, friday)
	assert.Empty(t, empty.TopMood)
	assert.Zero(t, empty.TotalEntries)
}
