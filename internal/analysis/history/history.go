// Package history derives presentation statistics from a snapshot of mood
// entries. Every function is pure: it never mutates its input and gives the
// same answer for the same entries and clock.
package history

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
)

// WeekDays is the number of buckets in Weekly.
const WeekDays = 7

// MoodStat is one row of the mood distribution.
type MoodStat struct {
	Mood       string `json:"mood"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// DayActivity counts the entries of one calendar day.
type DayActivity struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Streaks holds consecutive-day runs.
type Streaks struct {
	Current int `json:"currentStreak"`
	Longest int `json:"longestStreak"`
}

// Summary bundles every statistic shown on the analytics view.
type Summary struct {
	TotalEntries int           `json:"totalEntries"`
	DaysTracked  int           `json:"daysTracked"`
	TopMood      string        `json:"topMood,omitempty"`
	Streaks      Streaks       `json:"streaks"`
	Distribution []MoodStat    `json:"distribution"`
	Weekly       []DayActivity `json:"weekly"`
}

// Distribution groups entries by mood, most frequent first. Equal counts keep
// the order in which the moods first appear.
func Distribution(entries []mood.Entry) []MoodStat {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range entries {
		if _, seen := counts[e.Mood]; !seen {
			order = append(order, e.Mood)
		}
		counts[e.Mood]++
	}

	total := len(entries)
	stats := make([]MoodStat, 0, len(order))
	for _, m := range order {
		stats = append(stats, MoodStat{
			Mood:       m,
			Count:      counts[m],
			Percentage: percentage(counts[m], total),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Weekly counts entries for each of the last seven calendar days, today
// included, oldest first. Days are taken in now's location.
func Weekly(entries []mood.Entry, now time.Time) []DayActivity {
	perDay := make(map[string]int)
	for _, e := range entries {
		perDay[e.Date]++
	}

	today := midnight(now)
	buckets := make([]DayActivity, 0, WeekDays)
	for i := WeekDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		date := mood.DateOf(day)
		buckets = append(buckets, DayActivity{
			Date:  date,
			Day:   day.Weekday().String()[:3],
			Count: perDay[date],
		})
	}
	return buckets
}

// UniqueDates returns the distinct entry dates in ascending order.
func UniqueDates(entries []mood.Entry) []string {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Date] = struct{}{}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates
}

// DaysTracked is the number of distinct entry dates.
func DaysTracked(entries []mood.Entry) int {
	return len(UniqueDates(entries))
}

// ComputeStreaks measures runs of consecutive calendar days. The current
// streak counts back from today, or from yesterday when today has no entry.
// Dates that do not parse are ignored.
func ComputeStreaks(entries []mood.Entry, now time.Time) Streaks {
	days := dayNumbers(UniqueDates(entries))
	if len(days) == 0 {
		return Streaks{}
	}

	present := make(map[int64]struct{}, len(days))
	for _, d := range days {
		present[d] = struct{}{}
	}

	today := dayNumber(midnight(now))
	var current int
	start := today
	if _, ok := present[today]; !ok {
		start = today - 1
	}
	for d := start; ; d-- {
		if _, ok := present[d]; !ok {
			break
		}
		current++
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return Streaks{Current: current, Longest: longest}
}

// Summarize computes every statistic at once.
func Summarize(entries []mood.Entry, now time.Time) Summary {
	dist := Distribution(entries)
	var top string
	if len(dist) > 0 {
		top = dist[0].Mood
	}
	return Summary{
		TotalEntries: len(entries),
		DaysTracked:  DaysTracked(entries),
		TopMood:      top,
		Streaks:      ComputeStreaks(entries, now),
		Distribution: dist,
		Weekly:       Weekly(entries, now),
	}
}

// midnight returns the calendar day of t as UTC midnight, so day arithmetic
// is free of DST shifts.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayNumber(t time.Time) int64 {
	return t.Unix() / 86400
}

// dayNumbers parses sorted dates into ascending day numbers.
func dayNumbers(dates []string) []int64 {
	days := make([]int64, 0, len(dates))
	for _, s := range dates {
		t, err := mood.ParseDate(s)
		if err != nil {
			continue
		}
		days = append(days, dayNumber(t))
	}
	return days
}
