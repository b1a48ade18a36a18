package service

import (
	"fmt"
	"time"
)

// Weeks run Monday 00:00 UTC through Sunday. All bucketing in the pipeline
// goes through these helpers so every component agrees on boundaries.

func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekEnd is the Sunday of the week that starts at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

func PrevWeekStart(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, -7)
}

// PeriodLabel renders the human label shown on delivered reports,
// e.g. "Week 12 · Mar 3–Mar 9".
func PeriodLabel(weekNumber int, weekStart, weekEnd time.Time) string {
	return fmt.Sprintf("Week %d · %s–%s", weekNumber, weekStart.Format("Jan 2"), weekEnd.Format("Jan 2"))
}
