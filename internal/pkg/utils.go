package pkg

import (
	"math"
	"time"
)

// StartOfDay returns midnight UTC of the given instant. Daily limits are
// evaluated against the UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// Round2 rounds monetary amounts to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
