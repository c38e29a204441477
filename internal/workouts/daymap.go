package workouts

import (
	"fmt"
	"regexp"
	"time"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateKey renders the local calendar date as YYYY-MM-DD. The date is
// the identity of a workout session, one session per day.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

func ValidDateKey(dateKey string) bool {
	return dateKeyPattern.MatchString(dateKey)
}

// MapDay picks the routine day for a calendar date from the weekly
// rotation: Monday gets index 0, and the rotation wraps when shorter
// than a week. Mapping is deterministic and repeats every 7 days.
// fallback is used when dayOrder is empty; returns "" when both are.
func MapDay(dayOrder, fallback []string, date time.Time) string {
	orderedDayIDs := dayOrder
	if len(orderedDayIDs) == 0 {
		orderedDayIDs = fallback
	}
	if len(orderedDayIDs) == 0 {
		return ""
	}

	mondayBasedWeekday := (int(date.Weekday()) + 6) % 7
	return orderedDayIDs[mondayBasedWeekday%len(orderedDayIDs)]
}
