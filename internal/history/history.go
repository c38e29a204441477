package history

import (
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/workouts"
)

// MonthSessions is one calendar month of saved workouts, newest first.
type MonthSessions struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Sessions []workouts.Session `json:"sessions"`
}

type ExerciseDetail struct {
	workouts.SessionExercise
	Sets []workouts.SessionSet `json:"sets"`
}

// SessionDetail is one saved workout with its full exercise/set tree.
type SessionDetail struct {
	Session   workouts.Session `json:"session"`
	Exercises []ExerciseDetail `json:"exercises"`
}

// MonthRange returns the inclusive [first, last] date keys of a month.
func MonthRange(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return workouts.DateKey(first), workouts.DateKey(last)
}

func validMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	return nil
}
