package workouts

import (
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/exercises"
)

type Session struct {
	UserID              int        `json:"-"`
	Date                string     `json:"date"`
	StartedAt           time.Time  `json:"startedAt"`
	EndedAt             *time.Time `json:"endedAt,omitempty"`
	RoutineID           *int       `json:"routineId,omitempty"`
	RoutineType         string     `json:"routineType,omitempty"`
	RoutineDayID        string     `json:"routineDayId,omitempty"`
	RoutineDayLabel     string     `json:"routineDayLabel,omitempty"`
	IsFromActiveRoutine bool       `json:"isFromActiveRoutine"`
	HasSessionOverrides bool       `json:"hasSessionOverrides"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type SessionExercise struct {
	UserID       int    `json:"-"`
	Date         string `json:"-"`
	ID           string `json:"id"`
	ExerciseID   *int   `json:"exerciseId,omitempty"`
	NameSnapshot string `json:"nameSnapshot"`
	Ord          int    `json:"order"`
	Notes        string `json:"notes,omitempty"`
}

type SessionSet struct {
	UserID       int     `json:"-"`
	Date         string  `json:"-"`
	ExerciseRef  string  `json:"-"`
	ID           string  `json:"id"`
	Ord          int     `json:"order"`
	Reps         int     `json:"reps"`
	WeightKg     float64 `json:"weightKg"`
	RPE          *int    `json:"rpe,omitempty"`
	MachineID    *int    `json:"machineId,omitempty"`
	MachineLabel string  `json:"machineLabel,omitempty"`
}

type DraftSet struct {
	ID           string  `json:"id"`
	Ord          int     `json:"order"`
	Reps         int     `json:"reps"`
	WeightKg     float64 `json:"weightKg"`
	RPE          *int    `json:"rpe,omitempty"`
	MachineID    *int    `json:"machineId,omitempty"`
	MachineLabel string  `json:"machineLabel,omitempty"`
}

type DraftMachine struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type DraftExercise struct {
	ID                string         `json:"id"`
	Ord               int            `json:"order"`
	ExerciseID        *int           `json:"exerciseId,omitempty"`
	NameSnapshot      string         `json:"nameSnapshot"`
	TargetRepsMin     int            `json:"targetRepsMin,omitempty"`
	TargetRepsMax     int            `json:"targetRepsMax,omitempty"`
	TargetSets        int            `json:"targetSets,omitempty"`
	Sets              []DraftSet     `json:"sets"`
	AvailableMachines []DraftMachine `json:"availableMachines"`
}

type DayRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Draft is the materialized view of "today's workout": either the
// persisted session for the date, or a fresh template generated from
// the mapped routine day. Building it never writes anything.
type Draft struct {
	DateKey             string               `json:"dateKey"`
	HasActiveSession    bool                 `json:"hasActiveSession"`
	RoutineID           *int                 `json:"routineId,omitempty"`
	RoutineType         string               `json:"routineType,omitempty"`
	RoutineName         string               `json:"routineName,omitempty"`
	RoutineDayID        string               `json:"routineDayId,omitempty"`
	RoutineDayLabel     string               `json:"routineDayLabel,omitempty"`
	RoutineDays         []DayRef             `json:"routineDays"`
	IsFromActiveRoutine bool                 `json:"isFromActiveRoutine"`
	HasSessionOverrides bool                 `json:"hasSessionOverrides"`
	Exercises           []DraftExercise      `json:"exercises"`
	AvailableExercises  []exercises.Exercise `json:"availableExercises"`
}

// TemplateDraft is a start-workout preview of one routine day,
// independent of today's session.
type TemplateDraft struct {
	RoutineDayID    string          `json:"routineDayId"`
	RoutineDayLabel string          `json:"routineDayLabel,omitempty"`
	Exercises       []DraftExercise `json:"exercises"`
}

type SaveWorkoutSetInput struct {
	Reps         int     `json:"reps"`
	WeightKg     float64 `json:"weightKg"`
	RPE          *int    `json:"rpe,omitempty"`
	MachineID    *int    `json:"machineId,omitempty"`
	MachineLabel string  `json:"machineLabel,omitempty"`
}

type SaveWorkoutExerciseInput struct {
	ExerciseID   *int                  `json:"exerciseId,omitempty"`
	NameSnapshot string                `json:"nameSnapshot"`
	Notes        string                `json:"notes,omitempty"`
	Sets         []SaveWorkoutSetInput `json:"sets"`
}

type SaveWorkoutInput struct {
	DateKey             string                     `json:"dateKey"`
	RoutineID           *int                       `json:"routineId,omitempty"`
	RoutineType         string                     `json:"routineType,omitempty"`
	RoutineDayID        string                     `json:"routineDayId,omitempty"`
	RoutineDayLabel     string                     `json:"routineDayLabel,omitempty"`
	IsFromActiveRoutine bool                       `json:"isFromActiveRoutine"`
	HasSessionOverrides bool                       `json:"hasSessionOverrides"`
	Exercises           []SaveWorkoutExerciseInput `json:"exercises"`
}

// neutral placeholder the template synthesizer fills sets with
func defaultSet(ord int) DraftSet {
	rpe := 1
	return DraftSet{
		ID:       sessionSetID(ord),
		Ord:      ord,
		Reps:     1,
		WeightKg: 0,
		RPE:      &rpe,
	}
}

func sessionExerciseID(ord int) string {
	return "exercise-" + strconv.Itoa(ord+1)
}

func sessionSetID(ord int) string {
	return "set-" + strconv.Itoa(ord+1)
}
