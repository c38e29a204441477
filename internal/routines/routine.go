package routines

import (
	"fmt"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/apierr"
)

const (
	TypeAB     = "AB"
	TypePPL    = "PPL"
	TypeCustom = "CUSTOM"

	maxDaysPerWeek = 7
)

type Routine struct {
	ID          int       `json:"id"`
	UserID      int       `json:"-"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	DaysPerWeek int       `json:"daysPerWeek"`
	IsActive    bool      `json:"isActive"`
	DayOrder    []string  `json:"dayOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Day struct {
	RoutineID     int       `json:"-"`
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Ord           int       `json:"order"`
	ExerciseOrder []string  `json:"exerciseOrder"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DayExercise is one slot of a routine day template. The name is a
// snapshot frozen at assignment time, so renaming or deleting the
// library exercise later does not rewrite the routine.
type DayExercise struct {
	RoutineID     int       `json:"-"`
	DayID         string    `json:"-"`
	ID            string    `json:"id"`
	ExerciseID    *int      `json:"exerciseId,omitempty"`
	NameSnapshot  string    `json:"nameSnapshot"`
	TargetRepsMin int       `json:"targetRepsMin"`
	TargetRepsMax int       `json:"targetRepsMax"`
	TargetSets    int       `json:"targetSets"`
	Ord           int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type DayWithExercises struct {
	Day
	Exercises []DayExercise `json:"exercises"`
}

type TemplateDay struct {
	ID    string
	Label string
}

var templateDays = map[string][]TemplateDay{
	TypeAB: {
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
	},
	TypePPL: {
		{ID: "push", Label: "Push"},
		{ID: "pull", Label: "Pull"},
		{ID: "legs", Label: "Legs"},
	},
}

var defaultDayOrder = map[string][]string{
	TypeAB:  {"a", "b", "a", "b"},
	TypePPL: {"push", "pull", "legs", "push", "pull", "legs"},
}

// TemplateDays returns the target day set for a routine shape. Typed
// templates have fixed semantic ids; CUSTOM gets day-1..day-N.
func TemplateDays(routineType string, daysPerWeek int) []TemplateDay {
	if days, ok := templateDays[routineType]; ok {
		return days
	}
	days := make([]TemplateDay, 0, daysPerWeek)
	for i := 1; i <= daysPerWeek; i++ {
		days = append(days, TemplateDay{
			ID:    fmt.Sprintf("day-%d", i),
			Label: fmt.Sprintf("Day %d", i),
		})
	}
	return days
}

func DefaultDayOrder(routineType string, daysPerWeek int) []string {
	if order, ok := defaultDayOrder[routineType]; ok {
		return append([]string{}, order...)
	}
	order := make([]string, 0, daysPerWeek)
	for i := 1; i <= daysPerWeek; i++ {
		order = append(order, fmt.Sprintf("day-%d", i))
	}
	return order
}

func ValidateType(routineType string) error {
	switch routineType {
	case TypeAB, TypePPL, TypeCustom:
		return nil
	default:
		return apierr.NewValidationError("type", fmt.Sprintf("unknown routine type %q", routineType))
	}
}

func (r *Routine) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apierr.NewValidationError("name", "must not be empty")
	}
	if err := ValidateType(r.Type); err != nil {
		return err
	}
	if r.Type == TypeCustom && (r.DaysPerWeek < 1 || r.DaysPerWeek > maxDaysPerWeek) {
		return apierr.NewValidationError("daysPerWeek", fmt.Sprintf("must be between 1 and %d", maxDaysPerWeek))
	}
	if r.DaysPerWeek == 0 {
		r.DaysPerWeek = len(TemplateDays(r.Type, 0))
	}
	return nil
}
