package routines

import (
	"context"
	"fmt"
	"sort"
)

type repoMock struct {
	routines     map[int]*Routine
	days         map[int]map[string]*Day
	dayExercises map[string]map[string]*DayExercise
	nextID       int

	// write counters, for asserting that reconciliation is idempotent
	UpsertDayCalls         int
	DeleteDayCalls         int
	UpdateCalls            int
	UpsertDayExerciseCalls int
	DeleteDayExerciseCalls int
}

func NewMockRoutinesRepo() *repoMock {
	return &repoMock{
		routines:     make(map[int]*Routine),
		days:         make(map[int]map[string]*Day),
		dayExercises: make(map[string]map[string]*DayExercise),
		nextID:       1,
	}
}

func dayKey(routineID int, dayID string) string {
	return fmt.Sprintf("%d|%s", routineID, dayID)
}

func (r *repoMock) Create(_ context.Context, routine *Routine) (*Routine, error) {
	routine.ID = r.nextID
	r.nextID++
	r.routines[routine.ID] = routine
	r.days[routine.ID] = make(map[string]*Day)
	return routine, nil
}

func (r *repoMock) Get(_ context.Context, userID, id int) (*Routine, error) {
	routine, ok := r.routines[id]
	if !ok || routine.UserID != userID {
		return nil, ErrRoutineNotFound
	}
	copied := *routine
	return &copied, nil
}

func (r *repoMock) List(_ context.Context, userID int) ([]Routine, error) {
	var listed []Routine
	for _, routine := range r.routines {
		if routine.UserID == userID {
			listed = append(listed, *routine)
		}
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].ID < listed[j].ID })
	return listed, nil
}

func (r *repoMock) Update(_ context.Context, routine *Routine) error {
	if _, ok := r.routines[routine.ID]; !ok {
		return ErrRoutineNotFound
	}
	r.UpdateCalls++
	copied := *routine
	r.routines[routine.ID] = &copied
	return nil
}

func (r *repoMock) Delete(_ context.Context, userID, id int) error {
	routine, ok := r.routines[id]
	if !ok || routine.UserID != userID {
		return ErrRoutineNotFound
	}
	delete(r.routines, id)
	delete(r.days, id)
	return nil
}

func (r *repoMock) ListDays(_ context.Context, routineID int) ([]Day, error) {
	var days []Day
	for _, day := range r.days[routineID] {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Ord < days[j].Ord })
	return days, nil
}

func (r *repoMock) UpsertDay(_ context.Context, day Day) error {
	r.UpsertDayCalls++
	if r.days[day.RoutineID] == nil {
		r.days[day.RoutineID] = make(map[string]*Day)
	}
	copied := day
	r.days[day.RoutineID][day.ID] = &copied
	return nil
}

func (r *repoMock) DeleteDay(_ context.Context, routineID int, dayID string) error {
	if _, ok := r.days[routineID][dayID]; !ok {
		return ErrDayNotFound
	}
	r.DeleteDayCalls++
	delete(r.days[routineID], dayID)
	delete(r.dayExercises, dayKey(routineID, dayID))
	return nil
}

func (r *repoMock) ListDayExercises(_ context.Context, routineID int, dayID string) ([]DayExercise, error) {
	var items []DayExercise
	for _, item := range r.dayExercises[dayKey(routineID, dayID)] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Ord < items[j].Ord })
	return items, nil
}

func (r *repoMock) UpsertDayExercise(_ context.Context, item DayExercise) error {
	r.UpsertDayExerciseCalls++
	key := dayKey(item.RoutineID, item.DayID)
	if r.dayExercises[key] == nil {
		r.dayExercises[key] = make(map[string]*DayExercise)
	}
	copied := item
	r.dayExercises[key][item.ID] = &copied
	return nil
}

func (r *repoMock) DeleteDayExercise(_ context.Context, routineID int, dayID, itemID string) error {
	r.DeleteDayExerciseCalls++
	delete(r.dayExercises[dayKey(routineID, dayID)], itemID)
	return nil
}

type profilesMock struct {
	activeRoutineIDs map[int]*int
}

func NewMockProfilesRepo() *profilesMock {
	return &profilesMock{
		activeRoutineIDs: make(map[int]*int),
	}
}

func (p *profilesMock) UpsertActiveRoutine(_ context.Context, userID int, routineID *int) error {
	p.activeRoutineIDs[userID] = routineID
	return nil
}

func (p *profilesMock) ActiveRoutineID(userID int) *int {
	return p.activeRoutineIDs[userID]
}
