package routines

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/liftlog/liftlog/internal/apierr"
	"github.com/liftlog/liftlog/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type routinesRepo interface {
	Create(ctx context.Context, routine *Routine) (*Routine, error)
	Get(ctx context.Context, userID, id int) (*Routine, error)
	List(ctx context.Context, userID int) ([]Routine, error)
	Update(ctx context.Context, routine *Routine) error
	Delete(ctx context.Context, userID, id int) error
	ListDays(ctx context.Context, routineID int) ([]Day, error)
	UpsertDay(ctx context.Context, day Day) error
	DeleteDay(ctx context.Context, routineID int, dayID string) error
	ListDayExercises(ctx context.Context, routineID int, dayID string) ([]DayExercise, error)
	UpsertDayExercise(ctx context.Context, item DayExercise) error
	DeleteDayExercise(ctx context.Context, routineID int, dayID, itemID string) error
}

type profileRepo interface {
	UpsertActiveRoutine(ctx context.Context, userID int, routineID *int) error
}

type Service struct {
	repo     routinesRepo
	profiles profileRepo
	// ability to inject the item id generator (for deterministic tests)
	NewItemID func() string
}

func NewService(repo routinesRepo, profiles profileRepo) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		NewItemID: func() string {
			return uuid.NewString()
		},
	}
}

type CreateRoutineParams struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DaysPerWeek int    `json:"daysPerWeek"`
}

func (s *Service) CreateRoutine(ctx context.Context, userID int, params CreateRoutineParams) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	routine := &Routine{
		UserID:      userID,
		Name:        params.Name,
		Type:        params.Type,
		DaysPerWeek: params.DaysPerWeek,
	}
	if err := routine.Normalize(); err != nil {
		return nil, err
	}
	routine.DayOrder = DefaultDayOrder(routine.Type, routine.DaysPerWeek)

	routine, err = s.repo.Create(ctx, routine)
	if err != nil {
		return nil, err
	}

	for i, templateDay := range TemplateDays(routine.Type, routine.DaysPerWeek) {
		if err := s.repo.UpsertDay(ctx, Day{
			RoutineID:     routine.ID,
			ID:            templateDay.ID,
			Label:         templateDay.Label,
			Ord:           i,
			ExerciseOrder: []string{},
		}); err != nil {
			return nil, fmt.Errorf("create day %s: %w", templateDay.ID, err)
		}
	}

	return routine, nil
}

func (s *Service) List(ctx context.Context, userID int) ([]Routine, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, routineID int) (*Routine, error) {
	return s.repo.Get(ctx, userID, routineID)
}

// EnsureRoutineDays reconciles the stored days with the target day set
// derived from the routine's type and daysPerWeek: target days are
// upserted (existing label and exercise order preserved), days outside
// the target set are deleted together with their template exercises,
// and the routine's dayOrder is refreshed when the shape changed.
// Calling it again without a shape change performs no net writes.
func (s *Service) EnsureRoutineDays(ctx context.Context, routine *Routine) (_ []Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.ensureDays")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existingDays, err := s.repo.ListDays(ctx, routine.ID)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	existingByID := make(map[string]Day, len(existingDays))
	for _, day := range existingDays {
		existingByID[day.ID] = day
	}

	target := TemplateDays(routine.Type, routine.DaysPerWeek)
	targetIDs := make(map[string]bool, len(target))

	shapeChanged := false
	for i, templateDay := range target {
		targetIDs[templateDay.ID] = true

		next := Day{
			RoutineID:     routine.ID,
			ID:            templateDay.ID,
			Label:         templateDay.Label,
			Ord:           i,
			ExerciseOrder: []string{},
		}
		if existing, ok := existingByID[templateDay.ID]; ok {
			next.Label = existing.Label
			next.ExerciseOrder = existing.ExerciseOrder
			if existing.Ord == i {
				continue
			}
		} else {
			shapeChanged = true
		}

		if err := s.repo.UpsertDay(ctx, next); err != nil {
			return nil, fmt.Errorf("upsert day %s: %w", next.ID, err)
		}
	}

	for _, day := range existingDays {
		if targetIDs[day.ID] {
			continue
		}
		shapeChanged = true
		if err := s.repo.DeleteDay(ctx, routine.ID, day.ID); err != nil {
			return nil, fmt.Errorf("delete day %s: %w", day.ID, err)
		}
	}

	// refresh the routine's rotation when the day set changed, or when
	// the stored order references days that no longer exist
	var nextOrder []string
	if shapeChanged {
		nextOrder = DefaultDayOrder(routine.Type, routine.DaysPerWeek)
	} else {
		var filtered []string
		for _, dayID := range routine.DayOrder {
			if targetIDs[dayID] {
				filtered = append(filtered, dayID)
			}
		}
		if len(filtered) == 0 {
			filtered = DefaultDayOrder(routine.Type, routine.DaysPerWeek)
		}
		nextOrder = filtered
	}
	if !slices.Equal(nextOrder, routine.DayOrder) {
		routine.DayOrder = nextOrder
		if err := s.repo.Update(ctx, routine); err != nil {
			return nil, fmt.Errorf("update routine: %w", err)
		}
	}

	return s.repo.ListDays(ctx, routine.ID)
}

// UpdateRoutine changes the routine's name and shape. A changed
// daysPerWeek or type is picked up by the next reconciliation, there
// is no separate migration step.
func (s *Service) UpdateRoutine(ctx context.Context, userID, routineID int, params CreateRoutineParams) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	routine, err := s.repo.Get(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	routine.Name = params.Name
	if params.Type != "" {
		routine.Type = params.Type
	}
	if params.DaysPerWeek != 0 {
		routine.DaysPerWeek = params.DaysPerWeek
	}
	if err := routine.Normalize(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// SetActiveRoutine flips the active flag across the user's routines,
// writing only the rows whose flag actually changes, and keeps the
// denormalized profile pointer consistent.
func (s *Service) SetActiveRoutine(ctx context.Context, userID, routineID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.setActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	allRoutines, err := s.repo.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list routines: %w", err)
	}

	// the target must exist before any flag is touched
	found := false
	for i := range allRoutines {
		if allRoutines[i].ID == routineID {
			found = true
			break
		}
	}
	if !found {
		return ErrRoutineNotFound
	}

	for i := range allRoutines {
		routine := &allRoutines[i]
		nextIsActive := routine.ID == routineID
		if routine.IsActive == nextIsActive {
			continue
		}
		routine.IsActive = nextIsActive
		if err := s.repo.Update(ctx, routine); err != nil {
			return fmt.Errorf("update routine %d: %w", routine.ID, err)
		}
	}

	return s.profiles.UpsertActiveRoutine(ctx, userID, &routineID)
}

func (s *Service) DeleteRoutine(ctx context.Context, userID, routineID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	routine, err := s.repo.Get(ctx, userID, routineID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, routineID); err != nil {
		return err
	}

	if routine.IsActive {
		if err := s.profiles.UpsertActiveRoutine(ctx, userID, nil); err != nil {
			return fmt.Errorf("clear active routine: %w", err)
		}
	}

	return nil
}

// UpdateSchedule replaces the weekly rotation. Every referenced day id
// must exist on the routine.
func (s *Service) UpdateSchedule(ctx context.Context, userID, routineID int, dayOrder []string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.updateSchedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if len(dayOrder) == 0 {
		return apierr.NewValidationError("dayOrder", "must not be empty")
	}

	routine, err := s.repo.Get(ctx, userID, routineID)
	if err != nil {
		return err
	}

	days, err := s.repo.ListDays(ctx, routineID)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	dayIDs := make(map[string]bool, len(days))
	for _, day := range days {
		dayIDs[day.ID] = true
	}
	for _, dayID := range dayOrder {
		if !dayIDs[dayID] {
			return apierr.NewValidationError("dayOrder", fmt.Sprintf("unknown day id %q", dayID))
		}
	}

	routine.DayOrder = dayOrder
	return s.repo.Update(ctx, routine)
}

type DayExerciseInput struct {
	ItemID        string `json:"itemId,omitempty"`
	ExerciseID    *int   `json:"exerciseId,omitempty"`
	NameSnapshot  string `json:"nameSnapshot"`
	TargetRepsMin int    `json:"targetRepsMin"`
	TargetRepsMax int    `json:"targetRepsMax"`
	TargetSets    int    `json:"targetSets"`
}

// ReplaceDayExercises swaps the full template of one routine day:
// incoming items are upserted in payload order (new ones get fresh
// ids), absentees are removed, and the day's exercise order cache is
// rewritten to match.
func (s *Service) ReplaceDayExercises(ctx context.Context, userID, routineID int, dayID string, items []DayExerciseInput) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.replaceDayExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := s.repo.Get(ctx, userID, routineID); err != nil {
		return err
	}

	for i := range items {
		items[i].NameSnapshot = strings.TrimSpace(items[i].NameSnapshot)
		if items[i].NameSnapshot == "" {
			return apierr.NewValidationError("nameSnapshot", "must not be empty")
		}
	}

	days, err := s.repo.ListDays(ctx, routineID)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	var currentDay *Day
	for i := range days {
		if days[i].ID == dayID {
			currentDay = &days[i]
			break
		}
	}
	if currentDay == nil {
		return ErrDayNotFound
	}

	previous, err := s.repo.ListDayExercises(ctx, routineID, dayID)
	if err != nil {
		return fmt.Errorf("list day exercises: %w", err)
	}

	itemIDs := make([]string, 0, len(items))
	for i, item := range items {
		itemID := item.ItemID
		if itemID == "" {
			itemID = s.NewItemID()
		}
		itemIDs = append(itemIDs, itemID)

		targetSets := item.TargetSets
		if targetSets < 1 {
			targetSets = 1
		}
		if err := s.repo.UpsertDayExercise(ctx, DayExercise{
			RoutineID:     routineID,
			DayID:         dayID,
			ID:            itemID,
			ExerciseID:    item.ExerciseID,
			NameSnapshot:  item.NameSnapshot,
			TargetRepsMin: item.TargetRepsMin,
			TargetRepsMax: item.TargetRepsMax,
			TargetSets:    targetSets,
			Ord:           i,
		}); err != nil {
			return fmt.Errorf("upsert day exercise %s: %w", itemID, err)
		}
	}

	keep := make(map[string]bool, len(itemIDs))
	for _, itemID := range itemIDs {
		keep[itemID] = true
	}
	for _, item := range previous {
		if keep[item.ID] {
			continue
		}
		if err := s.repo.DeleteDayExercise(ctx, routineID, dayID, item.ID); err != nil {
			return fmt.Errorf("delete day exercise %s: %w", item.ID, err)
		}
	}

	currentDay.ExerciseOrder = itemIDs
	if err := s.repo.UpsertDay(ctx, *currentDay); err != nil {
		return fmt.Errorf("rewrite day exercise order: %w", err)
	}

	log.Debugf("routine %d day %s: replaced %d exercises", routineID, dayID, len(items))
	return nil
}

type BuilderData struct {
	Routine *Routine           `json:"routine"`
	Days    []DayWithExercises `json:"days"`
}

// BuilderData loads a routine for editing. Days are reconciled first,
// so a changed daysPerWeek takes effect the moment the builder opens.
func (s *Service) BuilderData(ctx context.Context, userID, routineID int) (_ *BuilderData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "routines.builderData")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	routine, err := s.repo.Get(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	days, err := s.EnsureRoutineDays(ctx, routine)
	if err != nil {
		return nil, fmt.Errorf("ensure routine days: %w", err)
	}

	daysWithExercises := make([]DayWithExercises, 0, len(days))
	for _, day := range days {
		exercises, err := s.repo.ListDayExercises(ctx, routineID, day.ID)
		if err != nil {
			return nil, fmt.Errorf("list exercises for day %s: %w", day.ID, err)
		}
		if exercises == nil {
			exercises = []DayExercise{}
		}
		daysWithExercises = append(daysWithExercises, DayWithExercises{
			Day:       day,
			Exercises: exercises,
		})
	}

	return &BuilderData{
		Routine: routine,
		Days:    daysWithExercises,
	}, nil
}
