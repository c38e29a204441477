package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/apierr"
	"github.com/liftlog/liftlog/internal/exercises"
	"github.com/liftlog/liftlog/internal/routines"
	"github.com/liftlog/liftlog/internal/users"
)

type workoutsRepo interface {
	GetSession(ctx context.Context, userID int, date string) (*Session, error)
	ListSessionExercises(ctx context.Context, userID int, date string) ([]SessionExercise, error)
	ListSessionSets(ctx context.Context, userID int, date string) ([]SessionSet, error)
	SaveSession(ctx context.Context, now time.Time, session Session, sessionExercises []SessionExercise, sets []SessionSet) error
}

type profileSource interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type routinesSource interface {
	Get(ctx context.Context, userID, id int) (*routines.Routine, error)
	ListDays(ctx context.Context, routineID int) ([]routines.Day, error)
	ListDayExercises(ctx context.Context, routineID int, dayID string) ([]routines.DayExercise, error)
}

type exercisesSource interface {
	List(ctx context.Context, userID int) ([]exercises.Exercise, error)
	ListAllMachines(ctx context.Context, userID int) ([]exercises.Machine, error)
}

// Service materializes workout drafts out of routines and persisted
// sessions, and saves finished workouts. Draft building never writes.
type Service struct {
	repo          workoutsRepo
	profiles      profileSource
	routinesStore routinesSource
	exercises     exercisesSource
}

func NewService(
	repo workoutsRepo,
	profiles profileSource,
	routinesStore routinesSource,
	exercisesStore exercisesSource,
) *Service {
	return &Service{
		repo:          repo,
		profiles:      profiles,
		routinesStore: routinesStore,
		exercises:     exercisesStore,
	}
}

// TodayDraft builds the workout draft for the day of `now`. An already
// saved session for the date wins, unless routineDayID is set, in
// which case the draft is rebuilt from that day's template.
func (s *Service) TodayDraft(ctx context.Context, userID int, now time.Time, routineDayID string) (*Draft, error) {
	dateKey := DateKey(now)

	availableExercises, err := s.exercises.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	if availableExercises == nil {
		availableExercises = []exercises.Exercise{}
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return emptyDraft(dateKey, availableExercises), nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.ActiveRoutineID == nil {
		return emptyDraft(dateKey, availableExercises), nil
	}

	routine, err := s.routinesStore.Get(ctx, userID, *profile.ActiveRoutineID)
	if err != nil {
		if errors.Is(err, routines.ErrRoutineNotFound) {
			return emptyDraft(dateKey, availableExercises), nil
		}
		return nil, fmt.Errorf("get routine: %w", err)
	}

	days, err := s.routinesStore.ListDays(ctx, routine.ID)
	if err != nil {
		return nil, fmt.Errorf("list routine days: %w", err)
	}

	dayByID := make(map[string]routines.Day, len(days))
	fallbackDayOrder := make([]string, 0, len(days))
	dayRefs := make([]DayRef, 0, len(days))
	for _, day := range days {
		dayByID[day.ID] = day
		fallbackDayOrder = append(fallbackDayOrder, day.ID)
		dayRefs = append(dayRefs, DayRef{ID: day.ID, Label: day.Label})
	}

	var normalizedDayOrder []string
	for _, dayID := range routine.DayOrder {
		if _, ok := dayByID[dayID]; ok {
			normalizedDayOrder = append(normalizedDayOrder, dayID)
		}
	}

	selectedDayID := MapDay(normalizedDayOrder, fallbackDayOrder, now)
	if routineDayID != "" {
		if _, ok := dayByID[routineDayID]; ok {
			selectedDayID = routineDayID
		}
	}

	session, err := s.repo.GetSession(ctx, userID, dateKey)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	machinesByExercise, err := s.machinesByExercise(ctx, userID)
	if err != nil {
		return nil, err
	}

	// An explicit day pick always rebuilds from the template, even
	// when a session for today already exists.
	if session != nil && routineDayID == "" {
		draftExercises, err := s.sessionDraftExercises(ctx, userID, dateKey, machinesByExercise)
		if err != nil {
			return nil, err
		}
		return &Draft{
			DateKey:             dateKey,
			HasActiveSession:    true,
			RoutineID:           session.RoutineID,
			RoutineType:         session.RoutineType,
			RoutineName:         routine.Name,
			RoutineDayID:        session.RoutineDayID,
			RoutineDayLabel:     session.RoutineDayLabel,
			RoutineDays:         dayRefs,
			IsFromActiveRoutine: session.IsFromActiveRoutine,
			HasSessionOverrides: session.HasSessionOverrides,
			Exercises:           draftExercises,
			AvailableExercises:  availableExercises,
		}, nil
	}

	draftExercises := []DraftExercise{}
	if selectedDayID != "" {
		draftExercises, err = s.templateDraftExercises(ctx, routine.ID, selectedDayID, machinesByExercise)
		if err != nil {
			return nil, err
		}
	}

	routineID := routine.ID
	draft := Draft{
		DateKey:             dateKey,
		HasActiveSession:    false,
		RoutineID:           &routineID,
		RoutineType:         routine.Type,
		RoutineName:         routine.Name,
		RoutineDayID:        selectedDayID,
		RoutineDays:         dayRefs,
		IsFromActiveRoutine: true,
		HasSessionOverrides: false,
		Exercises:           draftExercises,
		AvailableExercises:  availableExercises,
	}
	if selectedDay, ok := dayByID[selectedDayID]; ok {
		draft.RoutineDayLabel = selectedDay.Label
	}
	return &draft, nil
}

// DayTemplateDraft previews one routine day as a fresh workout
// template, regardless of today's session.
func (s *Service) DayTemplateDraft(ctx context.Context, userID, routineID int, dayID string) (*TemplateDraft, error) {
	if _, err := s.routinesStore.Get(ctx, userID, routineID); err != nil {
		if errors.Is(err, routines.ErrRoutineNotFound) {
			return &TemplateDraft{RoutineDayID: dayID, Exercises: []DraftExercise{}}, nil
		}
		return nil, fmt.Errorf("get routine: %w", err)
	}

	days, err := s.routinesStore.ListDays(ctx, routineID)
	if err != nil {
		return nil, fmt.Errorf("list routine days: %w", err)
	}

	var selectedDay *routines.Day
	for i := range days {
		if days[i].ID == dayID {
			selectedDay = &days[i]
			break
		}
	}
	if selectedDay == nil {
		return &TemplateDraft{RoutineDayID: dayID, Exercises: []DraftExercise{}}, nil
	}

	machinesByExercise, err := s.machinesByExercise(ctx, userID)
	if err != nil {
		return nil, err
	}
	draftExercises, err := s.templateDraftExercises(ctx, routineID, dayID, machinesByExercise)
	if err != nil {
		return nil, err
	}

	return &TemplateDraft{
		RoutineDayID:    dayID,
		RoutineDayLabel: selectedDay.Label,
		Exercises:       draftExercises,
	}, nil
}

// SaveWorkout validates the payload, then rewrites the whole session
// for the date in one transaction. Nothing is written on invalid input.
func (s *Service) SaveWorkout(ctx context.Context, userID int, now time.Time, payload SaveWorkoutInput) error {
	if !ValidDateKey(payload.DateKey) {
		return apierr.NewValidationError("dateKey", "must be formatted as YYYY-MM-DD")
	}
	for _, exerciseInput := range payload.Exercises {
		if strings.TrimSpace(exerciseInput.NameSnapshot) == "" {
			return apierr.NewValidationError("nameSnapshot", "must not be empty")
		}
		for _, setInput := range exerciseInput.Sets {
			if setInput.Reps < 0 {
				return apierr.NewValidationError("reps", "must be at least 0")
			}
			if setInput.WeightKg < 0 {
				return apierr.NewValidationError("weightKg", "must be at least 0")
			}
		}
	}

	session := Session{
		UserID:              userID,
		Date:                payload.DateKey,
		RoutineID:           payload.RoutineID,
		RoutineType:         payload.RoutineType,
		RoutineDayID:        payload.RoutineDayID,
		RoutineDayLabel:     payload.RoutineDayLabel,
		IsFromActiveRoutine: payload.IsFromActiveRoutine,
		HasSessionOverrides: payload.HasSessionOverrides,
	}

	var sessionExercises []SessionExercise
	var sets []SessionSet
	for exerciseIndex, exerciseInput := range payload.Exercises {
		exerciseID := sessionExerciseID(exerciseIndex)
		sessionExercises = append(sessionExercises, SessionExercise{
			UserID:       userID,
			Date:         payload.DateKey,
			ID:           exerciseID,
			ExerciseID:   exerciseInput.ExerciseID,
			NameSnapshot: exerciseInput.NameSnapshot,
			Ord:          exerciseIndex,
			Notes:        exerciseInput.Notes,
		})
		for setIndex, setInput := range exerciseInput.Sets {
			sets = append(sets, SessionSet{
				UserID:       userID,
				Date:         payload.DateKey,
				ExerciseRef:  exerciseID,
				ID:           sessionSetID(setIndex),
				Ord:          setIndex,
				Reps:         setInput.Reps,
				WeightKg:     setInput.WeightKg,
				RPE:          setInput.RPE,
				MachineID:    setInput.MachineID,
				MachineLabel: setInput.MachineLabel,
			})
		}
	}

	if err := s.repo.SaveSession(ctx, now, session, sessionExercises, sets); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Service) machinesByExercise(ctx context.Context, userID int) (map[int][]DraftMachine, error) {
	machines, err := s.exercises.ListAllMachines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	byExercise := make(map[int][]DraftMachine)
	for _, machine := range machines {
		byExercise[machine.ExerciseID] = append(byExercise[machine.ExerciseID], DraftMachine{
			ID:    machine.ID,
			Label: machine.Label,
		})
	}
	return byExercise, nil
}

func (s *Service) sessionDraftExercises(
	ctx context.Context,
	userID int,
	dateKey string,
	machinesByExercise map[int][]DraftMachine,
) ([]DraftExercise, error) {
	sessionExercises, err := s.repo.ListSessionExercises(ctx, userID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("list session exercises: %w", err)
	}
	sets, err := s.repo.ListSessionSets(ctx, userID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("list session sets: %w", err)
	}

	setsByExercise := make(map[string][]DraftSet)
	for _, set := range sets {
		setsByExercise[set.ExerciseRef] = append(setsByExercise[set.ExerciseRef], DraftSet{
			ID:           set.ID,
			Ord:          set.Ord,
			Reps:         set.Reps,
			WeightKg:     set.WeightKg,
			RPE:          set.RPE,
			MachineID:    set.MachineID,
			MachineLabel: set.MachineLabel,
		})
	}

	draftExercises := make([]DraftExercise, 0, len(sessionExercises))
	for _, item := range sessionExercises {
		draftSets := setsByExercise[item.ID]
		if draftSets == nil {
			draftSets = []DraftSet{}
		}
		draftExercises = append(draftExercises, DraftExercise{
			ID:                item.ID,
			Ord:               item.Ord,
			ExerciseID:        item.ExerciseID,
			NameSnapshot:      item.NameSnapshot,
			Sets:              draftSets,
			AvailableMachines: availableMachines(item.ExerciseID, machinesByExercise),
		})
	}
	return draftExercises, nil
}

func (s *Service) templateDraftExercises(
	ctx context.Context,
	routineID int,
	dayID string,
	machinesByExercise map[int][]DraftMachine,
) ([]DraftExercise, error) {
	dayExercises, err := s.routinesStore.ListDayExercises(ctx, routineID, dayID)
	if err != nil {
		return nil, fmt.Errorf("list day exercises: %w", err)
	}

	draftExercises := make([]DraftExercise, 0, len(dayExercises))
	for _, item := range dayExercises {
		targetSets := item.TargetSets
		if targetSets < 1 {
			targetSets = 1
		}
		draftSets := make([]DraftSet, 0, targetSets)
		for setIndex := 0; setIndex < targetSets; setIndex++ {
			draftSets = append(draftSets, defaultSet(setIndex))
		}
		draftExercises = append(draftExercises, DraftExercise{
			ID:                item.ID,
			Ord:               item.Ord,
			ExerciseID:        item.ExerciseID,
			NameSnapshot:      item.NameSnapshot,
			TargetRepsMin:     item.TargetRepsMin,
			TargetRepsMax:     item.TargetRepsMax,
			TargetSets:        targetSets,
			Sets:              draftSets,
			AvailableMachines: availableMachines(item.ExerciseID, machinesByExercise),
		})
	}
	return draftExercises, nil
}

func availableMachines(exerciseID *int, machinesByExercise map[int][]DraftMachine) []DraftMachine {
	if exerciseID == nil {
		return []DraftMachine{}
	}
	machines := machinesByExercise[*exerciseID]
	if machines == nil {
		return []DraftMachine{}
	}
	return machines
}

func emptyDraft(dateKey string, availableExercises []exercises.Exercise) *Draft {
	return &Draft{
		DateKey:             dateKey,
		HasActiveSession:    false,
		RoutineDays:         []DayRef{},
		IsFromActiveRoutine: false,
		HasSessionOverrides: false,
		Exercises:           []DraftExercise{},
		AvailableExercises:  availableExercises,
	}
}
