package test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/liftlog/liftlog/internal/exercises"
	"github.com/liftlog/liftlog/internal/history"
	"github.com/liftlog/liftlog/internal/routines"
	"github.com/liftlog/liftlog/internal/workouts"

	"github.com/stretchr/testify/require"
)

// The full lifter journey: build an exercise library, set up an active
// routine, open today's draft, log the workout and find it in history.
func (s *IntegrationTestSuite) TestWorkouts_SaveAndRevisit() {
	token := s.newTestUser("lifter")

	// exercise library with one machine
	status, respBytes := s.doRequest(http.MethodPost, "/exercises", token, map[string]any{
		"name":          "Bench Press",
		"primaryMuscle": "chest",
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
	var bench exercises.Exercise
	require.NoError(s.T(), json.Unmarshal(respBytes, &bench))

	status, respBytes = s.doRequest(
		http.MethodPost,
		fmt.Sprintf("/exercises/%d/machines", bench.ID),
		token,
		map[string]any{"label": "Hammer Incline"},
	)
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))

	// active routine with the same template on every day, so the draft
	// is filled no matter which weekday the suite runs on
	status, respBytes = s.doRequest(http.MethodPost, "/routines", token, map[string]any{
		"name": "Push Pull Legs",
		"type": routines.TypePPL,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
	var routine routines.Routine
	require.NoError(s.T(), json.Unmarshal(respBytes, &routine))

	for _, dayID := range []string{"push", "pull", "legs"} {
		status, respBytes = s.doRequest(
			http.MethodPut,
			fmt.Sprintf("/routines/%d/days/%s/exercises", routine.ID, dayID),
			token,
			map[string]any{
				"exercises": []map[string]any{{
					"exerciseId":    bench.ID,
					"nameSnapshot":  "Bench Press",
					"targetRepsMin": 5,
					"targetRepsMax": 8,
					"targetSets":    3,
				}},
			},
		)
		require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	}

	status, _ = s.doRequest(http.MethodPost, fmt.Sprintf("/routines/%d/activate", routine.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	// fresh template draft for today
	status, respBytes = s.doRequest(http.MethodGet, "/workouts/today", token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	var draft workouts.Draft
	require.NoError(s.T(), json.Unmarshal(respBytes, &draft))
	require.False(s.T(), draft.HasActiveSession)
	require.True(s.T(), draft.IsFromActiveRoutine)
	require.Equal(s.T(), "Push Pull Legs", draft.RoutineName)
	require.Len(s.T(), draft.RoutineDays, 3)
	require.Len(s.T(), draft.Exercises, 1)
	require.Equal(s.T(), "Bench Press", draft.Exercises[0].NameSnapshot)
	require.Len(s.T(), draft.Exercises[0].Sets, 3)
	require.Len(s.T(), draft.Exercises[0].AvailableMachines, 1)
	require.Equal(s.T(), "Hammer Incline", draft.Exercises[0].AvailableMachines[0].Label)
	require.Len(s.T(), draft.AvailableExercises, 1)

	// log the workout
	status, respBytes = s.doRequest(http.MethodPost, "/workouts", token, workouts.SaveWorkoutInput{
		DateKey:             draft.DateKey,
		RoutineID:           &routine.ID,
		RoutineType:         routines.TypePPL,
		RoutineDayID:        draft.RoutineDayID,
		RoutineDayLabel:     draft.RoutineDayLabel,
		IsFromActiveRoutine: true,
		Exercises: []workouts.SaveWorkoutExerciseInput{{
			ExerciseID:   &bench.ID,
			NameSnapshot: "Bench Press",
			Sets: []workouts.SaveWorkoutSetInput{
				{Reps: 8, WeightKg: 60},
				{Reps: 6, WeightKg: 65, MachineLabel: "Hammer Incline"},
			},
		}},
	})
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	require.JSONEq(s.T(), fmt.Sprintf(`{"dateKey": "%s"}`, draft.DateKey), string(respBytes))

	// today's draft now materializes the saved session instead
	status, respBytes = s.doRequest(http.MethodGet, "/workouts/today", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	require.NoError(s.T(), json.Unmarshal(respBytes, &draft))
	require.True(s.T(), draft.HasActiveSession)
	require.Len(s.T(), draft.Exercises, 1)
	require.Len(s.T(), draft.Exercises[0].Sets, 2)
	require.Equal(s.T(), 65.0, draft.Exercises[0].Sets[1].WeightKg)

	// an explicit day pick still serves the untouched template
	status, respBytes = s.doRequest(http.MethodGet, "/workouts/today?day=legs", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	require.NoError(s.T(), json.Unmarshal(respBytes, &draft))
	require.False(s.T(), draft.HasActiveSession)
	require.Equal(s.T(), "legs", draft.RoutineDayID)

	// and the session shows up in history
	var year, month int
	_, err := fmt.Sscanf(draft.DateKey, "%d-%d", &year, &month)
	require.NoError(s.T(), err)

	status, respBytes = s.doRequest(http.MethodGet, fmt.Sprintf("/history/%d/%d", year, month), token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	var monthSessions history.MonthSessions
	require.NoError(s.T(), json.Unmarshal(respBytes, &monthSessions))
	require.Len(s.T(), monthSessions.Sessions, 1)
	require.Equal(s.T(), draft.DateKey, monthSessions.Sessions[0].Date)
	require.NotNil(s.T(), monthSessions.Sessions[0].EndedAt)

	status, respBytes = s.doRequest(http.MethodGet, "/history/session/"+draft.DateKey, token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	var detail history.SessionDetail
	require.NoError(s.T(), json.Unmarshal(respBytes, &detail))
	require.Len(s.T(), detail.Exercises, 1)
	require.Equal(s.T(), "Bench Press", detail.Exercises[0].NameSnapshot)
	require.Len(s.T(), detail.Exercises[0].Sets, 2)
	require.Equal(s.T(), 8, detail.Exercises[0].Sets[0].Reps)
}

func (s *IntegrationTestSuite) TestWorkouts_SaveValidation() {
	token := s.newTestUser("sloppy-lifter")

	status, respBytes := s.doRequest(http.MethodPost, "/workouts", token, workouts.SaveWorkoutInput{
		DateKey: "today",
	})
	require.Equal(s.T(), http.StatusBadRequest, status)
	require.Contains(s.T(), string(respBytes), "invalid dateKey")

	status, _ = s.doRequest(http.MethodGet, "/history/session/2030-01-15", token, nil)
	require.Equal(s.T(), http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestWorkouts_EmptyDraftWithoutRoutine() {
	token := s.newTestUser("fresh-user")

	status, respBytes := s.doRequest(http.MethodGet, "/workouts/today", token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var draft workouts.Draft
	require.NoError(s.T(), json.Unmarshal(respBytes, &draft))
	require.False(s.T(), draft.HasActiveSession)
	require.Empty(s.T(), draft.Exercises)
	require.Empty(s.T(), draft.RoutineDays)
	require.NotEmpty(s.T(), draft.DateKey)
}
