package test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/liftlog/liftlog/internal/routines"

	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRoutines_CreateAndBuild() {
	token := s.newTestUser("routine-builder")

	status, respBytes := s.doRequest(http.MethodPost, "/routines", token, map[string]any{
		"name": "Push Pull Legs",
		"type": routines.TypePPL,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))

	var created routines.Routine
	require.NoError(s.T(), json.Unmarshal(respBytes, &created))
	require.NotZero(s.T(), created.ID)
	require.Equal(s.T(), "Push Pull Legs", created.Name)
	require.Equal(s.T(), []string{"push", "pull", "legs", "push", "pull", "legs"}, created.DayOrder)

	status, respBytes = s.doRequest(http.MethodGet, "/routines", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var listed []routines.Routine
	require.NoError(s.T(), json.Unmarshal(respBytes, &listed))
	require.Len(s.T(), listed, 1)

	// fill in the push day template
	status, respBytes = s.doRequest(
		http.MethodPut,
		fmt.Sprintf("/routines/%d/days/push/exercises", created.ID),
		token,
		map[string]any{
			"exercises": []map[string]any{
				{"nameSnapshot": "Bench Press", "targetRepsMin": 5, "targetRepsMax": 8, "targetSets": 3},
				{"nameSnapshot": "Overhead Press", "targetSets": 2},
			},
		},
	)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	status, respBytes = s.doRequest(http.MethodGet, fmt.Sprintf("/routines/%d", created.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	var builderData routines.BuilderData
	require.NoError(s.T(), json.Unmarshal(respBytes, &builderData))
	require.Equal(s.T(), created.ID, builderData.Routine.ID)
	require.Len(s.T(), builderData.Days, 3)

	var pushDay *routines.DayWithExercises
	for i := range builderData.Days {
		if builderData.Days[i].ID == "push" {
			pushDay = &builderData.Days[i]
		}
	}
	require.NotNil(s.T(), pushDay)
	require.Len(s.T(), pushDay.Exercises, 2)
	require.Equal(s.T(), "Bench Press", pushDay.Exercises[0].NameSnapshot)
	require.Equal(s.T(), 3, pushDay.Exercises[0].TargetSets)
	require.Equal(s.T(), "Overhead Press", pushDay.Exercises[1].NameSnapshot)
	require.Equal(s.T(), pushDay.ExerciseOrder, []string{
		pushDay.Exercises[0].ID, pushDay.Exercises[1].ID,
	})
}

func (s *IntegrationTestSuite) TestRoutines_ScheduleAndActivate() {
	token := s.newTestUser("routine-scheduler")

	status, respBytes := s.doRequest(http.MethodPost, "/routines", token, map[string]any{
		"name": "PPL x2",
		"type": routines.TypePPL,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
	var created routines.Routine
	require.NoError(s.T(), json.Unmarshal(respBytes, &created))

	newOrder := []string{"legs", "push", "pull"}
	status, respBytes = s.doRequest(
		http.MethodPut,
		fmt.Sprintf("/routines/%d/schedule", created.ID),
		token,
		map[string]any{"dayOrder": newOrder},
	)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	// unknown day ids are rejected
	status, _ = s.doRequest(
		http.MethodPut,
		fmt.Sprintf("/routines/%d/schedule", created.ID),
		token,
		map[string]any{"dayOrder": []string{"arms"}},
	)
	require.Equal(s.T(), http.StatusBadRequest, status)

	status, _ = s.doRequest(http.MethodPost, fmt.Sprintf("/routines/%d/activate", created.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	status, respBytes = s.doRequest(http.MethodGet, "/routines", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var listed []routines.Routine
	require.NoError(s.T(), json.Unmarshal(respBytes, &listed))
	require.Len(s.T(), listed, 1)
	require.True(s.T(), listed[0].IsActive)
	require.Equal(s.T(), newOrder, listed[0].DayOrder)

	status, _ = s.doRequest(http.MethodPost, "/routines/99999/activate", token, nil)
	require.Equal(s.T(), http.StatusNotFound, status)

	status, _ = s.doRequest(http.MethodDelete, fmt.Sprintf("/routines/%d", created.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	status, respBytes = s.doRequest(http.MethodGet, "/routines", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	require.Equal(s.T(), "[]", string(respBytes))
}
