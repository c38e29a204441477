package routines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/liftlog/liftlog/internal/apierr"
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/telemetry/metrics"
	"github.com/liftlog/liftlog/internal/telemetry/tracing"
	"github.com/liftlog/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	metrics *metrics.Manager
}

func NewHandler(service *Service, metrics *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	router := mainRouter.PathPrefix("/routines").Subrouter()
	router.HandleFunc("", handler.handleList).Methods("GET", "OPTIONS").Name("routines-list")
	router.HandleFunc("", handler.handleCreate).Methods("POST", "OPTIONS").Name("routines-create")
	router.HandleFunc("/{id}", handler.handleBuilderData).Methods("GET", "OPTIONS").Name("routines-builder")
	router.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("routines-update")
	router.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("routines-delete")
	router.HandleFunc("/{id}/activate", handler.handleActivate).Methods("POST", "OPTIONS").Name("routines-activate")
	router.HandleFunc("/{id}/schedule", handler.handleUpdateSchedule).Methods("PUT", "OPTIONS").Name("routines-schedule")
	router.HandleFunc("/{id}/days/{dayId}/exercises", handler.handleReplaceDayExercises).Methods("PUT", "OPTIONS").Name("routines-day-exercises")
}

func (handler *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case apierr.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrRoutineNotFound):
		http.Error(w, "routine not found", http.StatusNotFound)
	case errors.Is(err, ErrDayNotFound):
		http.Error(w, "routine day not found", http.StatusNotFound)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (handler *Handler) writeJSON(w http.ResponseWriter, value any, status int) {
	valueBytes, err := json.Marshal(value)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, valueBytes, status)
}

func requestIDs(r *http.Request) (userID, routineID int, err error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, 0, errors.New("no user in request context")
	}
	routineID, err = strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, 0, apierr.NewValidationError("id", "must be an integer")
	}
	return userID, routineID, nil
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	listed, err := handler.service.List(ctx, userID)
	if err != nil {
		handler.writeError(w, err, "list routines")
		return
	}
	if listed == nil {
		listed = []Routine{}
	}

	handler.writeJSON(w, listed, http.StatusOK)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var params CreateRoutineParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("create routine, unmarshal json params: %s", err)
		http.Error(w, "create routine failed", http.StatusBadRequest)
		return
	}

	routine, err := handler.service.CreateRoutine(ctx, userID, params)
	if err != nil {
		handler.writeError(w, err, "create routine")
		return
	}

	handler.metrics.CounterRoutinesCreated.Inc()
	handler.writeJSON(w, routine, http.StatusCreated)
}

func (handler *Handler) handleBuilderData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.builderData")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "routine builder data")
		return
	}

	builderData, err := handler.service.BuilderData(ctx, userID, routineID)
	if err != nil {
		handler.writeError(w, err, "routine builder data")
		return
	}

	handler.writeJSON(w, builderData, http.StatusOK)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.update")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "update routine")
		return
	}

	var params CreateRoutineParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("update routine, unmarshal json params: %s", err)
		http.Error(w, "update routine failed", http.StatusBadRequest)
		return
	}

	routine, err := handler.service.UpdateRoutine(ctx, userID, routineID, params)
	if err != nil {
		handler.writeError(w, err, "update routine")
		return
	}

	handler.writeJSON(w, routine, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.delete")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "delete routine")
		return
	}

	if err := handler.service.DeleteRoutine(ctx, userID, routineID); err != nil {
		handler.writeError(w, err, "delete routine")
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.activate")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "activate routine")
		return
	}

	if err := handler.service.SetActiveRoutine(ctx, userID, routineID); err != nil {
		handler.writeError(w, err, "activate routine")
		return
	}

	pkg.WriteTextResponseOK(w, "activated")
}

func (handler *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.updateSchedule")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "update routine schedule")
		return
	}

	type scheduleRequest struct {
		DayOrder []string `json:"dayOrder"`
	}
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update schedule, unmarshal json params: %s", err)
		http.Error(w, "update schedule failed", http.StatusBadRequest)
		return
	}

	if err := handler.service.UpdateSchedule(ctx, userID, routineID, req.DayOrder); err != nil {
		handler.writeError(w, err, "update routine schedule")
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) handleReplaceDayExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.replaceDayExercises")
	defer span.End()

	userID, routineID, err := requestIDs(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "replace day exercises")
		return
	}
	dayID := mux.Vars(r)["dayId"]

	type replaceRequest struct {
		Exercises []DayExerciseInput `json:"exercises"`
	}
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("replace day exercises, unmarshal json params: %s", err)
		http.Error(w, "replace day exercises failed", http.StatusBadRequest)
		return
	}

	if err := handler.service.ReplaceDayExercises(ctx, userID, routineID, dayID, req.Exercises); err != nil {
		handler.writeError(w, err, "replace day exercises")
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}
