package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/apierr"
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/telemetry/metrics"
	"github.com/liftlog/liftlog/internal/telemetry/tracing"
	"github.com/liftlog/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsService interface {
	TodayDraft(ctx context.Context, userID int, now time.Time, routineDayID string) (*Draft, error)
	DayTemplateDraft(ctx context.Context, userID, routineID int, dayID string) (*TemplateDraft, error)
	SaveWorkout(ctx context.Context, userID int, now time.Time, payload SaveWorkoutInput) error
}

type Handler struct {
	service workoutsService
	metrics *metrics.Manager
	now     func() time.Time
}

func NewHandler(service workoutsService, metrics *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
		now:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	router := mainRouter.PathPrefix("/workouts").Subrouter()
	router.HandleFunc("/today", handler.handleToday).Methods("GET", "OPTIONS").Name("workouts-today")
	router.HandleFunc("/template/{routineId}/{dayId}", handler.handleDayTemplate).Methods("GET", "OPTIONS").Name("workouts-day-template")
	router.HandleFunc("", handler.handleSave).Methods("POST", "OPTIONS").Name("workouts-save")
}

func (handler *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case apierr.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "workout session not found", http.StatusNotFound)
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

func (handler *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.today")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	routineDayID := r.URL.Query().Get("day")

	draft, err := handler.service.TodayDraft(ctx, userID, handler.now(), routineDayID)
	if err != nil {
		handler.writeError(w, err, "today draft")
		return
	}

	handler.writeJSON(w, draft, http.StatusOK)
}

func (handler *Handler) handleDayTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.dayTemplate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	routineID, err := strconv.Atoi(vars["routineId"])
	if err != nil {
		handler.writeError(w, apierr.NewValidationError("routineId", "must be an integer"), "day template")
		return
	}

	template, err := handler.service.DayTemplateDraft(ctx, userID, routineID, vars["dayId"])
	if err != nil {
		handler.writeError(w, err, "day template")
		return
	}

	handler.writeJSON(w, template, http.StatusOK)
}

func (handler *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.save")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var payload SaveWorkoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Errorf("save workout, unmarshal json params: %s", err)
		http.Error(w, "save workout failed", http.StatusBadRequest)
		return
	}

	if err := handler.service.SaveWorkout(ctx, userID, handler.now(), payload); err != nil {
		handler.writeError(w, err, "save workout")
		return
	}

	handler.metrics.CounterWorkoutsSaved.Inc()
	handler.writeJSON(w, map[string]string{"dateKey": payload.DateKey}, http.StatusOK)
}
