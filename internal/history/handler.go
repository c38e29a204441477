package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/apierr"
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/telemetry/tracing"
	"github.com/liftlog/liftlog/internal/workouts"
	"github.com/liftlog/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsSource interface {
	GetSession(ctx context.Context, userID int, date string) (*workouts.Session, error)
	ListSessions(ctx context.Context, userID int, fromDate, toDate string) ([]workouts.Session, error)
	ListSessionExercises(ctx context.Context, userID int, date string) ([]workouts.SessionExercise, error)
	ListSessionSets(ctx context.Context, userID int, date string) ([]workouts.SessionSet, error)
}

type Handler struct {
	workouts workoutsSource
}

func NewHandler(workoutsStore workoutsSource) *Handler {
	return &Handler{
		workouts: workoutsStore,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	router := mainRouter.PathPrefix("/history").Subrouter()
	// session route goes first, mux matches in registration order and
	// the month route would otherwise swallow /session/{date}
	router.HandleFunc("/session/{date}", handler.handleSessionDetail).Methods("GET", "OPTIONS").Name("history-session")
	router.HandleFunc("/{year}/{month}", handler.handleMonth).Methods("GET", "OPTIONS").Name("history-month")
}

func (handler *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case apierr.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workouts.ErrSessionNotFound):
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

func (handler *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.month")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		handler.writeError(w, apierr.NewValidationError("year", "must be an integer"), "history month")
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || validMonth(month) != nil {
		handler.writeError(w, apierr.NewValidationError("month", "must be between 1 and 12"), "history month")
		return
	}

	fromDate, toDate := MonthRange(year, time.Month(month))
	sessions, err := handler.workouts.ListSessions(ctx, userID, fromDate, toDate)
	if err != nil {
		handler.writeError(w, err, "history month")
		return
	}
	if sessions == nil {
		sessions = []workouts.Session{}
	}

	handler.writeJSON(w, MonthSessions{Year: year, Month: month, Sessions: sessions}, http.StatusOK)
}

func (handler *Handler) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.sessionDetail")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	date := mux.Vars(r)["date"]
	if !workouts.ValidDateKey(date) {
		handler.writeError(w, apierr.NewValidationError("date", "must be formatted as YYYY-MM-DD"), "history session")
		return
	}

	session, err := handler.workouts.GetSession(ctx, userID, date)
	if err != nil {
		handler.writeError(w, err, "history session")
		return
	}

	sessionExercises, err := handler.workouts.ListSessionExercises(ctx, userID, date)
	if err != nil {
		handler.writeError(w, err, "history session")
		return
	}
	sets, err := handler.workouts.ListSessionSets(ctx, userID, date)
	if err != nil {
		handler.writeError(w, err, "history session")
		return
	}

	setsByExercise := make(map[string][]workouts.SessionSet)
	for _, set := range sets {
		setsByExercise[set.ExerciseRef] = append(setsByExercise[set.ExerciseRef], set)
	}

	detail := SessionDetail{
		Session:   *session,
		Exercises: []ExerciseDetail{},
	}
	for _, item := range sessionExercises {
		exerciseSets := setsByExercise[item.ID]
		if exerciseSets == nil {
			exerciseSets = []workouts.SessionSet{}
		}
		detail.Exercises = append(detail.Exercises, ExerciseDetail{
			SessionExercise: item,
			Sets:            exerciseSets,
		})
	}

	handler.writeJSON(w, detail, http.StatusOK)
}
