package exercises

import (
	"context"
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

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	List(ctx context.Context, userID int) ([]Exercise, error)
	Get(ctx context.Context, userID, id int) (*Exercise, error)
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Update(ctx context.Context, exercise *Exercise) error
	Delete(ctx context.Context, userID, id int) error
	ListMachines(ctx context.Context, userID, exerciseID int) ([]Machine, error)
	AddMachine(ctx context.Context, machine Machine) (*Machine, error)
	UpdateMachine(ctx context.Context, machine *Machine) error
	DeleteMachine(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo    exercisesRepo
	metrics *metrics.Manager
}

func NewHandler(repo exercisesRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	router := mainRouter.PathPrefix("/exercises").Subrouter()
	router.HandleFunc("", handler.handleList).Methods("GET", "OPTIONS").Name("exercises-list")
	router.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("exercises-add")
	router.HandleFunc("/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("exercises-get")
	router.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("exercises-update")
	router.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("exercises-delete")
	router.HandleFunc("/{id}/machines", handler.handleListMachines).Methods("GET", "OPTIONS").Name("machines-list")
	router.HandleFunc("/{id}/machines", handler.handleAddMachine).Methods("POST", "OPTIONS").Name("machines-add")
	router.HandleFunc("/{id}/machines/{machineId}", handler.handleUpdateMachine).Methods("PUT", "OPTIONS").Name("machines-update")
	router.HandleFunc("/{id}/machines/{machineId}", handler.handleDeleteMachine).Methods("DELETE", "OPTIONS").Name("machines-delete")
}

func (handler *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case apierr.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
	case errors.Is(err, ErrMachineNotFound):
		http.Error(w, "machine not found", http.StatusNotFound)
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

func userAndPathID(r *http.Request) (userID, id int, err error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, 0, errors.New("no user in request context")
	}
	vars := mux.Vars(r)
	id, err = strconv.Atoi(vars["id"])
	if err != nil {
		return 0, 0, apierr.NewValidationError("id", "must be an integer")
	}
	return userID, id, nil
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exercises, err := handler.repo.List(ctx, userID)
	if err != nil {
		handler.writeError(w, err, "list exercises")
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	handler.writeJSON(w, exercises, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.get")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "get exercise")
		return
	}

	exercise, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		handler.writeError(w, err, "get exercise")
		return
	}

	handler.writeJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}
	exercise.UserID = userID

	if err := exercise.Normalize(); err != nil {
		handler.writeError(w, err, "add exercise")
		return
	}

	added, err := handler.repo.Add(ctx, exercise)
	if err != nil {
		handler.writeError(w, err, "add exercise")
		return
	}

	handler.metrics.CounterExercisesCreated.Inc()
	handler.writeJSON(w, added, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.update")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "update exercise")
		return
	}

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}
	exercise.UserID = userID
	exercise.ID = id

	if err := exercise.Normalize(); err != nil {
		handler.writeError(w, err, "update exercise")
		return
	}

	if err := handler.repo.Update(ctx, &exercise); err != nil {
		handler.writeError(w, err, "update exercise")
		return
	}

	handler.writeJSON(w, &exercise, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.delete")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "delete exercise")
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		handler.writeError(w, err, "delete exercise")
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) handleListMachines(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.listMachines")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "list machines")
		return
	}

	machines, err := handler.repo.ListMachines(ctx, userID, id)
	if err != nil {
		handler.writeError(w, err, "list machines")
		return
	}
	if machines == nil {
		machines = []Machine{}
	}

	handler.writeJSON(w, machines, http.StatusOK)
}

func (handler *Handler) handleAddMachine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.addMachine")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "add machine")
		return
	}

	var machine Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		log.Errorf("add machine, unmarshal json params: %s", err)
		http.Error(w, "add machine failed", http.StatusBadRequest)
		return
	}
	machine.UserID = userID
	machine.ExerciseID = id

	if err := machine.Normalize(); err != nil {
		handler.writeError(w, err, "add machine")
		return
	}

	added, err := handler.repo.AddMachine(ctx, machine)
	if err != nil {
		handler.writeError(w, err, "add machine")
		return
	}

	handler.writeJSON(w, added, http.StatusCreated)
}

func (handler *Handler) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.updateMachine")
	defer span.End()

	userID, id, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "update machine")
		return
	}

	machineID, err := strconv.Atoi(mux.Vars(r)["machineId"])
	if err != nil {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}

	var machine Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		log.Errorf("update machine, unmarshal json params: %s", err)
		http.Error(w, "update machine failed", http.StatusBadRequest)
		return
	}
	machine.UserID = userID
	machine.ExerciseID = id
	machine.ID = machineID

	if err := machine.Normalize(); err != nil {
		handler.writeError(w, err, "update machine")
		return
	}

	if err := handler.repo.UpdateMachine(ctx, &machine); err != nil {
		handler.writeError(w, err, "update machine")
		return
	}

	handler.writeJSON(w, &machine, http.StatusOK)
}

func (handler *Handler) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "exercisesHandler.deleteMachine")
	defer span.End()

	userID, _, err := userAndPathID(r.WithContext(ctx))
	if err != nil {
		handler.writeError(w, err, "delete machine")
		return
	}

	machineID, err := strconv.Atoi(mux.Vars(r)["machineId"])
	if err != nil {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.DeleteMachine(ctx, userID, machineID); err != nil {
		handler.writeError(w, err, "delete machine")
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
