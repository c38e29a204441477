package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/telemetry/tracing"
	"github.com/liftlog/liftlog/pkg"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrMachineNotFound  = errors.New("machine not found")
)

const (
	oneHour         = 60 * 60
	listCacheExpire = oneHour * 12
)

type Repo struct {
	db    *pgxpool.Pool
	cache *freecache.Cache
}

func NewRepo(db *pgxpool.Pool) *Repo {
	megabyte := 1024 * 1024
	return &Repo{
		db:    db,
		cache: freecache.NewCache(10 * megabyte),
	}
}

func listCacheKey(userID int) []byte {
	return []byte(fmt.Sprintf("exercises::%d", userID))
}

func (r *Repo) invalidateListCache(userID int) {
	r.cache.Del(listCacheKey(userID))
}

// List returns all exercises of the user ordered by name. The result is
// cached per user and invalidated on any exercise write.
func (r *Repo) List(ctx context.Context, userID int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	if cachedBytes, err := r.cache.Get(listCacheKey(userID)); err == nil {
		var cached []Exercise
		if err := json.Unmarshal(cachedBytes, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		log.Errorf("unmarshal cached exercises for user %d: %s", userID, err)
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, primary_muscle, equipment, notes, created_at, updated_at
			FROM exercise
			WHERE user_id = $1
			ORDER BY name;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if exercisesBytes, err := json.Marshal(exercises); err == nil {
		if err := r.cache.Set(listCacheKey(userID), exercisesBytes, listCacheExpire); err != nil {
			log.Errorf("set exercises cache for user %d: %s", userID, err)
		}
	}

	return exercises, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, primary_muscle, equipment, notes, created_at, updated_at
			FROM exercise
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}
	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}
	return &exercises[0], nil
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise
				(user_id, name, primary_muscle, equipment, notes, created_at, updated_at)
				VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $6)
			RETURNING id;`,
		exercise.UserID, exercise.Name, exercise.PrimaryMuscle, exercise.Equipment, exercise.Notes, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", id))

	r.invalidateListCache(exercise.UserID)

	exercise.ID = id
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	return &exercise, nil
}

func (r *Repo) Update(ctx context.Context, exercise *Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise
			SET name = $1, primary_muscle = NULLIF($2, ''), equipment = NULLIF($3, ''), notes = NULLIF($4, ''), updated_at = $5
			WHERE user_id = $6 AND id = $7;`,
		exercise.Name, exercise.PrimaryMuscle, exercise.Equipment, exercise.Notes, time.Now(),
		exercise.UserID, exercise.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}

	r.invalidateListCache(exercise.UserID)
	return nil
}

// Delete removes the exercise and its machines. Routine and session
// snapshots keep the name and are not touched.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}

	r.invalidateListCache(userID)
	return nil
}

func (r *Repo) ListMachines(ctx context.Context, userID, exerciseID int) (_ []Machine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listMachines")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, label, notes, created_at, updated_at
			FROM exercise_machine
			WHERE user_id = $1 AND exercise_id = $2
			ORDER BY label;`,
		userID, exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2machines(rows)
}

// ListAllMachines returns all machines of the user, for building the
// per-exercise machine map of a workout draft in one query.
func (r *Repo) ListAllMachines(ctx context.Context, userID int) (_ []Machine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listAllMachines")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, label, notes, created_at, updated_at
			FROM exercise_machine
			WHERE user_id = $1
			ORDER BY exercise_id, label;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2machines(rows)
}

func (r *Repo) AddMachine(ctx context.Context, machine Machine) (_ *Machine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.addMachine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", machine.ExerciseID))

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise_machine
				(user_id, exercise_id, label, notes, created_at, updated_at)
				VALUES ($1, $2, $3, NULLIF($4, ''), $5, $5)
			RETURNING id;`,
		machine.UserID, machine.ExerciseID, machine.Label, machine.Notes, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		// the machine references an exercise row that is not there
		if pkg.IsForeignKeyViolationError(rows.Err()) {
			return nil, ErrExerciseNotFound
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	machine.ID = id
	machine.CreatedAt = now
	machine.UpdatedAt = now
	return &machine, nil
}

func (r *Repo) UpdateMachine(ctx context.Context, machine *Machine) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.updateMachine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("machine.id", machine.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_machine
			SET label = $1, notes = NULLIF($2, ''), updated_at = $3
			WHERE user_id = $4 AND id = $5;`,
		machine.Label, machine.Notes, time.Now(), machine.UserID, machine.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMachineNotFound
	}
	return nil
}

func (r *Repo) DeleteMachine(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.deleteMachine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("machine.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_machine WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMachineNotFound
	}
	return nil
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		var primaryMuscle, equipment, notes *string
		if err := rows.Scan(
			&exercise.ID, &exercise.UserID, &exercise.Name,
			&primaryMuscle, &equipment, &notes,
			&exercise.CreatedAt, &exercise.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if primaryMuscle != nil {
			exercise.PrimaryMuscle = *primaryMuscle
		}
		if equipment != nil {
			exercise.Equipment = *equipment
		}
		if notes != nil {
			exercise.Notes = *notes
		}
		exercises = append(exercises, exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *Repo) rows2machines(rows pgx.Rows) ([]Machine, error) {
	var machines []Machine
	for rows.Next() {
		var machine Machine
		var notes *string
		if err := rows.Scan(
			&machine.ID, &machine.UserID, &machine.ExerciseID, &machine.Label,
			&notes, &machine.CreatedAt, &machine.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if notes != nil {
			machine.Notes = *notes
		}
		machines = append(machines, machine)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return machines, nil
}
