package routines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrRoutineNotFound = errors.New("routine not found")
	ErrDayNotFound     = errors.New("routine day not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, routine *Routine) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO routine
				(user_id, name, type, days_per_week, is_active, day_order, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING id;`,
		routine.UserID, routine.Name, routine.Type, routine.DaysPerWeek, routine.IsActive, routine.DayOrder, now,
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

	span.SetAttributes(attribute.Int("routine.id", id))

	routine.ID = id
	routine.CreatedAt = now
	routine.UpdatedAt = now
	return routine, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, type, days_per_week, is_active, day_order, created_at, updated_at
			FROM routine
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines, err := r.rows2routines(rows)
	if err != nil {
		return nil, err
	}
	if len(routines) != 1 {
		return nil, ErrRoutineNotFound
	}
	return &routines[0], nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, type, days_per_week, is_active, day_order, created_at, updated_at
			FROM routine
			WHERE user_id = $1
			ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2routines(rows)
}

func (r *Repo) Update(ctx context.Context, routine *Routine) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", routine.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE routine
			SET name = $1, type = $2, days_per_week = $3, is_active = $4, day_order = $5, updated_at = $6
			WHERE user_id = $7 AND id = $8;`,
		routine.Name, routine.Type, routine.DaysPerWeek, routine.IsActive, routine.DayOrder, time.Now(),
		routine.UserID, routine.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoutineNotFound
	}
	return nil
}

// Delete removes the routine; days and template exercises go with it
// through the FK cascade.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM routine WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoutineNotFound
	}
	return nil
}

func (r *Repo) ListDays(ctx context.Context, routineID int) (_ []Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.listDays")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", routineID))

	rows, err := r.db.Query(
		ctx,
		`SELECT routine_id, id, label, ord, exercise_order, created_at, updated_at
			FROM routine_day
			WHERE routine_id = $1
			ORDER BY ord;`,
		routineID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []Day
	for rows.Next() {
		var day Day
		if err := rows.Scan(
			&day.RoutineID, &day.ID, &day.Label, &day.Ord, &day.ExerciseOrder,
			&day.CreatedAt, &day.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

func (r *Repo) UpsertDay(ctx context.Context, day Day) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.upsertDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("day.id", day.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO routine_day
				(routine_id, id, label, ord, exercise_order, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (routine_id, id) DO UPDATE
				SET label = EXCLUDED.label, ord = EXCLUDED.ord, exercise_order = EXCLUDED.exercise_order, updated_at = EXCLUDED.updated_at;`,
		day.RoutineID, day.ID, day.Label, day.Ord, day.ExerciseOrder, time.Now(),
	)
	return err
}

func (r *Repo) DeleteDay(ctx context.Context, routineID int, dayID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.deleteDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("day.id", dayID))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM routine_day WHERE routine_id = $1 AND id = $2;`,
		routineID, dayID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) ListDayExercises(ctx context.Context, routineID int, dayID string) (_ []DayExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.listDayExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("day.id", dayID))

	rows, err := r.db.Query(
		ctx,
		`SELECT routine_id, day_id, id, exercise_id, name_snapshot,
				target_reps_min, target_reps_max, target_sets, ord, created_at, updated_at
			FROM routine_day_exercise
			WHERE routine_id = $1 AND day_id = $2
			ORDER BY ord;`,
		routineID, dayID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2dayExercises(rows)
}

func (r *Repo) UpsertDayExercise(ctx context.Context, item DayExercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.upsertDayExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("item.id", item.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO routine_day_exercise
				(routine_id, day_id, id, exercise_id, name_snapshot, target_reps_min, target_reps_max, target_sets, ord, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			ON CONFLICT (routine_id, day_id, id) DO UPDATE
				SET exercise_id = EXCLUDED.exercise_id, name_snapshot = EXCLUDED.name_snapshot,
					target_reps_min = EXCLUDED.target_reps_min, target_reps_max = EXCLUDED.target_reps_max,
					target_sets = EXCLUDED.target_sets, ord = EXCLUDED.ord, updated_at = EXCLUDED.updated_at;`,
		item.RoutineID, item.DayID, item.ID, item.ExerciseID, item.NameSnapshot,
		item.TargetRepsMin, item.TargetRepsMax, item.TargetSets, item.Ord, time.Now(),
	)
	return err
}

func (r *Repo) DeleteDayExercise(ctx context.Context, routineID int, dayID, itemID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.deleteDayExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("item.id", itemID))

	_, err = r.db.Exec(
		ctx,
		`DELETE FROM routine_day_exercise WHERE routine_id = $1 AND day_id = $2 AND id = $3;`,
		routineID, dayID, itemID,
	)
	return err
}

func (r *Repo) rows2routines(rows pgx.Rows) ([]Routine, error) {
	var routines []Routine
	for rows.Next() {
		var routine Routine
		if err := rows.Scan(
			&routine.ID, &routine.UserID, &routine.Name, &routine.Type, &routine.DaysPerWeek,
			&routine.IsActive, &routine.DayOrder, &routine.CreatedAt, &routine.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

func (r *Repo) rows2dayExercises(rows pgx.Rows) ([]DayExercise, error) {
	var items []DayExercise
	for rows.Next() {
		var item DayExercise
		if err := rows.Scan(
			&item.RoutineID, &item.DayID, &item.ID, &item.ExerciseID, &item.NameSnapshot,
			&item.TargetRepsMin, &item.TargetRepsMax, &item.TargetSets, &item.Ord,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
