package workouts

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

var ErrSessionNotFound = errors.New("workout session not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const sessionColumns = `user_id, date, started_at, ended_at, routine_id, routine_type,
	routine_day_id, routine_day_label, is_from_active_routine, has_session_overrides, created_at, updated_at`

func (r *Repo) GetSession(ctx context.Context, userID int, date string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+sessionColumns+` FROM workout_session WHERE user_id = $1 AND date = $2;`,
		userID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions, err := rows2sessions(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) != 1 {
		return nil, ErrSessionNotFound
	}
	return &sessions[0], nil
}

func (r *Repo) ListSessions(ctx context.Context, userID int, fromDate, toDate string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", fromDate))
	span.SetAttributes(attribute.String("to", toDate))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+sessionColumns+`
			FROM workout_session
			WHERE user_id = $1 AND date >= $2 AND date <= $3
			ORDER BY date DESC;`,
		userID, fromDate, toDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2sessions(rows)
}

func (r *Repo) ListSessionExercises(ctx context.Context, userID int, date string) (_ []SessionExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listSessionExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, date, id, exercise_id, name_snapshot, ord, notes
			FROM session_exercise
			WHERE user_id = $1 AND date = $2
			ORDER BY ord;`,
		userID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessionExercises []SessionExercise
	for rows.Next() {
		var item SessionExercise
		var notes *string
		if err := rows.Scan(
			&item.UserID, &item.Date, &item.ID, &item.ExerciseID, &item.NameSnapshot, &item.Ord, &notes,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if notes != nil {
			item.Notes = *notes
		}
		sessionExercises = append(sessionExercises, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessionExercises, nil
}

func (r *Repo) ListSessionSets(ctx context.Context, userID int, date string) (_ []SessionSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listSessionSets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, date, exercise_ref, id, ord, reps, weight_kg, rpe, machine_id, machine_label
			FROM session_set
			WHERE user_id = $1 AND date = $2
			ORDER BY exercise_ref, ord;`,
		userID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []SessionSet
	for rows.Next() {
		var set SessionSet
		var machineLabel *string
		if err := rows.Scan(
			&set.UserID, &set.Date, &set.ExerciseRef, &set.ID, &set.Ord,
			&set.Reps, &set.WeightKg, &set.RPE, &set.MachineID, &machineLabel,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if machineLabel != nil {
			set.MachineLabel = *machineLabel
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// SaveSession persists a workout in a single transaction: the session
// row is upserted (keeping the original started_at), all previous
// exercises and sets of the date are removed, the new tree is written,
// and ended_at is stamped with the given clock.
func (r *Repo) SaveSession(
	ctx context.Context,
	now time.Time,
	session Session,
	sessionExercises []SessionExercise,
	sets []SessionSet,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.saveSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.date", session.Date))
	span.SetAttributes(attribute.Int("session.exercises", len(sessionExercises)))

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w [rollback: %s]", err, rollbackErr)
			}
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO workout_session
				(user_id, date, started_at, ended_at, routine_id, routine_type, routine_day_id,
				 routine_day_label, is_from_active_routine, has_session_overrides, created_at, updated_at)
				VALUES ($1, $2, $3, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $3, $3)
			ON CONFLICT (user_id, date) DO UPDATE
				SET ended_at = EXCLUDED.ended_at, routine_id = EXCLUDED.routine_id,
					routine_type = EXCLUDED.routine_type, routine_day_id = EXCLUDED.routine_day_id,
					routine_day_label = EXCLUDED.routine_day_label,
					is_from_active_routine = EXCLUDED.is_from_active_routine,
					has_session_overrides = EXCLUDED.has_session_overrides,
					updated_at = EXCLUDED.updated_at;`,
		session.UserID, session.Date, now, session.RoutineID, session.RoutineType,
		session.RoutineDayID, session.RoutineDayLabel,
		session.IsFromActiveRoutine, session.HasSessionOverrides,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM session_set WHERE user_id = $1 AND date = $2;`,
		session.UserID, session.Date,
	); err != nil {
		return fmt.Errorf("delete previous sets: %w", err)
	}
	if _, err = tx.Exec(
		ctx,
		`DELETE FROM session_exercise WHERE user_id = $1 AND date = $2;`,
		session.UserID, session.Date,
	); err != nil {
		return fmt.Errorf("delete previous exercises: %w", err)
	}

	for _, item := range sessionExercises {
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO session_exercise
					(user_id, date, id, exercise_id, name_snapshot, ord, notes)
					VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''));`,
			item.UserID, item.Date, item.ID, item.ExerciseID, item.NameSnapshot, item.Ord, item.Notes,
		); err != nil {
			return fmt.Errorf("insert session exercise %s: %w", item.ID, err)
		}
	}

	for _, set := range sets {
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO session_set
					(user_id, date, exercise_ref, id, ord, reps, weight_kg, rpe, machine_id, machine_label)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''));`,
			set.UserID, set.Date, set.ExerciseRef, set.ID, set.Ord,
			set.Reps, set.WeightKg, set.RPE, set.MachineID, set.MachineLabel,
		); err != nil {
			return fmt.Errorf("insert session set %s/%s: %w", set.ExerciseRef, set.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func rows2sessions(rows pgx.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var session Session
		var routineType, routineDayID, routineDayLabel *string
		if err := rows.Scan(
			&session.UserID, &session.Date, &session.StartedAt, &session.EndedAt,
			&session.RoutineID, &routineType, &routineDayID, &routineDayLabel,
			&session.IsFromActiveRoutine, &session.HasSessionOverrides,
			&session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if routineType != nil {
			session.RoutineType = *routineType
		}
		if routineDayID != nil {
			session.RoutineDayID = *routineDayID
		}
		if routineDayLabel != nil {
			session.RoutineDayLabel = *routineDayLabel
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
