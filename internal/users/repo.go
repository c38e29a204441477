package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/telemetry/tracing"
	"github.com/liftlog/liftlog/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const userColumns = `id, username, password_hash, display_name, email, photo_url, selected_module, active_routine_id, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, username, passwordHash, displayName string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO users
				(username, password_hash, display_name, selected_module, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id;`,
		username, passwordHash, displayName, ModuleLifting, now,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
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

	span.SetAttributes(attribute.Int("user.id", id))

	return &User{
		ID:             id,
		Username:       username,
		PasswordHash:   passwordHash,
		DisplayName:    displayName,
		SelectedModule: ModuleLifting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users, err := r.rows2users(rows)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1;`,
		strings.ToLower(strings.TrimSpace(username)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users, err := r.rows2users(rows)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// GetUserCredentials makes the repo usable as the login user source.
func (r *Repo) GetUserCredentials(ctx context.Context, username string) (int, string, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return 0, "", err
	}
	return user.ID, user.PasswordHash, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", user.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET display_name = $1, email = $2, photo_url = $3, selected_module = $4, updated_at = $5 WHERE id = $6;`,
		user.DisplayName, user.Email, user.PhotoURL, user.SelectedModule, time.Now(), user.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpsertActiveRoutine points the user profile at the given routine,
// or clears the pointer when routineID is nil.
func (r *Repo) UpsertActiveRoutine(ctx context.Context, userID int, routineID *int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.upsertActiveRoutine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET active_routine_id = $1, updated_at = $2 WHERE id = $3;`,
		routineID, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) rows2users(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var user User
		var email, photoURL *string
		if err := rows.Scan(
			&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName,
			&email, &photoURL, &user.SelectedModule, &user.ActiveRoutineID,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if email != nil {
			user.Email = *email
		}
		if photoURL != nil {
			user.PhotoURL = *photoURL
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
