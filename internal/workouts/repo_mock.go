package workouts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/liftlog/liftlog/internal/exercises"
	"github.com/liftlog/liftlog/internal/users"
)

type repoMock struct {
	sessions         map[string]*Session
	sessionExercises map[string][]SessionExercise
	sets             map[string][]SessionSet

	// write counter, for asserting that drafts and rejected saves
	// leave the store untouched
	SaveSessionCalls int
}

func NewMockWorkoutsRepo() *repoMock {
	return &repoMock{
		sessions:         make(map[string]*Session),
		sessionExercises: make(map[string][]SessionExercise),
		sets:             make(map[string][]SessionSet),
	}
}

func sessionKey(userID int, date string) string {
	return fmt.Sprintf("%d|%s", userID, date)
}

func (r *repoMock) GetSession(_ context.Context, userID int, date string) (*Session, error) {
	session, ok := r.sessions[sessionKey(userID, date)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *repoMock) ListSessions(_ context.Context, userID int, fromDate, toDate string) ([]Session, error) {
	var sessions []Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.Date >= fromDate && session.Date <= toDate {
			sessions = append(sessions, *session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date > sessions[j].Date })
	return sessions, nil
}

func (r *repoMock) ListSessionExercises(_ context.Context, userID int, date string) ([]SessionExercise, error) {
	return append([]SessionExercise(nil), r.sessionExercises[sessionKey(userID, date)]...), nil
}

func (r *repoMock) ListSessionSets(_ context.Context, userID int, date string) ([]SessionSet, error) {
	return append([]SessionSet(nil), r.sets[sessionKey(userID, date)]...), nil
}

func (r *repoMock) SaveSession(
	_ context.Context,
	now time.Time,
	session Session,
	sessionExercises []SessionExercise,
	sets []SessionSet,
) error {
	r.SaveSessionCalls++
	key := sessionKey(session.UserID, session.Date)

	copied := session
	copied.EndedAt = &now
	copied.UpdatedAt = now
	if existing, ok := r.sessions[key]; ok {
		copied.StartedAt = existing.StartedAt
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.StartedAt = now
		copied.CreatedAt = now
	}
	r.sessions[key] = &copied
	r.sessionExercises[key] = append([]SessionExercise(nil), sessionExercises...)
	r.sets[key] = append([]SessionSet(nil), sets...)
	return nil
}

type profilesMock struct {
	users map[int]*users.User
}

func NewMockProfiles() *profilesMock {
	return &profilesMock{users: make(map[int]*users.User)}
}

func (p *profilesMock) Add(user users.User) {
	p.users[user.ID] = &user
}

func (p *profilesMock) Get(_ context.Context, id int) (*users.User, error) {
	user, ok := p.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

type exercisesSourceMock struct {
	Exercises []exercises.Exercise
	Machines  []exercises.Machine
}

func (e *exercisesSourceMock) List(_ context.Context, _ int) ([]exercises.Exercise, error) {
	return append([]exercises.Exercise(nil), e.Exercises...), nil
}

func (e *exercisesSourceMock) ListAllMachines(_ context.Context, _ int) ([]exercises.Machine, error) {
	return append([]exercises.Machine(nil), e.Machines...), nil
}
