package exercises

import (
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/apierr"
)

type Exercise struct {
	ID            int       `json:"id"`
	UserID        int       `json:"-"`
	Name          string    `json:"name"`
	PrimaryMuscle string    `json:"primaryMuscle,omitempty"`
	Equipment     string    `json:"equipment,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Machine is a concrete gym machine registered for an exercise,
// e.g. two different cable stations for the same cable row.
type Machine struct {
	ID         int       `json:"id"`
	UserID     int       `json:"-"`
	ExerciseID int       `json:"exerciseId"`
	Label      string    `json:"label"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Normalize trims all text fields and rejects an empty name.
func (e *Exercise) Normalize() error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return apierr.NewValidationError("name", "must not be empty")
	}
	e.PrimaryMuscle = strings.TrimSpace(e.PrimaryMuscle)
	e.Equipment = strings.TrimSpace(e.Equipment)
	e.Notes = strings.TrimSpace(e.Notes)
	return nil
}

func (m *Machine) Normalize() error {
	m.Label = strings.TrimSpace(m.Label)
	if m.Label == "" {
		return apierr.NewValidationError("label", "must not be empty")
	}
	m.Notes = strings.TrimSpace(m.Notes)
	return nil
}
