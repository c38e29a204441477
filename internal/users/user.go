package users

import "time"

// SelectedModule is the app area the user last worked in.
const (
	ModuleLifting = "lifting"
	ModuleRunning = "running"
)

type User struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	DisplayName     string    `json:"displayName"`
	Email           string    `json:"email,omitempty"`
	PhotoURL        string    `json:"photoUrl,omitempty"`
	SelectedModule  string    `json:"selectedModule"`
	ActiveRoutineID *int      `json:"activeRoutineId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
