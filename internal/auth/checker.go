package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker resolves a session token to the logged in user.
// A zero user id with a nil error means the session expired.
type Checker interface {
	GetLoggedUserID(ctx context.Context, token string) (int, error)
}
