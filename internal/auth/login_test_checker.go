package auth

import "context"

type LoginTestChecker struct {
	LoggedSessions map[string]int
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		map[string]int{},
	}
}

func (c *LoginTestChecker) GetLoggedUserID(_ context.Context, token string) (int, error) {
	if userID, ok := c.LoggedSessions[token]; !ok {
		return 0, nil
	} else {
		return userID, nil
	}
}
