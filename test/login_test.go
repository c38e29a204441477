package test

import (
	"net/http"

	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	s.registerUser("mile", "mile-pass-123", "Mile")

	testCases := []struct {
		name             string
		username         string
		password         string
		expectedStatus   int
		expectedRespBody string
	}{
		{
			name:           "correct credentials",
			username:       "mile",
			password:       "mile-pass-123",
			expectedStatus: http.StatusOK,
		},
		{
			name:             "wrong password",
			username:         "mile",
			password:         "nope-nope",
			expectedStatus:   http.StatusBadRequest,
			expectedRespBody: "error, wrong credentials\n",
		},
		{
			name:             "unknown user",
			username:         "ghost",
			password:         "mile-pass-123",
			expectedStatus:   http.StatusBadRequest,
			expectedRespBody: "error, wrong credentials\n",
		},
		{
			name:             "empty password",
			username:         "mile",
			password:         "",
			expectedStatus:   http.StatusBadRequest,
			expectedRespBody: "error, password empty\n",
		},
	}

	for _, tc := range testCases {
		s.T().Logf("running login case: %s", tc.name)

		status, respBytes := s.doRequest(http.MethodPost, "/login", "", map[string]string{
			"username": tc.username,
			"password": tc.password,
		})
		require.Equal(s.T(), tc.expectedStatus, status)
		if tc.expectedRespBody != "" {
			require.Equal(s.T(), tc.expectedRespBody, string(respBytes))
		}
	}
}

func (s *IntegrationTestSuite) TestLogin_RegisterTakenUsername() {
	s.registerUser("dupa", "dupa-pass-123", "Dupa")

	status, respBytes := s.doRequest(http.MethodPost, "/register", "", map[string]string{
		"username": "dupa",
		"password": "another-pass-123",
	})
	require.Equal(s.T(), http.StatusConflict, status)
	require.Equal(s.T(), "error, username taken\n", string(respBytes))
}

func (s *IntegrationTestSuite) TestLogin_LogoutInvalidatesToken() {
	token := s.newTestUser("logout-user")

	status, respBytes := s.doRequest(http.MethodGet, "/me", token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	status, respBytes = s.doRequest(http.MethodGet, "/logout", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	require.Equal(s.T(), "logged-out", string(respBytes))

	status, _ = s.doRequest(http.MethodGet, "/me", token, nil)
	require.Equal(s.T(), http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestLogin_NoTokenNoEntry() {
	status, _ := s.doRequest(http.MethodGet, "/routines", "", nil)
	require.Equal(s.T(), http.StatusUnauthorized, status)

	status, _ = s.doRequest(http.MethodGet, "/routines", "malformed-token", nil)
	require.Equal(s.T(), http.StatusUnauthorized, status)
}
