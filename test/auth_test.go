package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stretchr/testify/require"
)

type loginResponse struct {
	Token string `json:"token"`
}

// doRequest fires a request against the running test server. The
// User-Agent matters, requests without an allowed origin or agent
// get a 403 before reaching any handler.
func (s *IntegrationTestSuite) doRequest(
	method, path, token string,
	payload any,
) (int, []byte) {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, body)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-LIFTLOG-TOKEN", token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.T(), err)
	defer func() {
		require.NoError(s.T(), resp.Body.Close())
	}()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) registerUser(username, password, displayName string) {
	status, respBytes := s.doRequest(http.MethodPost, "/register", "", map[string]string{
		"username":    username,
		"password":    password,
		"displayName": displayName,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
}

func (s *IntegrationTestSuite) doLogin(username, password string) string {
	status, respBytes := s.doRequest(http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var loginResp loginResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &loginResp))
	require.NotEmpty(s.T(), loginResp.Token)

	return loginResp.Token
}

// newTestUser registers a fresh user and logs it in, so every test
// works on its own isolated account.
func (s *IntegrationTestSuite) newTestUser(username string) string {
	s.registerUser(username, "super-secret-pass", fmt.Sprintf("Test %s", username))
	return s.doLogin(username, "super-secret-pass")
}
