package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)

	token, userID := registerUser(t, router, "amy@example.com")
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, userID)

	var resp authResponse
	status := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    "amy@example.com",
		Password: "correct horse battery",
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "amy@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "amy@example.com")

	status := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email:    "amy@example.com",
		Name:     "Second Amy",
		Password: "another password",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRegisterWeakPassword(t *testing.T) {
	router := newTestRouter(t)

	status := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email:    "amy@example.com",
		Password: "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "amy@example.com")

	status := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    "amy@example.com",
		Password: "not the password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	status := doJSON(t, router, http.MethodGet, "/api/v1/groups", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = doJSON(t, router, http.MethodGet, "/api/v1/sessions/nope", "garbage-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
