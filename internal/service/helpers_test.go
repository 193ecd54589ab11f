package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/splitlyhq/splitly/internal/auth"
	"github.com/splitlyhq/splitly/internal/metrics"
	"github.com/splitlyhq/splitly/internal/storage/sqlite"
)

// newTestRouter wires the full API against a throwaway sqlite store.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	m := metrics.New()

	return NewRouter(
		NewAuthService(authenticator, jwtManager),
		NewSessionService(store, m),
		NewGroupService(store, m),
		jwtManager,
		m,
	)
}

// doJSON performs a request against the router and decodes the response
// body into out when it is non-nil.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out),
			"decoding %s %s response", method, path)
	}
	return rec.Code
}

// registerUser creates an account and returns its token and user id.
func registerUser(t *testing.T, router http.Handler, email string) (token, userID string) {
	t.Helper()

	var resp authResponse
	status := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email:    email,
		Name:     "Test User",
		Password: "correct horse battery",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.User.ID)
	return resp.Token, resp.User.ID
}
