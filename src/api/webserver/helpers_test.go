package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ballotcast/ballotcast/src/api/config"
	"github.com/ballotcast/ballotcast/src/api/storage/memory"
)

const (
	testSecret    = "test-secret"
	testSetupCode = "setup-code-1234"
)

func newTestEnv(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	cfg := config.Config{
		JWTSecret:      testSecret,
		AdminSetupCode: testSetupCode,
		FrontendURL:    "http://localhost:3000",
		RateLimit:      1000,
	}
	r := gin.New()
	attachRoutes(r, cfg, store, nil)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

// register creates an account and returns its token and user id.
func register(t *testing.T, r *gin.Engine, name string) (string, uint64) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    fmt.Sprintf("%s@example.com", name),
		"password": "hunter2hunter2",
		"username": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decodeBody(t, w)["token"].(string)

	me := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	id := uint64(decodeBody(t, me)["id"].(float64))
	return token, id
}

// registerAdmin creates an account and elevates it through the setup code.
// Only valid while the store has no admin yet.
func registerAdmin(t *testing.T, r *gin.Engine, name string) (string, uint64) {
	t.Helper()
	token, id := register(t, r, name)
	w := doJSON(t, r, http.MethodPost, "/api/auth/claim-admin", token, gin.H{"code": testSetupCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return token, id
}
