package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mindbody-backend/internal/auth/repository"
	"mindbody-backend/internal/auth/usecase"
	"mindbody-backend/pkg/config"
	"mindbody-backend/pkg/recordstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour}
	uc := usecase.NewAuthUsecase(repository.NewCSVUserRepository(recordstore.New(t.TempDir())), cfg)
	h := NewAuthHandler(uc)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/me", AuthMiddleware(uc), h.Me)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterThenMe(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]string{"username": "alice", "password": "s3cret!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = postJSON(r, "/api/auth/register", map[string]string{"username": "alice", "password": "s3cret!"})
	require.Equal(t, http.StatusConflict, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"username":"alice"`)
	require.NotContains(t, w.Body.String(), "password")
}

func TestLoginFailures(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/login", map[string]string{"username": "ghost", "password": "whatever"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/auth/login", map[string]string{"username": "ghost"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	r := newAuthRouter(t)

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}
