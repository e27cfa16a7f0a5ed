package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindfulme/backend/internal/middleware"
	authService "github.com/zhouzirui/mindfulme/backend/internal/service/auth"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

var testSecret = []byte("handler-secret")

type fixture struct {
	router   *chi.Mux
	sessions *session.Service
	provider *authService.LocalProvider
}

func setupRouter(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	recs := records.NewService(kv.NewMemoryStore(), logger)
	sessions := session.NewService(recs, logger)
	provider := authService.NewLocalProvider(ctx, recs, logger)
	t.Cleanup(sessions.Bind(provider))

	h := New(provider, sessions, testSecret, time.Hour, logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireUser(testSecret, sessions))
		h.RegisterProtectedRoutes(pr)
	})
	return fixture{router: r, sessions: sessions, provider: provider}
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
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
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func signUp(t *testing.T, r http.Handler) AuthResponse {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "Ada@Example.com",
		"password": "s3cret",
		"name":     "Ada",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestSignUpCreatesSessionAndToken(t *testing.T) {
	f := setupRouter(t)
	out := signUp(t, f.router)

	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ada@example.com", out.User.Email)
	assert.Equal(t, "Ada", out.User.Name)

	uid, err := authService.ParseToken(out.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, uid)

	current, ok := f.sessions.CurrentUser(context.Background())
	require.True(t, ok)
	assert.Equal(t, out.User.ID, current.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := setupRouter(t)
	signUp(t, f.router)

	resp := doJSON(t, f.router, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "ada@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestSignUpRejectsBadBodies(t *testing.T) {
	f := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, f.router, http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSignInFlow(t *testing.T) {
	f := setupRouter(t)
	first := signUp(t, f.router)

	resp := doJSON(t, f.router, http.MethodPost, "/auth/signout", first.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	_, ok := f.sessions.CurrentUser(context.Background())
	assert.False(t, ok, "sign-out clears the session")

	resp = doJSON(t, f.router, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, f.router, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var out AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, first.User.ID, out.User.ID)
}

func TestGetSession(t *testing.T) {
	f := setupRouter(t)

	resp := doJSON(t, f.router, http.MethodGet, "/session", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var anon SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &anon))
	assert.False(t, anon.Authenticated)
	assert.Nil(t, anon.User)

	signUp(t, f.router)
	resp = doJSON(t, f.router, http.MethodGet, "/session", "", nil)
	var signedIn SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &signedIn))
	assert.True(t, signedIn.Authenticated)
	require.NotNil(t, signedIn.User)
	assert.Equal(t, "Ada", signedIn.User.Name)
}

func TestPutSessionKeepsIdentity(t *testing.T) {
	f := setupRouter(t)
	out := signUp(t, f.router)

	resp := doJSON(t, f.router, http.MethodPut, "/session", out.Token, map[string]string{
		"id":           "someone-else",
		"name":         "Ada L.",
		"profilePhoto": "data:image/png;base64,AAAA",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	current, ok := f.sessions.CurrentUser(context.Background())
	require.True(t, ok)
	assert.Equal(t, out.User.ID, current.ID)
	assert.Equal(t, "Ada L.", current.Name)
	assert.Equal(t, out.User.Email, current.Email)
	assert.Equal(t, "data:image/png;base64,AAAA", current.ProfilePhoto)
}

func TestDeleteSessionInvalidatesToken(t *testing.T) {
	f := setupRouter(t)
	out := signUp(t, f.router)

	resp := doJSON(t, f.router, http.MethodDelete, "/session", out.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(t, f.router, http.MethodDelete, "/session", out.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := setupRouter(t)
	resp := doJSON(t, f.router, http.MethodPost, "/auth/signout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
