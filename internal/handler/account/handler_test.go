package account

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

	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/model/user"
	accountService "github.com/zhouzirui/mindfulme/backend/internal/service/account"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	router   *chi.Mux
	records  *records.Service
	sessions *session.Service
}

func setupRouter(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	recs := records.NewService(kv.NewMemoryStore(), logger,
		records.WithClock(func() time.Time { return fixedNow }))
	sessions := session.NewService(recs, logger)

	ada := user.User{ID: "u1", Email: "ada@example.com", Name: "Ada", CreatedAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, recs.UpdateAccounts(ctx, func(accts []user.Account) ([]user.Account, error) {
		return append(accts, user.Account{User: ada}), nil
	}))
	_, err := sessions.SetCurrentUser(ctx, ada)
	require.NoError(t, err)

	svc := accountService.NewService(recs, sessions, nil, nil, logger)
	r := chi.NewRouter()
	New(svc, logger).RegisterRoutes(r)
	return fixture{router: r, records: recs, sessions: sessions}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func seed(t *testing.T, recs *records.Service) {
	t.Helper()
	ctx := context.Background()
	_, err := recs.AddMoodEntry(ctx, mood.Draft{Mood: "calm"})
	require.NoError(t, err)
	require.NoError(t, recs.AddChatMessage(ctx, chat.Message{ID: "m1", Text: "hi", Sender: chat.SenderUser}))
	require.NoError(t, recs.AddChatMessage(ctx, chat.Message{ID: "m2", Text: "hello", Sender: chat.SenderBot}))
}

func TestUpdateProfile(t *testing.T) {
	f := setupRouter(t)

	resp := do(f.router, http.MethodPut, "/account/profile", `{"name":"  ","profilePhoto":"data:image/png;base64,AA"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated user.User
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "User", updated.Name)
	assert.Equal(t, "data:image/png;base64,AA", updated.ProfilePhoto)

	acct, ok := f.records.FindAccount(context.Background(), "u1")
	require.True(t, ok)
	assert.Equal(t, "User", acct.Name)
}

func TestExport(t *testing.T) {
	f := setupRouter(t)
	seed(t, f.records)

	resp := do(f.router, http.MethodGet, "/account/export", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, `attachment; filename="mindfulme-data-2024-05-01.json"`, resp.Header().Get("Content-Disposition"))

	var export accountService.Export
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &export))
	assert.Equal(t, "Ada", export.User.Name)
	assert.Equal(t, "ada@example.com", export.User.Email)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", export.User.ExportDate)
	assert.Len(t, export.MoodEntries, 1)
	assert.Len(t, export.ChatHistory, 2)
}

func TestStats(t *testing.T) {
	f := setupRouter(t)
	seed(t, f.records)

	resp := do(f.router, http.MethodGet, "/account/stats", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"moodEntries":1,"daysTracked":1,"chatMessages":1,"memberSince":"2024-01-01T00:00:00Z"}`, resp.Body.String())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := setupRouter(t)
	seed(t, f.records)

	resp := do(f.router, http.MethodDelete, "/account", `{"confirmation":"delete"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Len(t, f.records.ListMoodEntries(context.Background()), 1)
}

func TestDeleteAccount(t *testing.T) {
	f := setupRouter(t)
	seed(t, f.records)
	ctx := context.Background()

	resp := do(f.router, http.MethodDelete, "/account", `{"confirmation":"DELETE"}`)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	assert.Empty(t, f.records.ListMoodEntries(ctx))
	assert.Empty(t, f.records.ListChatMessages(ctx))
	_, ok := f.records.FindAccount(ctx, "u1")
	assert.False(t, ok)
	_, ok = f.sessions.CurrentUser(ctx)
	assert.False(t, ok)

	resp = do(f.router, http.MethodDelete, "/account", `{"confirmation":"DELETE"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
